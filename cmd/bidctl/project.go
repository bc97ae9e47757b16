package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/Ducr/taro-mobile-open/project"
)

func newProjectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "项目管理",
	}
	cmd.AddCommand(
		newProjectListCmd(a),
		newProjectShowCmd(a),
		newTransitionCmd(a, "start", "开始开标", (*project.Service).StartOpenBid),
		newTransitionCmd(a, "decrypt", "开始解密", (*project.Service).StartDecrypt),
		newTransitionCmd(a, "finish", "结束开标", (*project.Service).FinishOpenBid),
	)
	return cmd
}

func newProjectListCmd(a *app) *cobra.Command {
	var (
		q      project.ListQuery
		status int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "项目列表",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&q.ProjectName, "name", "", "按项目名称筛选")
	cmd.Flags().StringVar(&q.ProjectCode, "code", "", "按项目编号筛选")
	cmd.Flags().IntVar(&status, "status", -1, "按开标状态筛选 (0 未开标, 1 开标中, 2 开标结束)")
	cmd.Flags().IntVar(&q.PageNum, "page", 1, "页码")
	cmd.Flags().IntVar(&q.PageSize, "size", project.DefaultPageSize, "每页条数")

	cmd.RunE = a.withClient(func(cmd *cobra.Command, _ []string) error {
		if status >= 0 {
			s := project.OpenBidStatus(status)
			q.OpenbidStatus = &s
		}
		page, err := a.projects.List(cmd.Context(), q)
		if err != nil {
			return err
		}

		table := uitable.New()
		table.MaxColWidth = 40
		table.AddRow("项目编号", "项目名称", "开标时间", "开标状态", "解密状态")
		for _, p := range page.Rows {
			table.AddRow(p.ProjectCode, p.ProjectName, p.OpenbidTime, p.OpenbidStatus.Label(), p.DecryptStatus.Label())
		}
		fmt.Fprintln(a.out, table)
		fmt.Fprintf(a.out, "共 %d 条\n", page.Total)
		return nil
	})
	return cmd
}

func newProjectShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <projectCode>",
		Short: "项目详情",
		Args:  cobra.ExactArgs(1),
		RunE: a.withClient(func(cmd *cobra.Command, args []string) error {
			p, err := a.projects.Detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printProject(a, p)
			return nil
		}),
	}
}

func printProject(a *app, p project.Project) {
	table := uitable.New()
	table.Wrap = true
	table.AddRow("项目名称:", p.ProjectName)
	table.AddRow("项目编号:", p.ProjectCode)
	table.AddRow("开标时间:", p.OpenbidTime)
	table.AddRow("开标状态:", p.OpenbidStatus.Label())
	table.AddRow("解密状态:", p.DecryptStatus.Label())
	fmt.Fprintln(a.out, table)
}

type transition func(*project.Service, context.Context, string) (project.Project, error)

func newTransitionCmd(a *app, use, title string, do transition) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   use + " <projectCode>",
		Short: title,
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "跳过确认")

	cmd.RunE = a.withClient(func(cmd *cobra.Command, args []string) error {
		code := args[0]
		if !yes && !confirm(a, title, fmt.Sprintf("确认要对项目 %s 执行%s吗？", code, title)) {
			fmt.Fprintln(a.out, "已取消")
			return nil
		}
		p, err := do(a.projects, cmd.Context(), code)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, "操作成功")
		printProject(a, p)
		return nil
	})
	return cmd
}

// confirm shows the question as a modal and reads a y/N answer from stdin.
func confirm(a *app, title, message string) bool {
	a.notifier.Modal(title, message)
	fmt.Fprint(a.out, "[y/N] ")
	line, _ := bufio.NewReader(a.in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
