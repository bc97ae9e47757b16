package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Ducr/taro-mobile-open/httpx"
)

func newUploadCmd(a *app) *cobra.Command {
	var (
		url    string
		name   string
		fields map[string]string
	)
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "上传文件",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&url, "url", "/common/upload", "上传接口")
	cmd.Flags().StringVar(&name, "name", "file", "文件字段名")
	cmd.Flags().StringToStringVarP(&fields, "field", "f", nil, "附加表单字段 key=value")

	cmd.RunE = a.withClient(func(cmd *cobra.Command, args []string) error {
		var (
			mu   sync.Mutex
			last = -1
		)
		progress := func(p httpx.Progress) {
			mu.Lock()
			defer mu.Unlock()
			if p.Progress == last {
				return
			}
			last = p.Progress
			fmt.Fprintf(a.errOut, "\r上传中 %3d%%", p.Progress)
			if p.Progress == 100 {
				fmt.Fprintln(a.errOut)
			}
		}

		call, err := a.client.Upload(cmd.Context(), url, args[0], fields, httpx.Config{Name: name, OnProgress: progress})
		if err != nil {
			return err
		}
		resp, err := call.Wait()
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, string(resp.Data))
		return nil
	})
	return cmd
}
