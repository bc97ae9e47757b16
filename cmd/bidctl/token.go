package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "管理登录凭证",
	}

	setCmd := &cobra.Command{
		Use:   "set <token>",
		Short: "保存 token，之后的请求携带 Authorization 头",
		Args:  cobra.ExactArgs(1),
		RunE: a.withClient(func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(args[0])
			if token == "" {
				return fmt.Errorf("bidctl: empty token")
			}
			if err := a.store.Set(cmd.Context(), a.settings.Auth.TokenKey, token); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "token 已保存")
			return nil
		}),
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "删除已保存的 token",
		Args:  cobra.NoArgs,
		RunE: a.withClient(func(cmd *cobra.Command, _ []string) error {
			if err := a.store.Remove(cmd.Context(), a.settings.Auth.TokenKey); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "token 已删除")
			return nil
		}),
	}

	cmd.AddCommand(setCmd, clearCmd)
	return cmd
}
