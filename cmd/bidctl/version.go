package main

import (
	"github.com/spf13/cobra"

	"github.com/Ducr/taro-mobile-open/version"
)

func newVersionCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return version.Get().Write(a.out, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "输出格式 (text, json, short)")
	return cmd
}
