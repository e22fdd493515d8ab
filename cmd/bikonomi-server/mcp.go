package main

import (
	"os"

	"github.com/darkkaiser/bikonomi/internal/service/alert"
	"github.com/darkkaiser/bikonomi/internal/service/mcp"
	"github.com/spf13/cobra"
)

func newMCPCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "표준 입출력으로 MCP 서버를 실행합니다 (analyze_product, contribute_price)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			closeLog, err := setupCLILog(opts.appConfig)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx := cmd.Context()

			a, err := newApp(ctx, opts.appConfig, alert.Noop{})
			if err != nil {
				return err
			}
			defer a.Close()

			return mcp.Serve(ctx, mcp.NewServer(a.analyzer, buildInfo()), os.Stdin, os.Stdout)
		},
	}
}
