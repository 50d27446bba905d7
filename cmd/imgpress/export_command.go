package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"imgpress/internal/batch"
	"imgpress/internal/config"
	"imgpress/internal/queue"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Package all completed conversions into one zip",
		Long: `Bundle every completed conversion into a single date-stamped archive in
the output directory. Items stay in the queue, so the export can be repeated
after more conversions finish.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(nil, func(cfg *config.Config, store *queue.Store, o *batch.Orchestrator) error {
				res, err := o.Export(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d file(s), %s)\n",
					res.Path, res.Entries, formatBytes(res.Bytes))
				return nil
			})
		},
	}
}
