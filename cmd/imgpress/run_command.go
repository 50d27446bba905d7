package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"imgpress/internal/batch"
	"imgpress/internal/config"
	"imgpress/internal/queue"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var retryFailed bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process all pending work items",
		Long: `Process every pending item in creation order. Conversions are staged
inside the workspace; group archives land in the output directory. A failed
item is recorded and the run continues with the next one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []batch.Option
			var bar *progressbar.ProgressBar
			if isatty.IsTerminal(os.Stderr.Fd()) {
				opts = append(opts, batch.WithProgress(func(item *queue.Item, percent float64) {
					if bar != nil && percent >= 100 {
						_ = bar.Add(1)
					}
				}))
			}

			return ctx.withOrchestrator(opts, func(cfg *config.Config, store *queue.Store, o *batch.Orchestrator) error {
				if retryFailed {
					retried, err := store.RetryFailed(cmd.Context())
					if err != nil {
						return err
					}
					if retried > 0 {
						fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d failed item(s)\n", retried)
					}
				}

				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				pendingCount := health.Pending + health.Processing
				if pendingCount > 0 && isatty.IsTerminal(os.Stderr.Fd()) {
					bar = progressbar.NewOptions(pendingCount,
						progressbar.OptionSetDescription("processing"),
						progressbar.OptionSetWriter(os.Stderr),
						progressbar.OptionClearOnFinish(),
					)
				}

				stats, err := o.Run(cmd.Context())
				if bar != nil {
					_ = bar.Finish()
				}
				if err != nil {
					if errors.Is(err, batch.ErrRunActive) {
						return fmt.Errorf("a run is already active for this workspace")
					}
					return err
				}

				out := cmd.OutOrStdout()
				if stats.Total == 0 {
					fmt.Fprintln(out, "Nothing to do: no pending items.")
					return nil
				}
				fmt.Fprintf(out, "Run complete: %d item(s), %d succeeded, %d failed\n",
					stats.Total, stats.Completed, stats.Failed)
				if stats.Failed > 0 {
					fmt.Fprintln(out, "Use `imgpress status` for failure details and `imgpress retry` to requeue.")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&retryFailed, "retry-failed", false, "Requeue failed items before running")
	return cmd
}
