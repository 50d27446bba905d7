package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"imgpress/internal/config"
	"imgpress/internal/naming"
	"imgpress/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the work queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				var statuses []queue.Status
				if statusFilter != "" {
					status, ok := queue.ParseStatus(statusFilter)
					if !ok {
						return fmt.Errorf("unknown status %q", statusFilter)
					}
					statuses = append(statuses, status)
				}

				items, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "Queue is empty.")
					return nil
				}

				rows := make([]queueRow, 0, len(items))
				for _, item := range items {
					rows = append(rows, queueRow{
						id:     item.ID,
						kind:   item.Kind,
						label:  itemLabel(item),
						status: item.Status,
						detail: itemDetail(item),
					})
				}
				fmt.Fprintln(out, renderQueueTable(rows))

				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d total: %d pending, %d processing, %d completed, %d failed\n",
					health.Total, health.Pending, health.Processing, health.Completed, health.Failed)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show items in this state (pending, processing, completed, failed)")
	return cmd
}

func itemLabel(item *queue.Item) string {
	if item.Kind == queue.KindArchiveGroup {
		return naming.DisplayTitle(item.GroupName)
	}
	return item.SourceName
}

func itemDetail(item *queue.Item) string {
	switch item.Status {
	case queue.StatusFailed:
		return item.ErrorMessage
	case queue.StatusCompleted:
		return formatBytes(item.OutputBytes)
	case queue.StatusProcessing:
		return fmt.Sprintf("%.0f%%", item.ProgressPercent)
	default:
		if item.Kind == queue.KindArchiveGroup {
			return formatBytes(item.TotalInputBytes)
		}
		return formatBytes(item.SourceBytes)
	}
}
