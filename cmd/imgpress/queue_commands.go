package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"imgpress/internal/batch"
	"imgpress/internal/config"
	"imgpress/internal/queue"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Requeue failed items",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				retried, err := store.RetryFailed(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d item(s)\n", retried)
				return nil
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove items and their staged outputs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withOrchestrator(nil, func(cfg *config.Config, store *queue.Store, o *batch.Orchestrator) error {
				out := cmd.OutOrStdout()
				for _, id := range ids {
					removed, err := o.RemoveItem(cmd.Context(), id)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(out, "Removed #%d\n", id)
					} else {
						fmt.Fprintf(out, "No item #%d\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear items from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !clearCompleted && !clearFailed && !clearAll {
				return errors.New("specify --completed, --failed, or --all")
			}
			return ctx.withOrchestrator(nil, func(cfg *config.Config, store *queue.Store, o *batch.Orchestrator) error {
				var cleared int64
				switch {
				case clearAll:
					n, err := o.ClearAll(cmd.Context())
					if err != nil {
						return err
					}
					cleared = n
				case clearCompleted && clearFailed:
					n, err := o.ClearCompleted(cmd.Context())
					if err != nil {
						return err
					}
					m, err := store.ClearFailed(cmd.Context())
					if err != nil {
						return err
					}
					cleared = n + m
				case clearCompleted:
					n, err := o.ClearCompleted(cmd.Context())
					if err != nil {
						return err
					}
					cleared = n
				case clearFailed:
					n, err := store.ClearFailed(cmd.Context())
					if err != nil {
						return err
					}
					cleared = n
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d item(s)\n", cleared)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Clear completed items")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Clear failed items")
	cmd.Flags().BoolVar(&clearAll, "all", false, "Clear everything")
	return cmd
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid item id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
