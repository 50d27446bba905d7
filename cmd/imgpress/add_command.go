package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"imgpress/internal/config"
	"imgpress/internal/ingest"
	"imgpress/internal/naming"
	"imgpress/internal/queue"
	"imgpress/internal/transform"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var zipMode bool

	cmd := &cobra.Command{
		Use:   "add <path>...",
		Short: "Scan files and folders into the work queue",
		Long: `Scan the given files and folders and enqueue work items.

By default every image file found becomes a single conversion item. With
--zip, each top-level folder becomes one archive task packing that folder's
files; loose files outside a folder are reported and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				var roots []ingest.Entry
				for _, arg := range args {
					entry, err := ingest.NewOSEntry(arg)
					if err != nil {
						return err
					}
					roots = append(roots, entry)
				}

				files := ingest.Scan(cmd.Context(), logger, roots)
				if len(files) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to add: no files found.")
					return nil
				}

				if zipMode {
					return addGroupTasks(cmd, store, files)
				}
				return addConversions(cmd, store, files)
			})
		},
	}

	cmd.Flags().BoolVar(&zipMode, "zip", false, "Create one archive task per top-level folder instead of converting")
	return cmd
}

func addConversions(cmd *cobra.Command, store *queue.Store, files []ingest.ScannedFile) error {
	out := cmd.OutOrStdout()

	added, skipped := 0, 0
	for _, file := range files {
		name := baseName(file.RelPath)
		if !ingest.IsSupportedImage(name) {
			skipped++
			continue
		}
		source, ok := ingest.SourcePath(file.Source)
		if !ok {
			skipped++
			continue
		}

		width, height := probeDimensions(source)
		item, err := store.NewConversion(cmd.Context(), source, name, file.Size, ingest.DetectMIME(name), width, height)
		if err != nil {
			return err
		}
		added++
		fmt.Fprintf(out, "Added #%d %s (%s)\n", item.ID, file.RelPath, formatBytes(file.Size))
	}

	fmt.Fprintf(out, "%d conversion(s) queued", added)
	if skipped > 0 {
		fmt.Fprintf(out, ", %d non-image file(s) skipped", skipped)
	}
	fmt.Fprintln(out)
	return nil
}

func addGroupTasks(cmd *cobra.Command, store *queue.Store, files []ingest.ScannedFile) error {
	out := cmd.OutOrStdout()
	groups := ingest.Partition(files)

	for _, name := range groups.Order {
		var members []queue.Member
		for _, file := range groups.Members[name] {
			source, ok := ingest.SourcePath(file.Source)
			if !ok {
				continue
			}
			members = append(members, queue.Member{
				Path:   ingest.MemberPath(file),
				Source: source,
				Size:   file.Size,
			})
		}
		if len(members) == 0 {
			continue
		}
		item, err := store.NewGroupTask(cmd.Context(), name, members)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Added #%d %s (%d file(s), %s)\n",
			item.ID, naming.DisplayTitle(name), len(members), formatBytes(item.TotalInputBytes))
	}

	if len(groups.Ungrouped) > 0 {
		fmt.Fprintf(out, "%d loose file(s) skipped (not inside a folder):\n", len(groups.Ungrouped))
		for _, file := range groups.Ungrouped {
			fmt.Fprintf(out, "  %s\n", file.RelPath)
		}
	}
	if len(groups.Order) == 0 {
		fmt.Fprintln(out, "No folders found; nothing queued.")
	}
	return nil
}

// probeDimensions reads just enough of the file to learn its pixel size.
// Zero dimensions are fine; the transform re-probes during the run.
func probeDimensions(path string) (int, int) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer f.Close()
	w, h, err := transform.Dimensions(f)
	if err != nil {
		return 0, 0
	}
	return w, h
}

func baseName(relPath string) string {
	for i := len(relPath) - 1; i >= 0; i-- {
		if relPath[i] == '/' {
			return relPath[i+1:]
		}
	}
	return relPath
}
