package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"imgpress/internal/archive"
	"imgpress/internal/fileutil"
	"imgpress/internal/logging"
	"imgpress/internal/naming"
	"imgpress/internal/preflight"
	"imgpress/internal/queue"
	"imgpress/internal/transform"
)

// RunStats summarizes one batch run.
type RunStats struct {
	RunID     string
	Total     int
	Completed int
	Failed    int
}

// Run drains the pending set oldest-first, claiming one item at a time
// until no pending item remains. Each item's outcome is persisted before
// the next claim; a failed item never stops the run.
func (o *Orchestrator) Run(ctx context.Context) (RunStats, error) {
	if err := o.cfg.EnsureDirectories(); err != nil {
		return RunStats{}, err
	}

	release, err := o.acquireRunLock()
	if err != nil {
		return RunStats{}, err
	}
	defer release()

	if err := preflight.Verify(o.cfg); err != nil {
		return RunStats{}, fmt.Errorf("preflight: %w", err)
	}

	matte, err := transform.ParseMatte(o.cfg.Convert.MatteColor)
	if err != nil {
		return RunStats{}, err
	}
	settings := transform.Settings{
		Quality:     o.cfg.QualityFactor(),
		Scale:       o.cfg.ScaleFactor(),
		TrimRightPx: o.cfg.Convert.TrimRightPx,
		Matte:       matte,
	}

	runID := uuid.NewString()
	log := o.logger.With(logging.String(logging.FieldRunID, runID))

	if reset, err := o.store.ResetStuckProcessing(ctx); err != nil {
		return RunStats{}, err
	} else if reset > 0 {
		log.Warn("reset items left processing by an interrupted run",
			logging.Int64("count", reset))
	}

	stats := RunStats{RunID: runID}
	log.Info("run started")

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		item, err := o.store.NextForStatuses(ctx, queue.StatusPending)
		if err != nil {
			return stats, err
		}
		if item == nil {
			break
		}
		if err := o.processItem(ctx, log, item, settings); err != nil {
			return stats, err
		}
		stats.Total++
		if item.Status == queue.StatusCompleted {
			stats.Completed++
		} else {
			stats.Failed++
		}
	}

	log.Info("run finished",
		logging.Int("completed", stats.Completed),
		logging.Int("failed", stats.Failed),
	)
	return stats, nil
}

// processItem takes one item through processing to a terminal state. The
// returned error is reserved for persistence failures; item-level failures
// are recorded on the item itself.
func (o *Orchestrator) processItem(ctx context.Context, log *slog.Logger, item *queue.Item, settings transform.Settings) error {
	itemLog := log.With(logging.Int64(logging.FieldItemID, item.ID))

	item.SetProcessing("Processing")
	if err := o.store.Update(ctx, item); err != nil {
		return fmt.Errorf("persist processing state: %w", err)
	}
	o.reportProgress(item, 0)

	var dispatchErr error
	switch item.Kind {
	case queue.KindConvert:
		dispatchErr = o.convertItem(ctx, item, settings)
	case queue.KindArchiveGroup:
		dispatchErr = o.archiveGroup(ctx, itemLog, item)
	default:
		dispatchErr = fmt.Errorf("unknown item kind %q", item.Kind)
	}

	if dispatchErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		item.SetFailed(dispatchErr.Error())
		itemLog.Warn("item failed", logging.Error(dispatchErr))
	} else {
		itemLog.Info("item completed",
			logging.String("output", item.OutputPath),
			logging.Int64("bytes", item.OutputBytes),
		)
	}

	if err := o.store.Update(ctx, item); err != nil {
		return fmt.Errorf("persist terminal state: %w", err)
	}
	o.reportProgress(item, 100)
	return nil
}

// convertItem re-encodes one source image and stages the payload inside the
// workspace.
func (o *Orchestrator) convertItem(ctx context.Context, item *queue.Item, settings transform.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := os.Open(item.SourcePath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	result, err := transform.Transform(src, settings)
	if err != nil {
		return err
	}

	staged := o.stagedOutputPath(item, naming.OutputName(item.SourceName))
	if err := fileutil.WriteFileAtomic(staged, result.Data, 0o644); err != nil {
		return fmt.Errorf("stage output: %w", err)
	}

	item.Width = result.Width
	item.Height = result.Height
	item.SetCompleted(staged, int64(len(result.Data)))
	return nil
}

// archiveGroup packs a frozen member list into one zip in the output
// directory. Intermediate progress is persisted so status reflects long
// archives.
func (o *Orchestrator) archiveGroup(ctx context.Context, log *slog.Logger, item *queue.Item) error {
	members, err := item.Members()
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return fmt.Errorf("group %q has no members", item.GroupName)
	}

	builder := archive.NewBuilder()
	for _, m := range members {
		builder.AddFile(m.Path, m.Source, m.Size)
	}

	data, err := builder.Finalize(ctx, func(percent float64) {
		// The terminal 100 is reported once the item reaches its final state.
		if percent >= 100 {
			return
		}
		item.ProgressPercent = percent
		if err := o.store.Update(ctx, item); err != nil {
			log.Warn("persist progress failed", logging.Error(err))
		}
		o.reportProgress(item, percent)
	})
	if err != nil {
		return err
	}

	outPath := filepath.Join(o.cfg.Paths.OutputDir, naming.GroupArchiveName(item.GroupName))
	if err := fileutil.WriteFileAtomic(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	item.SetCompleted(outPath, int64(len(data)))
	return nil
}
