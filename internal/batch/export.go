package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"imgpress/internal/archive"
	"imgpress/internal/fileutil"
	"imgpress/internal/logging"
	"imgpress/internal/naming"
	"imgpress/internal/queue"
)

// ExportResult describes a packaged download archive.
type ExportResult struct {
	Path    string
	Entries int
	Bytes   int64
}

// Export packages every completed conversion into a single date-stamped zip
// in the output directory. The operation is read-only over item state:
// it neither claims items nor mutates their lifecycle, so it can run again
// after adding more conversions. Duplicate output names get " - dupN"
// suffixes inside the archive.
func (o *Orchestrator) Export(ctx context.Context) (ExportResult, error) {
	if err := o.cfg.EnsureDirectories(); err != nil {
		return ExportResult{}, err
	}

	items, err := o.store.List(ctx, queue.StatusCompleted)
	if err != nil {
		return ExportResult{}, err
	}

	resolver := naming.NewCollisionResolver()
	builder := archive.NewBuilder()
	for _, item := range items {
		if item.Kind != queue.KindConvert || item.OutputPath == "" {
			continue
		}
		entryName := resolver.Resolve(item.OutputPath, naming.OutputName(item.SourceName))
		builder.AddFile(entryName, item.OutputPath, item.OutputBytes)
	}
	if builder.Len() == 0 {
		return ExportResult{}, errors.New("no completed conversions to export")
	}

	data, err := builder.Finalize(ctx, nil)
	if err != nil {
		return ExportResult{}, err
	}

	outPath := filepath.Join(o.cfg.Paths.OutputDir,
		naming.ExportArchiveName(o.cfg.Export.ArchivePrefix, time.Now()))
	if err := fileutil.WriteFileAtomic(outPath, data, 0o644); err != nil {
		return ExportResult{}, fmt.Errorf("write export archive: %w", err)
	}

	o.logger.Info("export written",
		logging.String("path", outPath),
		logging.Int("entries", builder.Len()),
		logging.Int64("bytes", int64(len(data))),
	)
	return ExportResult{Path: outPath, Entries: builder.Len(), Bytes: int64(len(data))}, nil
}
