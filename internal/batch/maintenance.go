package batch

import (
	"context"
	"os"
	"strings"

	"imgpress/internal/logging"
	"imgpress/internal/queue"
)

// RemoveItem deletes one item and its staged payload. Archives already
// written to the output directory are the user's files and stay put.
func (o *Orchestrator) RemoveItem(ctx context.Context, id int64) (bool, error) {
	item, err := o.store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}

	o.removeStagedArtifact(item)
	return o.store.Remove(ctx, id)
}

// ClearCompleted removes completed items and their staged payloads.
func (o *Orchestrator) ClearCompleted(ctx context.Context) (int64, error) {
	items, err := o.store.List(ctx, queue.StatusCompleted)
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		o.removeStagedArtifact(item)
	}
	return o.store.ClearCompleted(ctx)
}

// ClearAll removes every item and all staged payloads.
func (o *Orchestrator) ClearAll(ctx context.Context) (int64, error) {
	items, err := o.store.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		o.removeStagedArtifact(item)
	}
	return o.store.Clear(ctx)
}

// removeStagedArtifact deletes the item's output payload when it lives in
// the staging directory. Best effort: a missing file is already gone.
func (o *Orchestrator) removeStagedArtifact(item *queue.Item) {
	if item.OutputPath == "" {
		return
	}
	staging := o.cfg.StagingDir() + string(os.PathSeparator)
	if !strings.HasPrefix(item.OutputPath, staging) {
		return
	}
	if err := os.Remove(item.OutputPath); err != nil && !os.IsNotExist(err) {
		o.logger.Warn("remove staged payload failed",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.Error(err),
		)
	}
}
