package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"imgpress/internal/logging"
	"imgpress/internal/queue"
	"imgpress/internal/testsupport"
)

func newOrchestrator(t *testing.T) (*Orchestrator, *queue.Store) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	return NewOrchestrator(cfg, store, logging.NewNop()), store
}

func enqueuePNG(t *testing.T, o *Orchestrator, store *queue.Store, name string) *queue.Item {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	testsupport.WritePNG(t, path, 8, 8, color.NRGBA{R: 0x40, G: 0x80, B: 0xC0, A: 0xFF})
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat fixture: %v", err)
	}
	return testsupport.NewConversion(t, store, path, name, info.Size())
}

func TestRunIsolatesFailedItems(t *testing.T) {
	o, store := newOrchestrator(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		enqueuePNG(t, o, store, "good.png")
	}
	badPath := filepath.Join(t.TempDir(), "broken.png")
	testsupport.WriteFile(t, badPath, []byte("not an image"))
	testsupport.NewConversion(t, store, badPath, "broken.png", 12)
	for i := 0; i < 2; i++ {
		enqueuePNG(t, o, store, "more.png")
	}

	stats, err := o.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Total != 5 || stats.Completed != 4 || stats.Failed != 1 {
		t.Fatalf("stats = %+v, want 5 total, 4 completed, 1 failed", stats)
	}

	failed, err := store.List(ctx, queue.StatusFailed)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("failed items = %d, want 1", len(failed))
	}
	if failed[0].ErrorMessage == "" {
		t.Fatal("failed item carries no error detail")
	}
	if failed[0].OutputPath != "" {
		t.Fatal("failed item kept a partial output reference")
	}

	completed, err := store.List(ctx, queue.StatusCompleted)
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	for _, item := range completed {
		if item.OutputPath == "" {
			t.Fatalf("completed item %d has no output", item.ID)
		}
		if _, err := os.Stat(item.OutputPath); err != nil {
			t.Fatalf("staged output missing: %v", err)
		}
		if !strings.HasSuffix(item.OutputPath, ".jpg") {
			t.Fatalf("staged output %q is not a jpg", item.OutputPath)
		}
	}
}

func TestRunClaimsItemsOldestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	var claimed []int64
	o := NewOrchestrator(cfg, store, logging.NewNop(), WithProgress(func(item *queue.Item, p float64) {
		if p == 0 {
			claimed = append(claimed, item.ID)
		}
	}))
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		ids = append(ids, enqueuePNG(t, o, store, "photo.png").ID)
	}

	if _, err := o.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(claimed) != len(ids) {
		t.Fatalf("claimed %d items, want %d", len(claimed), len(ids))
	}
	for i := range ids {
		if claimed[i] != ids[i] {
			t.Fatalf("claim order = %v, want creation order %v", claimed, ids)
		}
	}
}

func TestRunIsIdempotentOverTerminalItems(t *testing.T) {
	o, store := newOrchestrator(t)
	ctx := context.Background()

	enqueuePNG(t, o, store, "photo.png")
	if _, err := o.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}

	stats, err := o.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("second run picked up %d items, want 0", stats.Total)
	}
}

func TestRunArchivesGroupWithStrippedMemberPaths(t *testing.T) {
	o, store := newOrchestrator(t)
	ctx := context.Background()

	dir := t.TempDir()
	one := filepath.Join(dir, "one.png")
	two := filepath.Join(dir, "two.png")
	testsupport.WritePNG(t, one, 4, 4, color.NRGBA{A: 0xFF})
	testsupport.WritePNG(t, two, 4, 4, color.NRGBA{A: 0xFF})
	oneInfo, _ := os.Stat(one)
	twoInfo, _ := os.Stat(two)

	members := []queue.Member{
		{Path: "one.png", Source: one, Size: oneInfo.Size()},
		{Path: "nested/two.png", Source: two, Size: twoInfo.Size()},
	}
	if _, err := store.NewGroupTask(ctx, "vacation", members); err != nil {
		t.Fatalf("NewGroupTask: %v", err)
	}

	stats, err := o.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Completed != 1 {
		t.Fatalf("stats = %+v, want 1 completed", stats)
	}

	zipPath := filepath.Join(o.cfg.Paths.OutputDir, "vacation.zip")
	data, err := os.ReadFile(zipPath)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["one.png"] || !names["nested/two.png"] {
		t.Fatalf("archive entries = %v", names)
	}
}

func TestRunReportsMonotoneProgressForGroups(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	var percents []float64
	o := NewOrchestrator(cfg, store, logging.NewNop(), WithProgress(func(_ *queue.Item, p float64) {
		percents = append(percents, p)
	}))
	ctx := context.Background()

	dir := t.TempDir()
	var members []queue.Member
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		path := filepath.Join(dir, name)
		testsupport.WritePNG(t, path, 16, 16, color.NRGBA{A: 0xFF})
		info, _ := os.Stat(path)
		members = append(members, queue.Member{Path: name, Source: path, Size: info.Size()})
	}
	if _, err := store.NewGroupTask(ctx, "trip", members); err != nil {
		t.Fatalf("NewGroupTask: %v", err)
	}

	if _, err := o.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(percents) == 0 {
		t.Fatal("no progress observed")
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress regressed: %v", percents)
		}
	}
	if final := percents[len(percents)-1]; final != 100 {
		t.Fatalf("final progress = %v, want 100", final)
	}
}

func TestExportPackagesCompletedConversions(t *testing.T) {
	o, store := newOrchestrator(t)
	ctx := context.Background()

	enqueuePNG(t, o, store, "first.png")
	enqueuePNG(t, o, store, "second.jpeg")
	if _, err := o.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	res, err := o.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Entries != 2 {
		t.Fatalf("entries = %d, want 2", res.Entries)
	}

	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".jpg") {
			t.Fatalf("entry %q is not renamed to .jpg", f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry: %v", err)
		}
		if _, err := io.ReadAll(rc); err != nil {
			t.Fatalf("read entry: %v", err)
		}
		rc.Close()
	}

	// Export leaves item state untouched.
	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if health.Completed != 2 {
		t.Fatalf("completed after export = %d, want 2", health.Completed)
	}
}

func TestExportResolvesDuplicateNames(t *testing.T) {
	o, store := newOrchestrator(t)
	ctx := context.Background()

	enqueuePNG(t, o, store, "photo.png")
	enqueuePNG(t, o, store, "photo.png")
	if _, err := o.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	res, err := o.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	seen := make(map[string]bool)
	for _, f := range zr.File {
		if seen[f.Name] {
			t.Fatalf("duplicate entry name %q", f.Name)
		}
		seen[f.Name] = true
	}
	if !seen["photo.jpg"] || !seen["photo - dup1.jpg"] {
		t.Fatalf("entries = %v", seen)
	}
}

func TestExportWithNothingCompletedFails(t *testing.T) {
	o, _ := newOrchestrator(t)
	if _, err := o.Export(context.Background()); err == nil {
		t.Fatal("expected error with empty queue")
	}
}

func TestRemoveItemDeletesStagedPayload(t *testing.T) {
	o, store := newOrchestrator(t)
	ctx := context.Background()

	item := enqueuePNG(t, o, store, "photo.png")
	if _, err := o.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	processed, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	staged := processed.OutputPath

	removed, err := o.RemoveItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if !removed {
		t.Fatal("item not removed")
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatal("staged payload survived removal")
	}
}

func TestRunLockRejectsConcurrentRun(t *testing.T) {
	o, _ := newOrchestrator(t)

	if err := o.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	release, err := o.acquireRunLock()
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer release()

	if _, err := o.Run(context.Background()); !errors.Is(err, ErrRunActive) {
		t.Fatalf("concurrent run error = %v, want ErrRunActive", err)
	}
}

func TestRunResetsInterruptedItems(t *testing.T) {
	o, store := newOrchestrator(t)
	ctx := context.Background()

	item := enqueuePNG(t, o, store, "photo.png")
	item.SetProcessing("interrupted")
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("seed processing state: %v", err)
	}

	stats, err := o.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Completed != 1 {
		t.Fatalf("stats = %+v, want the interrupted item completed", stats)
	}
}
