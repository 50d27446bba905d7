package queue_test

import (
	"context"
	"testing"

	"imgpress/internal/queue"
	"imgpress/internal/testsupport"
)

func TestNewConversionDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item, err := store.NewConversion(context.Background(), "/tmp/a.png", "a.png", 123, "image/png", 10, 20)
	if err != nil {
		t.Fatalf("NewConversion: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if item.Kind != queue.KindConvert {
		t.Fatalf("kind = %q", item.Kind)
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("status = %q, want pending", item.Status)
	}
	if item.Width != 10 || item.Height != 20 {
		t.Fatalf("dimensions = %dx%d", item.Width, item.Height)
	}
	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set")
	}
}

func TestNewGroupTaskFreezesMembers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	members := []queue.Member{
		{Path: "x/1.txt", Source: "/src/photos/x/1.txt", Size: 10},
		{Path: "2.txt", Source: "/src/photos/2.txt", Size: 32},
	}
	item, err := store.NewGroupTask(context.Background(), "photos", members)
	if err != nil {
		t.Fatalf("NewGroupTask: %v", err)
	}
	if item.Kind != queue.KindArchiveGroup {
		t.Fatalf("kind = %q", item.Kind)
	}
	if item.GroupName != "photos" {
		t.Fatalf("group = %q", item.GroupName)
	}
	if item.TotalInputBytes != 42 {
		t.Fatalf("total input bytes = %d, want 42", item.TotalInputBytes)
	}

	decoded, err := item.Members()
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(decoded) != 2 || decoded[0].Path != "x/1.txt" || decoded[1].Size != 32 {
		t.Fatalf("unexpected members: %+v", decoded)
	}
}

func TestNewGroupTaskRejectsEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.NewGroupTask(context.Background(), "empty", nil); err == nil {
		t.Fatal("expected error for empty member list")
	}
}

func TestUpdateAndTerminalHelpers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewConversion(t, store, "/tmp/a.png", "a.png", 1)

	item.SetProcessing("Converting")
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	item.SetCompleted("/out/a.jpg", 99)
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != queue.StatusCompleted {
		t.Fatalf("status = %q", reloaded.Status)
	}
	if !reloaded.IsTerminal() {
		t.Fatal("completed item should be terminal")
	}
	if reloaded.OutputPath != "/out/a.jpg" || reloaded.OutputBytes != 99 {
		t.Fatalf("output not persisted: %+v", reloaded)
	}
	if reloaded.ErrorMessage != "" {
		t.Fatalf("error message should be empty, got %q", reloaded.ErrorMessage)
	}
	if reloaded.ProgressPercent != 100 {
		t.Fatalf("progress = %v, want 100", reloaded.ProgressPercent)
	}
}

func TestSetFailedClearsOutput(t *testing.T) {
	item := &queue.Item{Status: queue.StatusProcessing, OutputPath: "/x", OutputBytes: 5}
	item.SetFailed("decode failed")
	if item.Status != queue.StatusFailed {
		t.Fatalf("status = %q", item.Status)
	}
	if item.OutputPath != "" || item.OutputBytes != 0 {
		t.Fatal("failed item must not reference output")
	}
	if item.ErrorMessage != "decode failed" {
		t.Fatalf("error = %q", item.ErrorMessage)
	}
}

func TestListAndNextForStatuses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewConversion(t, store, "/tmp/1.png", "1.png", 1)
	second := testsupport.NewConversion(t, store, "/tmp/2.png", "2.png", 1)

	second.SetFailed("boom")
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update: %v", err)
	}

	pending, err := store.List(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != first.ID {
		t.Fatalf("unexpected pending list: %+v", pending)
	}

	next, err := store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("unexpected next item: %+v", next)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 items, got %d", len(all))
	}
}

func TestRetryFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewConversion(t, store, "/tmp/a.png", "a.png", 1)
	item.SetFailed("boom")
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	affected, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("affected = %d, want 1", affected)
	}

	reloaded, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != queue.StatusPending {
		t.Fatalf("status = %q, want pending", reloaded.Status)
	}
	if reloaded.ErrorMessage != "" {
		t.Fatalf("error message should be cleared, got %q", reloaded.ErrorMessage)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewConversion(t, store, "/tmp/a.png", "a.png", 1)
	item.SetProcessing("Converting")
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	affected, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing: %v", err)
	}
	if affected != 1 {
		t.Fatalf("affected = %d, want 1", affected)
	}

	reloaded, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != queue.StatusPending {
		t.Fatalf("status = %q, want pending", reloaded.Status)
	}
}

func TestStatsHealthAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	done := testsupport.NewConversion(t, store, "/tmp/1.png", "1.png", 1)
	done.SetCompleted("/out/1.jpg", 5)
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update: %v", err)
	}
	testsupport.NewConversion(t, store, "/tmp/2.png", "2.png", 1)

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 2 || health.Completed != 1 || health.Pending != 1 {
		t.Fatalf("unexpected health: %+v", health)
	}

	removed, err := store.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	health, err = store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 1 || health.Completed != 0 {
		t.Fatalf("unexpected health after clear: %+v", health)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := queue.ParseStatus(" Completed "); !ok || status != queue.StatusCompleted {
		t.Fatalf("ParseStatus = %q, %v", status, ok)
	}
	if _, ok := queue.ParseStatus("bogus"); ok {
		t.Fatal("expected unknown status to fail")
	}
}
