package testsupport

import (
	"context"
	"testing"

	"imgpress/internal/config"
	"imgpress/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewConversion creates a pending conversion item for tests.
func NewConversion(t testing.TB, store *queue.Store, sourcePath, sourceName string, size int64) *queue.Item {
	t.Helper()

	item, err := store.NewConversion(context.Background(), sourcePath, sourceName, size, "image/png", 0, 0)
	if err != nil {
		t.Fatalf("store.NewConversion: %v", err)
	}
	return item
}
