package batch

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"imgpress/internal/config"
	"imgpress/internal/logging"
	"imgpress/internal/queue"
)

// ErrRunActive is returned when another process already holds the run lock
// for this workspace.
var ErrRunActive = errors.New("another run is active for this workspace")

// ProgressFunc observes per-item progress during a run. Percent is in
// [0, 100]. Used by the CLI to drive its progress bar; nil disables it.
type ProgressFunc func(item *queue.Item, percent float64)

// Orchestrator coordinates batch processing over the work-item store.
type Orchestrator struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	progress ProgressFunc

	mu      sync.Mutex
	running bool
}

// Option configures optional Orchestrator behavior.
type Option func(*Orchestrator)

// WithProgress registers a per-item progress observer.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

// NewOrchestrator constructs a batch orchestrator.
func NewOrchestrator(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg,
		store:  store,
		logger: logging.WithComponent(logger, "batch"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// acquireRunLock serializes runs on a workspace across processes. The
// returned release func is safe to call once.
func (o *Orchestrator) acquireRunLock() (func(), error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrRunActive
	}
	o.running = true
	o.mu.Unlock()

	lock := flock.New(o.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		o.clearRunning()
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		o.clearRunning()
		return nil, ErrRunActive
	}

	return func() {
		_ = lock.Unlock()
		o.clearRunning()
	}, nil
}

func (o *Orchestrator) clearRunning() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

// stagedOutputPath is where a converted payload lands inside the workspace.
// The item ID prefix keeps same-named sources from clobbering each other.
func (o *Orchestrator) stagedOutputPath(item *queue.Item, outputName string) string {
	return filepath.Join(o.cfg.StagingDir(), fmt.Sprintf("%d-%s", item.ID, outputName))
}

func (o *Orchestrator) reportProgress(item *queue.Item, percent float64) {
	if o.progress != nil {
		o.progress(item, percent)
	}
}
