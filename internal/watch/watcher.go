package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"superstore/internal/dataset"
	"superstore/internal/store"
)

// Open reads the dataset at path into a fresh in-memory store.
func Open(ctx context.Context, path string) (*store.Store, error) {
	orders, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	return store.Load(ctx, orders)
}

// Stats counts watcher activity.
type Stats struct {
	Events     int
	Reloads    int
	Failures   int
	LastReload time.Time
	LastError  string
}

// Watcher reloads the dataset file into a Holder when it changes. Editors
// often replace files instead of writing them, so the parent directory is
// watched and events are filtered by name.
type Watcher struct {
	mu       sync.Mutex
	path     string
	holder   *Holder
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
	pending  bool
	lastSeen time.Time
	stats    Stats
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewWatcher prepares a watcher for path. Nothing happens until Start.
func NewWatcher(path string, h *Holder, logger *zap.Logger, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:     abs,
		holder:   h,
		logger:   logger.Named("watch"),
		watcher:  fw,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It does not block. If the directory cannot be
// watched the fsnotify watcher is released and Stop becomes a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		if cerr := w.watcher.Close(); cerr != nil {
			w.logger.Warn("close watcher", zap.Error(cerr))
		}
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching dataset", zap.String("path", w.path), zap.Duration("debounce", w.debounce))
	go w.run(ctx)
	return nil
}

// Stop ends the event loop and releases the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("close watcher", zap.Error(err))
	}
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounce / 2
	if tick <= 0 || tick > 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
		case <-ticker.C:
			if w.due() {
				_ = w.Reload(ctx)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	w.logger.Debug("dataset event", zap.String("op", event.Op.String()))
	w.mu.Lock()
	w.pending = true
	w.lastSeen = time.Now()
	w.stats.Events++
	w.mu.Unlock()
}

// due reports whether a pending change has been quiet for the debounce window.
func (w *Watcher) due() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.pending || time.Since(w.lastSeen) < w.debounce {
		return false
	}
	w.pending = false
	return true
}

// Reload reads the file and swaps it in. On failure the current data stays.
func (w *Watcher) Reload(ctx context.Context) error {
	start := time.Now()
	s, err := Open(ctx, w.path)
	if err != nil {
		w.mu.Lock()
		w.stats.Failures++
		w.stats.LastError = err.Error()
		w.mu.Unlock()
		w.logger.Error("reload failed, keeping previous data", zap.String("path", w.path), zap.Error(err))
		return fmt.Errorf("reload %s: %w", w.path, err)
	}
	if err := w.holder.Swap(s); err != nil {
		w.logger.Warn("close previous store", zap.Error(err))
	}
	w.mu.Lock()
	w.stats.Reloads++
	w.stats.LastReload = time.Now()
	w.stats.LastError = ""
	w.mu.Unlock()
	w.logger.Info("dataset reloaded", zap.String("path", w.path), zap.Duration("took", time.Since(start)))
	return nil
}
