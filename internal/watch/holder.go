// Package watch keeps the served dataset current: a Holder owns the live
// store and a Watcher swaps in a fresh one when the source file changes.
package watch

import (
	"context"
	"sync"

	"superstore/internal/dashboard"
	"superstore/internal/store"
)

// Holder owns the current store. Readers run under a read lock so a swap
// waits for in-flight requests before the old store is closed.
type Holder struct {
	mu  sync.RWMutex
	cur *store.Store
}

// NewHolder wraps s.
func NewHolder(s *store.Store) *Holder {
	return &Holder{cur: s}
}

// View runs fn against the current store.
func (h *Holder) View(ctx context.Context, fn func(dashboard.Source) error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(h.cur)
}

// Swap installs s and closes the store it replaces.
func (h *Holder) Swap(s *store.Store) error {
	h.mu.Lock()
	old := h.cur
	h.cur = s
	h.mu.Unlock()
	if old == nil || old == s {
		return nil
	}
	return old.Close()
}

// Close closes the current store.
func (h *Holder) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur == nil {
		return nil
	}
	err := h.cur.Close()
	h.cur = nil
	return err
}
