package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"superstore/internal/dashboard"
	"superstore/internal/dataset/datasettest"
	"superstore/internal/filter"
	"superstore/internal/store"
)

func rows(t *testing.T, h *Holder) int {
	t.Helper()
	n, err := countRows(h)
	require.NoError(t, err)
	return n
}

func countRows(h *Holder) (int, error) {
	var n int
	err := h.View(context.Background(), func(src dashboard.Source) error {
		s, err := src.Summary(context.Background(), filter.Filter{})
		n = s.Rows
		return err
	})
	return n, err
}

func TestHolder_SwapClosesPrevious(t *testing.T) {
	ctx := context.Background()
	first, err := store.Load(ctx, datasettest.Orders())
	require.NoError(t, err)
	second, err := store.Load(ctx, datasettest.Orders()[:2])
	require.NoError(t, err)

	h := NewHolder(first)
	assert.Equal(t, 8, rows(t, h))

	require.NoError(t, h.Swap(second))
	assert.Equal(t, 2, rows(t, h))

	_, _, err = first.DateBounds(ctx)
	assert.Error(t, err, "replaced store should be closed")
	require.NoError(t, h.Close())
}

func TestHolder_ViewHonoursCancelledContext(t *testing.T) {
	s, err := store.Load(context.Background(), datasettest.Orders())
	require.NoError(t, err)
	h := NewHolder(s)
	t.Cleanup(func() { _ = h.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err = h.View(ctx, func(dashboard.Source) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestWatcher_ReloadKeepsDataOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv")
	datasettest.WriteCSV(t, path, datasettest.Orders())
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	h := NewHolder(s)
	t.Cleanup(func() { _ = h.Close() })

	w, err := NewWatcher(path, h, zaptest.NewLogger(t), 10*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("Region,Sales\nWest,1\n"), 0644))
	require.Error(t, w.Reload(context.Background()))
	assert.Equal(t, 8, rows(t, h))
	assert.Equal(t, 1, w.Stats().Failures)

	datasettest.WriteCSV(t, path, datasettest.Orders()[:3])
	require.NoError(t, w.Reload(context.Background()))
	assert.Equal(t, 3, rows(t, h))
	assert.Equal(t, 1, w.Stats().Reloads)
	assert.Empty(t, w.Stats().LastError)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.csv")
	datasettest.WriteCSV(t, path, datasettest.Orders())
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	h := NewHolder(s)
	t.Cleanup(func() { _ = h.Close() })

	w, err := NewWatcher(path, h, zaptest.NewLogger(t), 20*time.Millisecond)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// Unrelated files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	datasettest.WriteCSV(t, path, datasettest.Orders()[:4])
	require.Eventually(t, func() bool {
		n, err := countRows(h)
		return err == nil && n == 4
	}, 5*time.Second, 20*time.Millisecond)
	assert.GreaterOrEqual(t, w.Stats().Reloads, 1)
}

func TestWatcher_StartFailureLeavesStopUsable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "orders.csv")
	w, err := NewWatcher(path, NewHolder(nil), zaptest.NewLogger(t), 20*time.Millisecond)
	require.NoError(t, err)

	require.Error(t, w.Start(context.Background()))

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after a failed Start")
	}
	w.Stop()
}
