package queue

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neonwatty/tfq/internal/store"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "tfq.db")
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return New(s)
}

func errPtr(s string) *string { return &s }

// S1 — Priority FIFO.
func TestEngine_PriorityFIFO(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Enqueue(ctx, "/a", 0, nil))
	require.NoError(t, e.Enqueue(ctx, "/b", 5, nil))
	require.NoError(t, e.Enqueue(ctx, "/c", 5, nil))

	first, ok, err := e.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "/b", first)

	second, ok, err := e.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "/c", second)

	third, ok, err := e.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "/a", third)

	_, ok, err = e.Dequeue(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

// S2 — Deduplication.
func TestEngine_Deduplication(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Enqueue(ctx, "/t", 2, errPtr("x")))
	require.NoError(t, e.Enqueue(ctx, "/t", 7, errPtr("y")))

	size, err := e.Size(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, size)

	items, err := e.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 7, items[0].Priority)
	require.Equal(t, 2, items[0].FailureCount)
	require.NotNil(t, items[0].Error)
	require.Equal(t, "y", *items[0].Error)
	require.True(t, !items[0].LastFailure.Before(items[0].CreatedAt))
}

func TestEngine_ReenqueueKeepsMaxPriority(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Enqueue(ctx, "/t", 9, nil))
	require.NoError(t, e.Enqueue(ctx, "/t", 1, nil))

	items, err := e.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 9, items[0].Priority)
	require.Equal(t, 2, items[0].FailureCount)
}

func TestEngine_EnqueueRejectsEmptyPath(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	err := e.Enqueue(ctx, "   ", 0, nil)
	require.Error(t, err)
}

func TestEngine_RemoveAndContains(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Enqueue(ctx, "/t", 0, nil))

	ok, err := e.Contains(ctx, "/t")
	require.NoError(t, err)
	require.True(t, ok)

	removed, err := e.Remove(ctx, "/t")
	require.NoError(t, err)
	require.True(t, removed)

	removedAgain, err := e.Remove(ctx, "/t")
	require.NoError(t, err)
	require.False(t, removedAgain)
}

func TestEngine_ClearRemovesAllRows(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Enqueue(ctx, "/a", 0, nil))
	require.NoError(t, e.Enqueue(ctx, "/b", 0, nil))
	require.NoError(t, e.Clear(ctx))

	size, err := e.Size(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, size)
}

func TestEngine_SearchAndSearchGlob(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Enqueue(ctx, "src/a.test.ts", 0, nil))
	require.NoError(t, e.Enqueue(ctx, "src/b.test.ts", 0, nil))
	require.NoError(t, e.Enqueue(ctx, "src/other.spec.ts", 0, nil))

	found, err := e.Search(ctx, "a.test")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "src/a.test.ts", found[0].FilePath)

	globbed, err := e.SearchGlob(ctx, "src/*.test.ts")
	require.NoError(t, err)
	require.Len(t, globbed, 2)
}

func TestEngine_GetStats_EmptyQueue(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	stats, err := e.GetStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, stats.Total)
	require.Equal(t, float64(0), stats.AverageFailureCount)
}

func TestEngine_GetStats_PopulatedQueue(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Enqueue(ctx, "/a", 3, nil))
	require.NoError(t, e.Enqueue(ctx, "/b", 3, nil))
	require.NoError(t, e.Enqueue(ctx, "/b", 3, nil)) // failureCount 2

	stats, err := e.GetStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Total)
	require.Equal(t, 1.5, stats.AverageFailureCount)
	require.Equal(t, 2, stats.ItemsByPriority[3])
}

func TestEngine_Requeue_PreservesExplicitFailureCount(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Enqueue(ctx, "/t", 2, nil))
	item, ok, err := e.DequeueWithContext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, item.FailureCount)

	require.NoError(t, e.Requeue(ctx, "/t", item.Priority, item.FailureCount+1, errPtr("boom")))

	items, err := e.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 2, items[0].FailureCount)
	require.Equal(t, "boom", *items[0].Error)
}

func TestEngine_DequeueOnEmptyQueue(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, ok, err := e.Dequeue(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}
