package grouping

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neonwatty/tfq/internal/queue"
	"github.com/neonwatty/tfq/internal/store"
)

func newTestPlanner(t *testing.T) (*Planner, *queue.Engine) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "tfq.db")
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return New(s), queue.New(s)
}

// S3 — Atomic group dequeue.
func TestPlanner_AtomicGroupDequeue(t *testing.T) {
	ctx := context.Background()
	p, q := newTestPlanner(t)

	require.NoError(t, q.Enqueue(ctx, "/t1", 0, nil))
	require.NoError(t, q.Enqueue(ctx, "/t2", 0, nil))
	require.NoError(t, q.Enqueue(ctx, "/t3", 0, nil))

	skipped, err := p.SetExecutionGroups(ctx, [][]string{{"/t1", "/t2"}, {"/t3"}})
	require.NoError(t, err)
	require.Empty(t, skipped)

	first, ok, err := p.DequeueGroup(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"/t1", "/t2"}, first)

	remaining, err := q.List(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "/t3", remaining[0].FilePath)

	second, ok, err := p.DequeueGroup(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"/t3"}, second)

	_, ok, err = p.DequeueGroup(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPlanner_GroupTypeInference(t *testing.T) {
	ctx := context.Background()
	p, q := newTestPlanner(t)

	require.NoError(t, q.Enqueue(ctx, "/a", 0, nil))
	require.NoError(t, q.Enqueue(ctx, "/b", 0, nil))
	require.NoError(t, q.Enqueue(ctx, "/c", 0, nil))

	_, err := p.SetExecutionGroups(ctx, [][]string{{"/a", "/b"}, {"/c"}})
	require.NoError(t, err)

	plan, err := p.GetGroupingPlan(ctx)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	require.Equal(t, queue.GroupParallel, plan[0].GroupType)
	require.Equal(t, queue.GroupSequential, plan[1].GroupType)
}

func TestPlanner_SkipsPathsNotInQueue(t *testing.T) {
	ctx := context.Background()
	p, q := newTestPlanner(t)

	require.NoError(t, q.Enqueue(ctx, "/a", 0, nil))

	skipped, err := p.SetExecutionGroups(ctx, [][]string{{"/a", "/missing"}})
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	require.Equal(t, "/missing", skipped[0].Path)
}

func TestPlanner_GetGroupStats(t *testing.T) {
	ctx := context.Background()
	p, q := newTestPlanner(t)

	require.NoError(t, q.Enqueue(ctx, "/a", 0, nil))
	require.NoError(t, q.Enqueue(ctx, "/b", 0, nil))
	require.NoError(t, q.Enqueue(ctx, "/c", 0, nil))

	_, err := p.SetExecutionGroups(ctx, [][]string{{"/a", "/b"}, {"/c"}})
	require.NoError(t, err)

	stats, err := p.GetGroupStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Total)
	require.Equal(t, 1, stats.Parallel)
	require.Equal(t, 1, stats.Sequential)
}

func TestPlanner_ClearGroups(t *testing.T) {
	ctx := context.Background()
	p, q := newTestPlanner(t)

	require.NoError(t, q.Enqueue(ctx, "/a", 0, nil))
	_, err := p.SetExecutionGroups(ctx, [][]string{{"/a"}})
	require.NoError(t, err)

	require.NoError(t, p.ClearGroups(ctx))

	plan, err := p.GetGroupingPlan(ctx)
	require.NoError(t, err)
	require.Empty(t, plan)

	items, err := q.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestPlanner_AdvancedPlanExplicitOrder(t *testing.T) {
	ctx := context.Background()
	p, q := newTestPlanner(t)

	require.NoError(t, q.Enqueue(ctx, "/a", 0, nil))
	require.NoError(t, q.Enqueue(ctx, "/b", 0, nil))

	order1 := int64(20)
	order2 := int64(10)
	_, err := p.SetExecutionGroupsAdvanced(ctx, Plan{
		{GroupID: 5, GroupType: queue.GroupSequential, Order: &order1, Paths: []string{"/a"}},
		{GroupID: 9, GroupType: queue.GroupSequential, Order: &order2, Paths: []string{"/b"}},
	})
	require.NoError(t, err)

	plan, err := p.GetGroupingPlan(ctx)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	require.Equal(t, int64(9), plan[0].GroupID)
	require.Equal(t, int64(5), plan[1].GroupID)
}
