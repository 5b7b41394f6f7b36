// Package grouping assigns queued tests to ordered execution groups and
// dequeues whole groups atomically (§4.C).
package grouping

import (
	"context"
	"database/sql"
	"sort"

	"github.com/neonwatty/tfq/internal/errs"
	"github.com/neonwatty/tfq/internal/queue"
	"github.com/neonwatty/tfq/internal/store"
)

// PlanGroup is one group within a GroupingPlan.
type PlanGroup struct {
	GroupID   int64
	GroupType queue.GroupType
	Order     *int64
	Paths     []string
}

// Plan is the full grouping assignment, as returned by GetGroupingPlan.
type Plan []PlanGroup

// Planner is the Grouping Planner component (§4.C).
type Planner struct {
	store *store.Store
}

// New builds a Planner over an already-opened Store.
func New(s *store.Store) *Planner {
	return &Planner{store: s}
}

// SetExecutionGroups assigns groups[i] to groupId i+1, typed parallel
// when it has more than one test, else sequential. Paths absent from
// the queue are silently skipped and returned for the caller to report.
// Prior groupings of unrelated rows are left untouched.
func (p *Planner) SetExecutionGroups(ctx context.Context, groups [][]string) ([]errs.GroupingSkip, error) {
	plan := make(Plan, 0, len(groups))
	for i, paths := range groups {
		groupType := queue.GroupSequential
		if len(paths) > 1 {
			groupType = queue.GroupParallel
		}
		plan = append(plan, PlanGroup{
			GroupID:   int64(i + 1),
			GroupType: groupType,
			Paths:     paths,
		})
	}
	return p.apply(ctx, plan)
}

// SetExecutionGroupsAdvanced is SetExecutionGroups but the caller
// supplies explicit group IDs, types, and an optional overall order
// used only by GetGroupingPlan's reconstruction (dequeueGroup always
// picks the lowest extant groupId, per §4.C).
func (p *Planner) SetExecutionGroupsAdvanced(ctx context.Context, plan Plan) ([]errs.GroupingSkip, error) {
	return p.apply(ctx, plan)
}

func (p *Planner) apply(ctx context.Context, plan Plan) ([]errs.GroupingSkip, error) {
	var skipped []errs.GroupingSkip

	err := p.store.WithTx(ctx, func(tx *sql.Tx) error {
		for _, group := range plan {
			for order, path := range group.Paths {
				res, err := tx.ExecContext(ctx,
					`UPDATE failed_tests SET group_id = ?, group_type = ?, group_order = ? WHERE file_path = ?`,
					group.GroupID, string(group.GroupType), order, path,
				)
				if err != nil {
					return errs.Store("assign group", err)
				}
				n, err := res.RowsAffected()
				if err != nil {
					return errs.Store("assign group", err)
				}
				if n == 0 {
					skipped = append(skipped, errs.GroupingSkip{Path: path, Reason: "not present in queue"})
				}
			}

			if group.Order != nil {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO group_plan_order (group_id, overall_order) VALUES (?, ?)
					 ON CONFLICT(group_id) DO UPDATE SET overall_order = excluded.overall_order`,
					group.GroupID, *group.Order,
				); err != nil {
					return errs.Store("assign group order", err)
				}
			} else {
				if _, err := tx.ExecContext(ctx, `DELETE FROM group_plan_order WHERE group_id = ?`, group.GroupID); err != nil {
					return errs.Store("clear group order", err)
				}
			}
		}
		return nil
	})

	return skipped, err
}

// PeekGroup returns the tests of the lowest extant groupId, ordered by
// groupOrder then createdAt, without removing them.
func (p *Planner) PeekGroup(ctx context.Context) ([]*queue.FailedTest, bool, error) {
	groupID, ok, err := p.lowestGroupID(ctx, p.store.DB())
	if err != nil || !ok {
		return nil, false, err
	}
	items, err := p.groupItems(ctx, p.store.DB(), groupID)
	if err != nil {
		return nil, false, err
	}
	return items, true, nil
}

// DequeueGroup atomically selects the lowest extant groupId, deletes
// its rows, and returns the paths in group order.
func (p *Planner) DequeueGroup(ctx context.Context) ([]string, bool, error) {
	var paths []string
	found := false

	err := p.store.WithTx(ctx, func(tx *sql.Tx) error {
		groupID, ok, err := p.lowestGroupID(ctx, tx)
		if err != nil || !ok {
			return err
		}

		items, err := p.groupItems(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM failed_tests WHERE group_id = ?`, groupID); err != nil {
			return errs.Store("dequeue group", err)
		}

		for _, it := range items {
			paths = append(paths, it.FilePath)
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return paths, found, nil
}

// ClearGroups resets the grouping columns on every row without
// removing any rows.
func (p *Planner) ClearGroups(ctx context.Context) error {
	return p.store.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE failed_tests SET group_id = NULL, group_type = NULL, group_order = NULL`)
		if err != nil {
			return errs.Store("clear groups", err)
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM group_plan_order`)
		if err != nil {
			return errs.Store("clear group order", err)
		}
		return nil
	})
}

// GetGroupStats counts distinct groupIds by type.
func (p *Planner) GetGroupStats(ctx context.Context) (queue.GroupStats, error) {
	rows, err := p.store.DB().QueryContext(ctx,
		`SELECT group_id, group_type FROM failed_tests WHERE group_id IS NOT NULL GROUP BY group_id`,
	)
	if err != nil {
		return queue.GroupStats{}, errs.Store("group stats", err)
	}
	defer rows.Close()

	var stats queue.GroupStats
	for rows.Next() {
		var groupID int64
		var groupType string
		if err := rows.Scan(&groupID, &groupType); err != nil {
			return queue.GroupStats{}, errs.Store("group stats", err)
		}
		stats.Total++
		switch queue.GroupType(groupType) {
		case queue.GroupParallel:
			stats.Parallel++
		case queue.GroupSequential:
			stats.Sequential++
		}
	}
	if err := rows.Err(); err != nil {
		return queue.GroupStats{}, errs.Store("group stats", err)
	}
	return stats, nil
}

// GetGroupingPlan reconstructs the full plan, sorted by explicit order
// where present and by groupId otherwise.
func (p *Planner) GetGroupingPlan(ctx context.Context) (Plan, error) {
	rows, err := p.store.DB().QueryContext(ctx,
		`SELECT group_id, group_type, file_path FROM failed_tests
		 WHERE group_id IS NOT NULL ORDER BY group_id, group_order, created_at`,
	)
	if err != nil {
		return nil, errs.Store("grouping plan", err)
	}
	defer rows.Close()

	byID := map[int64]*PlanGroup{}
	var order []int64
	for rows.Next() {
		var groupID int64
		var groupType, path string
		if err := rows.Scan(&groupID, &groupType, &path); err != nil {
			return nil, errs.Store("grouping plan", err)
		}
		g, ok := byID[groupID]
		if !ok {
			g = &PlanGroup{GroupID: groupID, GroupType: queue.GroupType(groupType)}
			byID[groupID] = g
			order = append(order, groupID)
		}
		g.Paths = append(g.Paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("grouping plan", err)
	}

	overall, err := p.overallOrders(ctx)
	if err != nil {
		return nil, err
	}
	for groupID, ord := range overall {
		if g, ok := byID[groupID]; ok {
			v := ord
			g.Order = &v
		}
	}

	plan := make(Plan, 0, len(order))
	for _, groupID := range order {
		plan = append(plan, *byID[groupID])
	}

	sort.SliceStable(plan, func(i, j int) bool {
		return sortKey(plan[i]) < sortKey(plan[j])
	})

	return plan, nil
}

func sortKey(g PlanGroup) int64 {
	if g.Order != nil {
		return *g.Order
	}
	return g.GroupID
}

func (p *Planner) overallOrders(ctx context.Context) (map[int64]int64, error) {
	rows, err := p.store.DB().QueryContext(ctx, `SELECT group_id, overall_order FROM group_plan_order`)
	if err != nil {
		return nil, errs.Store("group order lookup", err)
	}
	defer rows.Close()

	out := map[int64]int64{}
	for rows.Next() {
		var groupID, order int64
		if err := rows.Scan(&groupID, &order); err != nil {
			return nil, errs.Store("group order lookup", err)
		}
		out[groupID] = order
	}
	return out, rows.Err()
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (p *Planner) lowestGroupID(ctx context.Context, q querier) (int64, bool, error) {
	rows, err := q.QueryContext(ctx, `SELECT MIN(group_id) FROM failed_tests WHERE group_id IS NOT NULL`)
	if err != nil {
		return 0, false, errs.Store("lowest group", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return 0, false, nil
	}
	var groupID sql.NullInt64
	if err := rows.Scan(&groupID); err != nil {
		return 0, false, errs.Store("lowest group", err)
	}
	if err := rows.Err(); err != nil {
		return 0, false, errs.Store("lowest group", err)
	}
	if !groupID.Valid {
		return 0, false, nil
	}
	return groupID.Int64, true, nil
}

func (p *Planner) groupItems(ctx context.Context, q querier, groupID int64) ([]*queue.FailedTest, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, file_path, priority, created_at, failure_count, last_failure, error, group_id, group_type, group_order
		 FROM failed_tests WHERE group_id = ? ORDER BY group_order ASC, created_at ASC`,
		groupID,
	)
	if err != nil {
		return nil, errs.Store("group items", err)
	}
	defer rows.Close()

	return queue.ScanAllExported(rows)
}
