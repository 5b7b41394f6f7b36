package queue

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/neonwatty/tfq/internal/errs"
	"github.com/neonwatty/tfq/internal/store"
)

// Engine is the only mutator of the queue; every other component
// observes through it (§3 "Ownership").
type Engine struct {
	store *store.Store
	clock func() time.Time
}

// New builds an Engine over an already-opened Store.
func New(s *store.Store) *Engine {
	return &Engine{store: s, clock: func() time.Time { return time.Now().UTC() }}
}

const selectColumns = `id, file_path, priority, created_at, failure_count, last_failure, error, group_id, group_type, group_order`

const headOrder = `priority DESC, created_at ASC`

func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errs.Validation("path", "must not be empty")
	}
	return nil
}

// Enqueue inserts path, or upserts it per invariant 2 if it already
// exists.
func (e *Engine) Enqueue(ctx context.Context, path string, priority int, errMsg *string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	now := e.clock()

	return e.store.WithTx(ctx, func(tx *sql.Tx) error {
		var existingID int64
		var existingPriority, existingFailureCount int
		err := tx.QueryRowContext(ctx,
			`SELECT id, priority, failure_count FROM failed_tests WHERE file_path = ?`, path,
		).Scan(&existingID, &existingPriority, &existingFailureCount)

		switch {
		case err == sql.ErrNoRows:
			_, err := tx.ExecContext(ctx,
				`INSERT INTO failed_tests (file_path, priority, created_at, failure_count, last_failure, error)
				 VALUES (?, ?, ?, 1, ?, ?)`,
				path, priority, formatTime(now), formatTime(now), errMsg,
			)
			if err != nil {
				return errs.Store("enqueue", err)
			}
			return nil
		case err != nil:
			return errs.Store("enqueue lookup", err)
		default:
			newPriority := existingPriority
			if priority > newPriority {
				newPriority = priority
			}
			_, err := tx.ExecContext(ctx,
				`UPDATE failed_tests
				 SET priority = ?, failure_count = ?, last_failure = ?, error = ?
				 WHERE id = ?`,
				newPriority, existingFailureCount+1, formatTime(now), errMsg, existingID,
			)
			if err != nil {
				return errs.Store("re-enqueue", err)
			}
			return nil
		}
	})
}

// Requeue re-inserts path carrying an explicit failureCount, rather than
// incrementing from scratch the way Enqueue does on conflict. The Fixer
// Loop uses this after a failed verification run: the item was already
// dequeued (its row deleted), so a plain Enqueue would reset the retry
// counter to 1 and defeat persistent retry tracking (§4.G "derived from
// failureCount, not an in-memory counter").
func (e *Engine) Requeue(ctx context.Context, path string, priority, failureCount int, errMsg *string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	now := e.clock()

	return e.store.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO failed_tests (file_path, priority, created_at, failure_count, last_failure, error)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(file_path) DO UPDATE SET
			   priority = MAX(failed_tests.priority, excluded.priority),
			   failure_count = excluded.failure_count,
			   last_failure = excluded.last_failure,
			   error = excluded.error`,
			path, priority, formatTime(now), failureCount, formatTime(now), errMsg,
		)
		if err != nil {
			return errs.Store("requeue", err)
		}
		return nil
	})
}

// Dequeue atomically removes and returns the head path, or ("", false)
// if the queue is empty.
func (e *Engine) Dequeue(ctx context.Context) (string, bool, error) {
	item, ok, err := e.DequeueWithContext(ctx)
	if err != nil || !ok {
		return "", ok, err
	}
	return item.FilePath, true, nil
}

// DequeueWithContext is Dequeue but returns the full record.
func (e *Engine) DequeueWithContext(ctx context.Context) (*FailedTest, bool, error) {
	var result *FailedTest

	err := e.store.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+selectColumns+` FROM failed_tests ORDER BY `+headOrder+` LIMIT 1`,
		)
		item, err := scanOne(row)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return errs.Store("dequeue scan", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM failed_tests WHERE id = ?`, item.ID); err != nil {
			return errs.Store("dequeue delete", err)
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if result == nil {
		return nil, false, nil
	}
	return result, true, nil
}

// Peek is a non-destructive read of the head.
func (e *Engine) Peek(ctx context.Context) (*FailedTest, bool, error) {
	row := e.store.DB().QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM failed_tests ORDER BY `+headOrder+` LIMIT 1`,
	)
	item, err := scanOne(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.Store("peek", err)
	}
	return item, true, nil
}

// List returns a full snapshot in head-first order.
func (e *Engine) List(ctx context.Context) ([]*FailedTest, error) {
	rows, err := e.store.DB().QueryContext(ctx,
		`SELECT `+selectColumns+` FROM failed_tests ORDER BY `+headOrder,
	)
	if err != nil {
		return nil, errs.Store("list", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// Remove deletes path and reports whether a row was removed.
func (e *Engine) Remove(ctx context.Context, path string) (bool, error) {
	if err := validatePath(path); err != nil {
		return false, err
	}
	var removed bool
	err := e.store.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM failed_tests WHERE file_path = ?`, path)
		if err != nil {
			return errs.Store("remove", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errs.Store("remove", err)
		}
		removed = n > 0
		return nil
	})
	return removed, err
}

// Clear removes all rows; grouping columns go with them.
func (e *Engine) Clear(ctx context.Context) error {
	return e.store.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM failed_tests`); err != nil {
			return errs.Store("clear", err)
		}
		return nil
	})
}

// Size returns the number of rows currently persisted.
func (e *Engine) Size(ctx context.Context) (int, error) {
	var n int
	if err := e.store.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM failed_tests`).Scan(&n); err != nil {
		return 0, errs.Store("size", err)
	}
	return n, nil
}

// Contains reports whether path is currently queued.
func (e *Engine) Contains(ctx context.Context, path string) (bool, error) {
	if err := validatePath(path); err != nil {
		return false, err
	}
	var n int
	err := e.store.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM failed_tests WHERE file_path = ?`, path).Scan(&n)
	if err != nil {
		return false, errs.Store("contains", err)
	}
	return n > 0, nil
}

// Search performs a case-sensitive substring match on file_path,
// head-first.
func (e *Engine) Search(ctx context.Context, substring string) ([]*FailedTest, error) {
	items, err := e.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*FailedTest
	for _, it := range items {
		if strings.Contains(it.FilePath, substring) {
			out = append(out, it)
		}
	}
	return out, nil
}

// SearchGlob performs a glob match on file_path, head-first, using
// doublestar so "**" patterns work across path separators the way
// source-tree ignore files expect.
func (e *Engine) SearchGlob(ctx context.Context, pattern string) ([]*FailedTest, error) {
	items, err := e.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*FailedTest
	for _, it := range items {
		matched, err := doublestar.Match(pattern, it.FilePath)
		if err != nil {
			return nil, errs.Validation("pattern", "invalid glob %q: %v", pattern, err)
		}
		if matched {
			out = append(out, it)
		}
	}
	return out, nil
}

// GetStats computes aggregate statistics over the queue (§4.B).
func (e *Engine) GetStats(ctx context.Context) (Stats, error) {
	items, err := e.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{ItemsByPriority: map[int]int{}}
	if len(items) == 0 {
		return stats, nil
	}

	stats.Total = len(items)
	var failureSum int
	oldest, newest := items[0], items[0]
	for _, it := range items {
		failureSum += it.FailureCount
		stats.ItemsByPriority[it.Priority]++
		if it.CreatedAt.Before(oldest.CreatedAt) {
			oldest = it
		}
		if it.CreatedAt.After(newest.CreatedAt) {
			newest = it
		}
	}
	stats.AverageFailureCount = float64(failureSum) / float64(len(items))
	stats.Oldest = oldest
	stats.Newest = newest
	return stats, nil
}

// timeLayout keeps all nine fractional digits (RFC3339Nano drops trailing
// zeros), so the stored text sorts in the same order as the instants and
// "ORDER BY created_at" is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne(row rowScanner) (*FailedTest, error) {
	var (
		item            FailedTest
		createdAtStr    string
		lastFailureStr  string
		errMsg          sql.NullString
		groupID         sql.NullInt64
		groupTypeStr    sql.NullString
		groupOrder      sql.NullInt64
	)

	if err := row.Scan(
		&item.ID, &item.FilePath, &item.Priority, &createdAtStr, &item.FailureCount, &lastFailureStr,
		&errMsg, &groupID, &groupTypeStr, &groupOrder,
	); err != nil {
		return nil, err
	}

	createdAt, err := parseTime(createdAtStr)
	if err != nil {
		return nil, err
	}
	lastFailure, err := parseTime(lastFailureStr)
	if err != nil {
		return nil, err
	}
	item.CreatedAt = createdAt
	item.LastFailure = lastFailure

	if errMsg.Valid {
		v := errMsg.String
		item.Error = &v
	}
	if groupID.Valid {
		v := groupID.Int64
		item.GroupID = &v
	}
	if groupTypeStr.Valid {
		v := GroupType(groupTypeStr.String)
		item.GroupType = &v
	}
	if groupOrder.Valid {
		v := groupOrder.Int64
		item.GroupOrder = &v
	}

	return &item, nil
}

// ScanAllExported scans a *sql.Rows produced by a query against the same
// column order as selectColumns. It lets the grouping package reuse the
// queue package's row-to-FailedTest mapping for group-scoped queries.
func ScanAllExported(rows *sql.Rows) ([]*FailedTest, error) {
	return scanAll(rows)
}

func scanAll(rows *sql.Rows) ([]*FailedTest, error) {
	var out []*FailedTest
	for rows.Next() {
		item, err := scanOne(rows)
		if err != nil {
			return nil, errs.Store("scan", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("scan", err)
	}
	return out, nil
}
