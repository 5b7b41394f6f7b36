// Package jsonshape defines the stable JSON shapes the CLI emits (§6):
// QueueItem, Stats, GroupingPlan, and TestRunResult. Dates are ISO-8601
// strings and itemsByPriority serializes as an object keyed by the
// numeric priority as a string, which encoding/json already does for any
// map with an integer key type.
package jsonshape

import (
	"time"

	"github.com/neonwatty/tfq/internal/grouping"
	"github.com/neonwatty/tfq/internal/queue"
	"github.com/neonwatty/tfq/internal/runner"
)

// QueueItem is one FailedTest row (§3).
type QueueItem struct {
	ID           int64   `json:"id"`
	FilePath     string  `json:"filePath"`
	Priority     int     `json:"priority"`
	CreatedAt    string  `json:"createdAt"`
	FailureCount int     `json:"failureCount"`
	LastFailure  string  `json:"lastFailure"`
	Error        *string `json:"error,omitempty"`
	GroupID      *int64  `json:"groupId,omitempty"`
	GroupType    *string `json:"groupType,omitempty"`
	GroupOrder   *int64  `json:"groupOrder,omitempty"`
}

// FromFailedTest converts a queue.FailedTest into its stable JSON shape.
func FromFailedTest(item *queue.FailedTest) QueueItem {
	q := QueueItem{
		ID:           item.ID,
		FilePath:     item.FilePath,
		Priority:     item.Priority,
		CreatedAt:    isoDate(item.CreatedAt),
		FailureCount: item.FailureCount,
		LastFailure:  isoDate(item.LastFailure),
		Error:        item.Error,
		GroupID:      item.GroupID,
		GroupOrder:   item.GroupOrder,
	}
	if item.GroupType != nil {
		s := string(*item.GroupType)
		q.GroupType = &s
	}
	return q
}

// FromFailedTests converts a slice, always returning a non-nil (possibly
// empty) slice so it serializes as `[]` rather than `null`.
func FromFailedTests(items []*queue.FailedTest) []QueueItem {
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromFailedTest(item))
	}
	return out
}

// Stats is the queue-wide summary (§4.B getStats).
type Stats struct {
	Total               int         `json:"total"`
	AverageFailureCount float64     `json:"averageFailureCount"`
	Oldest              *QueueItem  `json:"oldest,omitempty"`
	Newest              *QueueItem  `json:"newest,omitempty"`
	ItemsByPriority     map[int]int `json:"itemsByPriority"`
}

// FromStats converts a queue.Stats into its stable JSON shape.
func FromStats(stats queue.Stats) Stats {
	s := Stats{
		Total:               stats.Total,
		AverageFailureCount: stats.AverageFailureCount,
		ItemsByPriority:     stats.ItemsByPriority,
	}
	if s.ItemsByPriority == nil {
		s.ItemsByPriority = map[int]int{}
	}
	if stats.Oldest != nil {
		v := FromFailedTest(stats.Oldest)
		s.Oldest = &v
	}
	if stats.Newest != nil {
		v := FromFailedTest(stats.Newest)
		s.Newest = &v
	}
	return s
}

// GroupStats is the grouping-wide summary (§4.C getGroupStats).
type GroupStats struct {
	Total      int `json:"total"`
	Parallel   int `json:"parallel"`
	Sequential int `json:"sequential"`
}

// FromGroupStats converts a queue.GroupStats into its stable JSON shape.
func FromGroupStats(stats queue.GroupStats) GroupStats {
	return GroupStats{Total: stats.Total, Parallel: stats.Parallel, Sequential: stats.Sequential}
}

// PlanGroup is one group within a GroupingPlan.
type PlanGroup struct {
	GroupID   int64    `json:"groupId"`
	GroupType string   `json:"groupType"`
	Order     *int64   `json:"order,omitempty"`
	Paths     []string `json:"paths"`
}

// GroupingPlan is the full grouping assignment (§4.C getGroupingPlan).
type GroupingPlan []PlanGroup

// FromPlan converts a grouping.Plan into its stable JSON shape.
func FromPlan(plan grouping.Plan) GroupingPlan {
	out := make(GroupingPlan, 0, len(plan))
	for _, g := range plan {
		paths := g.Paths
		if paths == nil {
			paths = []string{}
		}
		out = append(out, PlanGroup{
			GroupID:   g.GroupID,
			GroupType: string(g.GroupType),
			Order:     g.Order,
			Paths:     paths,
		})
	}
	return out
}

// TestRunResult is the Runner Driver's stable JSON shape (§4.F, §6).
type TestRunResult struct {
	Success       bool     `json:"success"`
	ExitCode      int      `json:"exitCode"`
	Stdout        string   `json:"stdout"`
	Stderr        string   `json:"stderr"`
	DurationMS    int64    `json:"durationMs"`
	Language      string   `json:"language"`
	Framework     string   `json:"framework"`
	Command       string   `json:"command"`
	FailingTests  []string `json:"failingTests"`
	TotalFailures int      `json:"totalFailures"`
}

// FromRunResult converts a runner.RunResult into its stable JSON shape.
func FromRunResult(result runner.RunResult) TestRunResult {
	failing := result.FailingTests
	if failing == nil {
		failing = []string{}
	}
	return TestRunResult{
		Success:       result.Success,
		ExitCode:      result.ExitCode,
		Stdout:        result.Stdout,
		Stderr:        result.Stderr,
		DurationMS:    result.DurationMS,
		Language:      string(result.Language),
		Framework:     string(result.Framework),
		Command:       result.Command,
		FailingTests:  failing,
		TotalFailures: result.TotalFailures,
	}
}

// isoDate renders t as an ISO-8601 / RFC3339 string in UTC.
func isoDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
