package cli

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/neonwatty/tfq/internal/grouping"
	"github.com/neonwatty/tfq/internal/jsonshape"
	"github.com/neonwatty/tfq/internal/queue"
)

// setGroupsPlanEntry is the on-disk shape accepted by --file, validated
// against groupingPlanSchema before conversion to grouping.Plan.
type setGroupsPlanEntry struct {
	GroupID   int64    `json:"groupId"`
	GroupType string   `json:"groupType"`
	Order     *int64   `json:"order,omitempty"`
	Paths     []string `json:"paths"`
}

func newSetGroupsCommand(app *App) *cobra.Command {
	var groupsArg string
	var file string
	cmd := &cobra.Command{
		Use:   "set-groups",
		Short: "Assign queued tests to execution groups",
		Long: "set-groups --groups '[[\"a_test.go\",\"b_test.go\"],[\"c_test.go\"]]' assigns simple " +
			"groups (more than one path per group is treated as parallel). " +
			"set-groups --file plan.json accepts the advanced GroupingPlan shape " +
			"with explicit groupId/groupType/order, validated against a JSON Schema. " +
			"The top-level --json flag still controls output formatting as usual.",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case file != "":
				return runSetGroupsFromFile(app, cmd, file)
			case groupsArg != "":
				return runSetGroupsSimple(app, cmd, groupsArg)
			default:
				return reportErr(app, cmd, fail(2, "one of --groups or --file is required"))
			}
		},
	}
	cmd.Flags().StringVar(&groupsArg, "groups", "", "JSON array of path groups, e.g. [[\"a\",\"b\"],[\"c\"]]")
	cmd.Flags().StringVar(&file, "file", "", "path to a GroupingPlan JSON file")
	return cmd
}

func runSetGroupsSimple(app *App, cmd *cobra.Command, raw string) error {
	var groups [][]string
	if err := json.Unmarshal([]byte(raw), &groups); err != nil {
		return reportErr(app, cmd, fail(2, "invalid --groups: %v", err))
	}
	skipped, err := app.planner.SetExecutionGroups(cmd.Context(), groups)
	if err != nil {
		return reportErr(app, cmd, err)
	}
	return reportOK(app, cmd, map[string]any{"assigned": len(groups), "skipped": skipped})
}

func runSetGroupsFromFile(app *App, cmd *cobra.Command, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return reportErr(app, cmd, fail(2, "read %s: %v", path, err))
	}
	if err := validateGroupingPlanJSON(raw); err != nil {
		return reportErr(app, cmd, fail(2, "%v", err))
	}

	var entries []setGroupsPlanEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return reportErr(app, cmd, fail(2, "%v", err))
	}

	plan := make(grouping.Plan, 0, len(entries))
	for _, e := range entries {
		plan = append(plan, grouping.PlanGroup{
			GroupID:   e.GroupID,
			GroupType: queue.GroupType(e.GroupType),
			Order:     e.Order,
			Paths:     e.Paths,
		})
	}

	skipped, err := app.planner.SetExecutionGroupsAdvanced(cmd.Context(), plan)
	if err != nil {
		return reportErr(app, cmd, err)
	}
	return reportOK(app, cmd, map[string]any{"assigned": len(plan), "skipped": skipped})
}

func newGetGroupsCommand(app *App) *cobra.Command {
	var dequeue bool
	var all bool
	cmd := &cobra.Command{
		Use:   "get-groups",
		Short: "Show (or dequeue) the lowest-numbered execution group",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				plan, err := app.planner.GetGroupingPlan(cmd.Context())
				if err != nil {
					return reportErr(app, cmd, err)
				}
				if app.JSON {
					return writeJSON(cmd.OutOrStdout(), jsonshape.FromPlan(plan))
				}
				t := newTable(table.Row{"Group", "Type", "Order", "Paths"})
				for _, g := range plan {
					order := "-"
					if g.Order != nil {
						order = strconv.FormatInt(*g.Order, 10)
					}
					t.AppendRow(table.Row{g.GroupID, string(g.GroupType), order, g.Paths})
				}
				t.Render()
				return nil
			}

			if dequeue {
				paths, found, err := app.planner.DequeueGroup(cmd.Context())
				if err != nil {
					return reportErr(app, cmd, err)
				}
				if !found {
					return reportEmpty(app, cmd, "no groups queued")
				}
				return reportOK(app, cmd, map[string]any{"paths": paths})
			}

			items, found, err := app.planner.PeekGroup(cmd.Context())
			if err != nil {
				return reportErr(app, cmd, err)
			}
			if !found {
				return reportEmpty(app, cmd, "no groups queued")
			}
			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), jsonshape.FromFailedTests(items))
			}
			t := newTable(table.Row{"Group", "Order", "Path"})
			for _, it := range items {
				order := "-"
				if it.GroupOrder != nil {
					order = strconv.FormatInt(*it.GroupOrder, 10)
				}
				t.AppendRow(table.Row{*it.GroupID, order, it.FilePath})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&dequeue, "dequeue", false, "remove the group from the queue instead of peeking")
	cmd.Flags().BoolVar(&all, "all", false, "show the full grouping plan across every group instead of just the head")
	return cmd
}

func newGroupStatsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "group-stats",
		Short: "Print the number of parallel/sequential groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := app.planner.GetGroupStats(cmd.Context())
			if err != nil {
				return reportErr(app, cmd, err)
			}
			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), jsonshape.FromGroupStats(stats))
			}
			t := newTable(table.Row{"Total", "Parallel", "Sequential"})
			t.AppendRow(table.Row{stats.Total, stats.Parallel, stats.Sequential})
			t.Render()
			return nil
		},
	}
}

func newClearGroupsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-groups",
		Short: "Reset every group assignment without removing queued tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.planner.ClearGroups(cmd.Context()); err != nil {
				return reportErr(app, cmd, err)
			}
			return reportOK(app, cmd, map[string]any{"cleared": true})
		},
	}
}
