package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/neonwatty/tfq/internal/jsonshape"
)

func newAddCommand(app *App) *cobra.Command {
	var priority int
	var errMsg string
	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Enqueue a failed test file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errPtr *string
			if errMsg != "" {
				errPtr = &errMsg
			}
			if err := app.engine.Enqueue(cmd.Context(), args[0], priority, errPtr); err != nil {
				return reportErr(app, cmd, err)
			}
			return reportOK(app, cmd, map[string]any{"path": args[0], "priority": priority})
		},
	}
	cmd.Flags().IntVarP(&priority, "priority", "p", 0, "priority, higher dequeues first")
	cmd.Flags().StringVarP(&errMsg, "error", "e", "", "error message associated with the failure")
	return cmd
}

func newNextCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Dequeue and print the highest-priority test",
		RunE: func(cmd *cobra.Command, args []string) error {
			item, found, err := app.engine.DequeueWithContext(cmd.Context())
			if err != nil {
				return reportErr(app, cmd, err)
			}
			if !found {
				return reportEmpty(app, cmd, "queue is empty")
			}
			return reportOK(app, cmd, jsonshape.FromFailedTest(item))
		},
	}
}

func newPeekCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "peek",
		Short: "Show the highest-priority test without removing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			item, found, err := app.engine.Peek(cmd.Context())
			if err != nil {
				return reportErr(app, cmd, err)
			}
			if !found {
				return reportEmpty(app, cmd, "queue is empty")
			}
			return reportOK(app, cmd, jsonshape.FromFailedTest(item))
		},
	}
}

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every queued test, head-first",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := app.engine.List(cmd.Context())
			if err != nil {
				return reportErr(app, cmd, err)
			}
			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), jsonshape.FromFailedTests(items))
			}
			t := newTable(table.Row{"Priority", "Path", "Failures", "Last Failure", "Group"})
			for _, it := range items {
				group := "-"
				if it.GroupID != nil {
					group = fmt.Sprintf("%d", *it.GroupID)
				}
				t.AppendRow(table.Row{it.Priority, it.FilePath, it.FailureCount, it.LastFailure.Format("2006-01-02T15:04:05Z"), group})
			}
			t.Render()
			return nil
		},
	}
}

func newRemoveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <path>",
		Short: "Remove a specific test from the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := app.engine.Remove(cmd.Context(), args[0])
			if err != nil {
				return reportErr(app, cmd, err)
			}
			if !removed {
				return reportErr(app, cmd, fail(1, "not found: %s", args[0]))
			}
			return reportOK(app, cmd, map[string]any{"removed": args[0]})
		},
	}
}

func newClearCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every queued test",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.engine.Clear(cmd.Context()); err != nil {
				return reportErr(app, cmd, err)
			}
			return reportOK(app, cmd, map[string]any{"cleared": true})
		},
	}
}

func newStatsCommand(app *App) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print aggregate queue statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := app.engine.GetStats(cmd.Context())
			if err != nil {
				return reportErr(app, cmd, err)
			}

			var groupStats *jsonshape.GroupStats
			if verbose {
				gs, err := app.planner.GetGroupStats(cmd.Context())
				if err != nil {
					return reportErr(app, cmd, err)
				}
				converted := jsonshape.FromGroupStats(gs)
				groupStats = &converted
			}

			if app.JSON {
				payload := map[string]any{"stats": jsonshape.FromStats(stats)}
				if groupStats != nil {
					payload["groups"] = groupStats
				}
				return writeJSON(cmd.OutOrStdout(), payload)
			}

			t := newTable(table.Row{"Metric", "Value"})
			t.AppendRow(table.Row{"Total", stats.Total})
			t.AppendRow(table.Row{"Average failures", fmt.Sprintf("%.2f", stats.AverageFailureCount)})
			if stats.Oldest != nil {
				t.AppendRow(table.Row{"Oldest", stats.Oldest.FilePath})
			}
			if stats.Newest != nil {
				t.AppendRow(table.Row{"Newest", stats.Newest.FilePath})
			}
			t.Render()
			if groupStats != nil {
				gt := newTable(table.Row{"Groups", "Parallel", "Sequential"})
				gt.AppendRow(table.Row{groupStats.Total, groupStats.Parallel, groupStats.Sequential})
				gt.Render()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&verbose, "verbose", false, "include per-group breakdown (SUPPLEMENTED)")
	return cmd
}

func newSearchCommand(app *App) *cobra.Command {
	var glob bool
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Find queued tests matching a substring or glob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var items, err = app.engine.Search(cmd.Context(), args[0])
			if glob {
				items, err = app.engine.SearchGlob(cmd.Context(), args[0])
			}
			if err != nil {
				return reportErr(app, cmd, err)
			}
			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), jsonshape.FromFailedTests(items))
			}
			t := newTable(table.Row{"Priority", "Path"})
			for _, it := range items {
				t.AppendRow(table.Row{it.Priority, it.FilePath})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&glob, "glob", false, "treat <term> as a doublestar glob instead of a substring")
	return cmd
}

func newCountCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of queued tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := app.engine.Size(cmd.Context())
			if err != nil {
				return reportErr(app, cmd, err)
			}
			return reportOK(app, cmd, map[string]any{"count": n})
		},
	}
}

func newContainsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "contains <path>",
		Short: "Report whether a test is currently queued",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := app.engine.Contains(cmd.Context(), args[0])
			if err != nil {
				return reportErr(app, cmd, err)
			}
			return reportOK(app, cmd, map[string]any{"contains": ok})
		},
	}
}
