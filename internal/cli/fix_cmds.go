package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/neonwatty/tfq/internal/fixer"
	"github.com/neonwatty/tfq/internal/parser"
)

func newFixNextCommand(app *App) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "fix-next",
		Short: "Dequeue one test, invoke the external fixer, and verify it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				return runFixDryRun(app, cmd)
			}

			loop := app.newFixerLoop()
			result, err := loop.FixNext(cmd.Context())
			if err != nil {
				return reportErr(app, cmd, err)
			}
			return reportOK(app, cmd, result)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the fix request that would be built, without invoking the fixer (SUPPLEMENTED)")
	return cmd
}

func newFixAllCommand(app *App) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "fix-all",
		Short: "Drive the fixer loop until the queue empties or no progress is made",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				return runFixDryRun(app, cmd)
			}

			loop := app.newFixerLoop()
			results, err := loop.FixAll(cmd.Context())
			if err != nil {
				return reportErr(app, cmd, err)
			}
			return reportOK(app, cmd, results)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the fix request that would be built for the head item, without invoking the fixer (SUPPLEMENTED)")
	return cmd
}

// runFixDryRun peeks (without dequeuing) the head of the queue and
// prints the Request a real fix cycle would build, per SUPPLEMENTED
// FEATURES 1. It never invokes the external fixer or the runner.
func runFixDryRun(app *App, cmd *cobra.Command) error {
	item, found, err := app.engine.Peek(cmd.Context())
	if err != nil {
		return reportErr(app, cmd, err)
	}
	if !found {
		return reportEmpty(app, cmd, "queue is empty")
	}

	priorError := ""
	if item.Error != nil {
		priorError = *item.Error
	}
	contents, _ := os.ReadFile(item.FilePath)

	language := parser.Language(app.cfg.Language)
	framework := parser.Framework(app.cfg.Framework)
	req := fixer.BuildRequestPreview(item.FilePath, string(contents), priorError, language, framework)
	return reportOK(app, cmd, req)
}
