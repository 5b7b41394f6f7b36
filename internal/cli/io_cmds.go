package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/neonwatty/tfq/internal/jsonshape"
)

func newExportCommand(app *App) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the full queue as JSON (SUPPLEMENTED)",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := app.engine.List(cmd.Context())
			if err != nil {
				return reportErr(app, cmd, err)
			}
			shaped := jsonshape.FromFailedTests(items)

			data, err := json.MarshalIndent(shaped, "", "  ")
			if err != nil {
				return reportErr(app, cmd, err)
			}

			if outPath == "" {
				return reportOK(app, cmd, shaped)
			}
			if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
				return reportErr(app, cmd, err)
			}
			return reportOK(app, cmd, map[string]any{"wrote": outPath, "count": len(shaped)})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

func newImportCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a queue previously written by export (SUPPLEMENTED)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return reportErr(app, cmd, err)
			}

			var items []jsonshape.QueueItem
			if err := json.Unmarshal(data, &items); err != nil {
				return reportErr(app, cmd, fail(2, "invalid export file: %v", err))
			}

			imported := 0
			for _, item := range items {
				if err := app.engine.Requeue(cmd.Context(), item.FilePath, item.Priority, item.FailureCount, item.Error); err != nil {
					return reportErr(app, cmd, err)
				}
				imported++
			}
			return reportOK(app, cmd, map[string]any{"imported": imported})
		},
	}
	return cmd
}
