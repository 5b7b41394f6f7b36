package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/neonwatty/tfq/internal/config"
)

// newResolveCommand exposes the workspace-aware path resolution added
// in SUPPLEMENTED FEATURES 3: given the current directory, report which
// database file a command run from here would use, so a monorepo's
// per-workspace db assignment is inspectable without running a mutating
// command first.
func newResolveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Show which database file applies to the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return reportErr(app, cmd, err)
			}
			dbPath := app.cfg.DatabasePath
			source := "default"
			if ws, ok := config.WorkspaceDBPath(app.cfg, cwd); ok {
				dbPath = ws
				source = "workspace"
			}
			return reportOK(app, cmd, map[string]any{"databasePath": dbPath, "source": source, "cwd": cwd})
		},
	}
}
