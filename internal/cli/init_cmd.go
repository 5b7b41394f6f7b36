package cli

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// onDiskInitConfig is the current-shape .tfqrc written by init; mirrors
// the nested database.path shape config.Load prefers (§6).
type onDiskInitConfig struct {
	Database struct {
		Path string `json:"path"`
	} `json:"database"`
	Language   string `json:"language,omitempty"`
	Framework  string `json:"framework,omitempty"`
	MaxRetries int    `json:"maxRetries"`
}

func newInitCommand(app *App) *cobra.Command {
	var language, framework string
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .tfqrc in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(".", ".tfqrc")
			if _, err := os.Stat(path); err == nil && !force {
				return reportErr(app, cmd, fail(1, "%s already exists, pass --force to overwrite", path))
			}

			out := onDiskInitConfig{Language: language, Framework: framework, MaxRetries: 3}
			out.Database.Path = "./.tfq/tfq.db"

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return reportErr(app, cmd, err)
			}
			if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
				return reportErr(app, cmd, err)
			}
			return reportOK(app, cmd, map[string]any{"wrote": path})
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "default language, e.g. javascript")
	cmd.Flags().StringVar(&framework, "framework", "", "default framework, e.g. jest")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing .tfqrc")
	return cmd
}
