package cli

import (
	"github.com/spf13/cobra"

	"github.com/neonwatty/tfq/internal/logger"
)

// version is set at build time via ldflags, matching the teacher's
// cmd/main.go convention.
var version = "0.0.0"

// NewRootCommand builds the "tfq" root command and registers every
// subcommand (§6). Persistent flags mirror the teacher's configFlag /
// commandLineFlag pattern: --config selects the .tfqrc file, --json
// switches every command's output to the stable envelope, --debug
// raises the logger to debug level.
func NewRootCommand() *cobra.Command {
	app := &App{}

	root := &cobra.Command{
		Use:           "tfq",
		Short:         "A persistent, priority-ordered queue for failed test files",
		Long:          "tfq [command] [flags]\n\nTracks failing test files across CI and local runs, groups related failures for efficient re-execution, and drives an external fix-and-verify loop.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.load(); err != nil {
				return err
			}
			cmd.SetContext(logger.WithContext(cmd.Context(), app.log))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	root.PersistentFlags().StringVarP(&app.ConfigPath, "config", "c", "", "config file (default is ./.tfqrc, then $HOME/.tfqrc)")
	root.PersistentFlags().BoolVar(&app.JSON, "json", false, "emit machine-readable JSON instead of tables/text")
	root.PersistentFlags().BoolVar(&app.Debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newInitCommand(app),
		newAddCommand(app),
		newNextCommand(app),
		newPeekCommand(app),
		newListCommand(app),
		newRemoveCommand(app),
		newClearCommand(app),
		newStatsCommand(app),
		newSearchCommand(app),
		newCountCommand(app),
		newContainsCommand(app),
		newResolveCommand(app),
		newSetGroupsCommand(app),
		newGetGroupsCommand(app),
		newGroupStatsCommand(app),
		newClearGroupsCommand(app),
		newRunTestsCommand(app),
		newLanguagesCommand(app),
		newFixNextCommand(app),
		newFixAllCommand(app),
		newExportCommand(app),
		newImportCommand(app),
		newVersionCommand(),
	)

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tfq version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(version)
			return nil
		},
	}
}

// Execute runs the root command and returns the process exit code,
// following the exit code conventions of §6: 0 success, 1 error or an
// empty queue on next/peek, and whatever a cliError names otherwise.
func Execute() int {
	root := NewRootCommand()
	err := root.Execute()
	return exitCode(err)
}
