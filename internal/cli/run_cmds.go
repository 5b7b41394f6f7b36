package cli

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/neonwatty/tfq/internal/jsonshape"
	"github.com/neonwatty/tfq/internal/parser"
	"github.com/neonwatty/tfq/internal/runner"
)

func newRunTestsCommand(app *App) *cobra.Command {
	var (
		language         string
		framework        string
		commandOverride  string
		verbose          bool
		timeoutMS        int
		allowUnsupported bool
		projectDir       string
	)
	cmd := &cobra.Command{
		Use:   "run-tests <path>",
		Short: "Run a test file (or suite) and parse its output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			lang := parser.Language(language)
			fw := parser.Framework(framework)
			if lang == "" {
				if detected, ok := app.detector.DetectLanguage(projectDirOrDefault(projectDir, path)); ok {
					lang = detected
				}
			}
			if fw == "" && lang != "" {
				if detected, ok := app.detector.DetectFramework(lang, projectDirOrDefault(projectDir, path)); ok {
					fw = detected
				}
			}

			var timeout time.Duration
			if timeoutMS > 0 {
				timeout = time.Duration(timeoutMS) * time.Millisecond
			}

			result, err := app.driver.Run(cmd.Context(), runner.Options{
				Language:         lang,
				Framework:        fw,
				Path:             path,
				CommandOverride:  commandOverride,
				TestCommands:     app.cfg.TestCommands,
				Verbose:          verbose,
				Timeout:          timeout,
				AllowUnsupported: allowUnsupported,
				ProjectDir:       projectDir,
			})
			if err != nil {
				return reportErr(app, cmd, err)
			}

			var autoAddedGroups int
			if app.cfg.Defaults.AutoAdd && len(result.FailingTests) > 0 {
				for _, f := range result.FailingTests {
					if err := app.engine.Enqueue(cmd.Context(), f, 0, nil); err != nil {
						return reportErr(app, cmd, err)
					}
				}
				if app.cfg.Defaults.Parallel > 0 {
					groups := chunkPaths(result.FailingTests, app.cfg.Defaults.Parallel)
					if _, err := app.planner.SetExecutionGroups(cmd.Context(), groups); err != nil {
						return reportErr(app, cmd, err)
					}
					autoAddedGroups = len(groups)
				}
			}

			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), jsonshape.FromRunResult(result))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "command: %s\nsuccess: %v\nexit code: %d\nfailing tests: %d\n",
				result.Command, result.Success, result.ExitCode, result.TotalFailures)
			for _, f := range result.FailingTests {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", f)
			}
			if app.cfg.Defaults.AutoAdd && len(result.FailingTests) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "auto-enqueued %d failing test(s)", len(result.FailingTests))
				if autoAddedGroups > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), " into %d group(s) of up to %d", autoAddedGroups, app.cfg.Defaults.Parallel)
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			if !result.Success {
				return fail(1, "tests failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "override detected language")
	cmd.Flags().StringVar(&framework, "framework", "", "override detected framework")
	cmd.Flags().StringVar(&commandOverride, "command", "", "explicit test command, takes precedence over config and adapter defaults")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "stream output live while still capturing it")
	cmd.Flags().IntVar(&timeoutMS, "timeout", 0, "run timeout in milliseconds, 0 for none")
	cmd.Flags().BoolVar(&allowUnsupported, "allow-unsupported", false, "bypass the unsupported-framework pre-flight gate")
	cmd.Flags().StringVar(&projectDir, "project-dir", "", "project root scanned for language/framework detection and the unsupported-framework gate")
	return cmd
}

func projectDirOrDefault(projectDir, path string) string {
	if projectDir != "" {
		return projectDir
	}
	return path
}

// chunkPaths splits paths into groups of at most size, preserving
// order, for defaults.parallel auto-grouping of freshly auto-added
// failures.
func chunkPaths(paths []string, size int) [][]string {
	var groups [][]string
	for len(paths) > 0 {
		n := size
		if n > len(paths) {
			n = len(paths)
		}
		groups = append(groups, paths[:n])
		paths = paths[n:]
	}
	return groups
}

func newLanguagesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and their frameworks",
		RunE: func(cmd *cobra.Command, args []string) error {
			languages := []parser.Language{
				parser.LanguageJavaScript, parser.LanguagePython,
				parser.LanguageRuby, parser.LanguageGo, parser.LanguageJava,
			}

			type row struct {
				Language   string   `json:"language"`
				Frameworks []string `json:"frameworks"`
			}
			var rows []row
			for _, lang := range languages {
				frameworks, _ := app.registry.GetFrameworksForLanguage(lang)
				var names []string
				for _, fw := range frameworks {
					names = append(names, string(fw))
				}
				rows = append(rows, row{Language: string(lang), Frameworks: names})
			}

			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			t := newTable(table.Row{"Language", "Frameworks"})
			for _, r := range rows {
				t.AppendRow(table.Row{r.Language, r.Frameworks})
			}
			t.Render()
			return nil
		},
	}
}
