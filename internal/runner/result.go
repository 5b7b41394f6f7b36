// Package runner implements the Runner Driver (§4.F): it constructs the
// test command, executes it as a child process, and hands the captured
// output to the parser registry.
package runner

import (
	"time"

	"github.com/neonwatty/tfq/internal/parser"
)

// RunResult is the stable shape returned by a test run (§4.F, §6
// TestRunResult).
type RunResult struct {
	Success       bool
	ExitCode      int
	Stdout        string
	Stderr        string
	DurationMS    int64
	Language      parser.Language
	Framework     parser.Framework
	Command       string
	FailingTests  []string
	TotalFailures int
}

func newResult(language parser.Language, framework parser.Framework, command string, exitCode int, stdout, stderr string, dur time.Duration) RunResult {
	return RunResult{
		Success:    exitCode == 0,
		ExitCode:   exitCode,
		Stdout:     stdout,
		Stderr:     stderr,
		DurationMS: dur.Milliseconds(),
		Language:   language,
		Framework:  framework,
		Command:    command,
	}
}
