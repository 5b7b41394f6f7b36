package runner

import (
	"context"
	"os"
	"time"

	"github.com/neonwatty/tfq/internal/detect"
	"github.com/neonwatty/tfq/internal/errs"
	"github.com/neonwatty/tfq/internal/logger"
	"github.com/neonwatty/tfq/internal/parser"
)

// Exit codes mirror the shell convention so a RunError's ExitCode is
// meaningful to callers that only inspect the number.
const (
	spawnFailureExitCode     = 127
	permissionDeniedExitCode = 126
	timeoutExitCode          = 124
)

// Driver is the Runner Driver (§4.F).
type Driver struct {
	registry *parser.Registry
	detector *detect.Detector
}

// New builds a Driver over a parser Registry and its Detector facade.
func New(registry *parser.Registry) *Driver {
	return &Driver{registry: registry, detector: detect.New(registry)}
}

// Options configures a single Run.
type Options struct {
	Language  parser.Language
	Framework parser.Framework
	Path      string

	// CommandOverride, if non-empty, takes precedence over config and
	// adapter defaults (§4.F command precedence).
	CommandOverride string
	TestCommands    map[string]string

	// Verbose streams the child's output to the driver's own stdout and
	// stderr while still capturing it for parsing.
	Verbose bool

	// Timeout bounds the run; zero means no timeout.
	Timeout time.Duration

	// AllowUnsupported bypasses the pre-flight unsupported-framework
	// gate (§4.D, §8 scenario S5).
	AllowUnsupported bool

	// ProjectDir is scanned by the unsupported-framework gate. Empty
	// skips the scan (used when Path already names a single file and no
	// project root is known).
	ProjectDir string
}

// Run constructs the test command, executes it, and parses its output
// (§4.F). A non-zero exit is not itself an error: it is reported via
// RunResult.Success. Spawn failure or an I/O error surfaces as a
// *errs.RunError.
func (d *Driver) Run(ctx context.Context, opts Options) (RunResult, error) {
	if opts.ProjectDir != "" {
		if err := detect.Guard(opts.ProjectDir, opts.AllowUnsupported); err != nil {
			return RunResult{}, err
		}
	}

	command, err := resolveCommand(d.registry, opts.Language, opts.Framework, opts.Path, opts.CommandOverride, opts.TestCommands)
	if err != nil {
		return RunResult{}, errs.Validation("command", "%v", err)
	}

	argv, err := splitCommand(command)
	if err != nil {
		return RunResult{}, &errs.RunError{Command: command, ExitCode: spawnFailureExitCode, Err: err}
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	outcome, err := execute(runCtx, argv, opts.Verbose)
	duration := time.Since(start)
	if err != nil {
		exitCode := spawnFailureExitCode
		if os.IsPermission(err) {
			exitCode = permissionDeniedExitCode
		}
		return RunResult{}, &errs.RunError{Command: command, ExitCode: exitCode, Err: err}
	}
	if outcome.TimedOut {
		return RunResult{}, &errs.RunError{Command: command, ExitCode: timeoutExitCode, Stderr: outcome.Stderr, Err: context.DeadlineExceeded}
	}

	result := newResult(opts.Language, opts.Framework, command, outcome.ExitCode, outcome.Stdout, outcome.Stderr, duration)

	parsed, parseErr := d.registry.ParseTestOutput(opts.Language, opts.Framework, outcome.Stdout+outcome.Stderr)
	if parseErr != nil {
		logger.Debug(ctx, "runner: parse failed, treating as no failures extracted", "error", parseErr)
		return result, nil
	}
	result.FailingTests = parsed.FailingTests
	result.TotalFailures = len(parsed.FailingTests)
	return result, nil
}
