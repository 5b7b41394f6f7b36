// Package fixer implements the Fixer Loop (§4.G): a single "fix one
// test" cycle (FixNext) and the bulk cycle that drives it to completion
// (FixAll).
package fixer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/neonwatty/tfq/internal/config"
	"github.com/neonwatty/tfq/internal/logger"
	"github.com/neonwatty/tfq/internal/parser"
	"github.com/neonwatty/tfq/internal/queue"
	"github.com/neonwatty/tfq/internal/runner"
)

// StepResult is the outcome of one FixNext call.
type StepResult struct {
	TestFound          bool
	Path               string
	Success            bool
	Requeued           bool
	MaxRetriesExceeded bool
}

// Loop coordinates the queue engine, the runner driver, and an external
// Fixer across the dequeue → fix → verify → re-enqueue cycle.
type Loop struct {
	engine     *queue.Engine
	driver     *runner.Driver
	fixer      Fixer
	cfg        config.FixerConfig
	maxRetries int

	Language   parser.Language
	Framework  parser.Framework
	ProjectDir string

	// CommandOverride and TestCommands are forwarded to the Runner
	// Driver's verification re-run (§4.F command precedence).
	CommandOverride string
	TestCommands    map[string]string
}

// NewLoop builds a Loop. maxRetries bounds per-file retries (config
// maxRetries, §6); cfg configures the per-step timeout and iteration
// bound for FixAll.
func NewLoop(engine *queue.Engine, driver *runner.Driver, f Fixer, cfg config.FixerConfig, maxRetries int) *Loop {
	return &Loop{engine: engine, driver: driver, fixer: f, cfg: cfg, maxRetries: maxRetries}
}

// FixNext runs one cycle (§4.G steps 1-7).
func (l *Loop) FixNext(ctx context.Context) (StepResult, error) {
	item, found, err := l.engine.DequeueWithContext(ctx)
	if err != nil {
		return StepResult{}, err
	}
	if !found {
		return StepResult{TestFound: false}, nil
	}

	priorError := ""
	if item.Error != nil {
		priorError = *item.Error
	}

	contents, readErr := os.ReadFile(item.FilePath)
	if readErr != nil {
		logger.Debug(ctx, "fixer: could not read test file contents", "path", item.FilePath, "error", readErr)
	}

	req := buildRequest(item.FilePath, string(contents), priorError, l.Language, l.Framework)

	if _, fixErr := l.fixer.Fix(ctx, req); fixErr != nil {
		logger.Debug(ctx, "fixer: external fixer invocation did not succeed", "path", item.FilePath, "error", fixErr)
	}

	verifyTimeout := timeoutFromMillis(l.cfg.TestTimeout)
	result, runErr := l.driver.Run(ctx, runner.Options{
		Language:        l.Language,
		Framework:       l.Framework,
		Path:            item.FilePath,
		Timeout:         verifyTimeout,
		ProjectDir:      l.ProjectDir,
		CommandOverride: l.CommandOverride,
		TestCommands:    l.TestCommands,
	})

	verificationError := ""
	passed := runErr == nil && result.Success
	switch {
	case runErr != nil:
		verificationError = runErr.Error()
	case !result.Success:
		verificationError = fmt.Sprintf("exit %d", result.ExitCode)
	}

	if passed {
		return StepResult{TestFound: true, Path: item.FilePath, Success: true}, nil
	}

	nextFailureCount := item.FailureCount + 1
	if item.FailureCount < l.maxRetries {
		combined := fmt.Sprintf("Previous attempt: %s; Verification failed: %s", priorError, verificationError)
		if err := l.engine.Requeue(ctx, item.FilePath, item.Priority, nextFailureCount, &combined); err != nil {
			return StepResult{}, err
		}
		return StepResult{TestFound: true, Path: item.FilePath, Requeued: true}, nil
	}

	return StepResult{TestFound: true, Path: item.FilePath, MaxRetriesExceeded: true}, nil
}

// FixAll iterates FixNext until the queue is empty, the max-iterations
// bound (cfg.MaxIterations × initial queue size) is reached, or a full
// round over the current queue makes no progress because every item in
// it was only requeued, never resolved or abandoned (§4.G "fixAll").
func (l *Loop) FixAll(ctx context.Context) ([]StepResult, error) {
	initialSize, err := l.engine.Size(ctx)
	if err != nil {
		return nil, err
	}
	bound := l.cfg.MaxIterations * max1(initialSize)

	var results []StepResult
	iterations := 0
	for iterations < bound {
		roundSize, err := l.engine.Size(ctx)
		if err != nil {
			return results, err
		}
		if roundSize == 0 {
			break
		}

		progressed := false
		for i := 0; i < roundSize && iterations < bound; i++ {
			step, err := l.FixNext(ctx)
			if err != nil {
				return results, err
			}
			iterations++
			if !step.TestFound {
				return results, nil
			}
			results = append(results, step)
			if step.Success || step.MaxRetriesExceeded {
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return results, nil
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func timeoutFromMillis(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
