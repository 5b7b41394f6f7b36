package fixer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neonwatty/tfq/internal/config"
	"github.com/neonwatty/tfq/internal/errs"
)

// Outcome is what the external fixer reported about one invocation.
type Outcome struct {
	RequestID string
	ExitCode  int
	Stdout    string
	Stderr    string
}

// Fixer is the external fix collaborator's interface (§4.G step 3): it
// edits files on disk and reports an exit status. tfq never inspects the
// edits directly; success is judged by the re-run in step 4.
type Fixer interface {
	Fix(ctx context.Context, req Request) (Outcome, error)
}

// SubprocessFixer invokes config.FixerConfig.Path as a child process,
// passing the test path as its only argument and the rest of the request
// in TFQ_FIX_* environment variables. The fixer is a well-behaved, single collaborator
// process, not an arbitrary test runner, so this skips the process-tree
// kill escalation in the runner package and relies on context cancellation.
type SubprocessFixer struct {
	cfg config.FixerConfig
}

// NewSubprocessFixer builds a SubprocessFixer from the configured
// fixer.* settings.
func NewSubprocessFixer(cfg config.FixerConfig) *SubprocessFixer {
	return &SubprocessFixer{cfg: cfg}
}

func (f *SubprocessFixer) Fix(ctx context.Context, req Request) (Outcome, error) {
	requestID := uuid.NewString()
	prompt := strings.ReplaceAll(f.cfg.Prompt, "{filePath}", req.Path)

	timeout := time.Duration(f.cfg.TestTimeout) * time.Millisecond
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, f.cfg.Path, req.Path)
	cmd.Env = append(os.Environ(),
		"TFQ_FIX_REQUEST_ID="+requestID,
		"TFQ_FIX_PROMPT="+prompt,
		"TFQ_FIX_ERROR="+req.Error,
		"TFQ_FIX_LANGUAGE="+string(req.Language),
		"TFQ_FIX_FRAMEWORK="+string(req.Framework),
		"TFQ_FIX_RELATED_FILES="+strings.Join(req.RelatedFiles, string(os.PathListSeparator)),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	outcome := Outcome{RequestID: requestID, Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return outcome, nil
	}

	if runCtx.Err() == context.DeadlineExceeded {
		return outcome, &errs.FixerError{Reason: stderr.String(), Timeout: true}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		outcome.ExitCode = exitErr.ExitCode()
		return outcome, &errs.FixerError{Reason: fmt.Sprintf("%s: %s", err, stderr.String()), ExitCode: outcome.ExitCode}
	}
	return outcome, &errs.FixerError{Reason: err.Error()}
}
