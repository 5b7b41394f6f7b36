// Package errs defines the error taxonomy shared by every TFQ component
// (§7 of the design). Callers classify with errors.Is/errors.As against
// the sentinels here rather than matching error strings.
package errs

import (
	"fmt"

	"github.com/containerd/errdefs"
)

// Validation wraps a bad path, priority, language, or framework supplied
// by a caller. No mutation has happened when this is returned.
func Validation(field string, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %s: %w", field, msg, errdefs.ErrInvalidArgument)
}

// IsValidation reports whether err is a Validation error.
func IsValidation(err error) bool {
	return errdefs.IsInvalidArgument(err)
}

// Store wraps a failure to open, write, or transact against the
// persistent store. Always fatal for the operation that produced it.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("store: %s: %w: %w", op, err, errdefs.ErrUnknown)
}

// IsStore reports whether err originated from the Store.
func IsStore(err error) bool {
	return errdefs.IsUnknown(err)
}

// NotFound wraps a lookup for a path that is not present in the queue.
func NotFound(path string) error {
	return fmt.Errorf("%s: %w", path, errdefs.ErrNotFound)
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool {
	return errdefs.IsNotFound(err)
}

// RunError is produced by the Runner Driver when the child process could
// not be spawned or its I/O failed (§7 "Runner spawn").
type RunError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("run %q: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("run %q: exit %d: %s", e.Command, e.ExitCode, e.Stderr)
}

func (e *RunError) Unwrap() error { return e.Err }

// FixerError is produced when the external fixer subprocess exits
// non-zero, times out, or produces no usable edit. The Fixer Loop
// treats this identically to a failed verification run (§7).
type FixerError struct {
	Reason   string
	ExitCode int
	Timeout  bool
}

func (e *FixerError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("fixer timed out: %s", e.Reason)
	}
	return fmt.Sprintf("fixer failed (exit %d): %s", e.ExitCode, e.Reason)
}

// GroupingSkip records a path from a grouping plan that was not present
// in the queue and was therefore silently skipped (§7 "Grouping").
type GroupingSkip struct {
	Path   string
	Reason string
}
