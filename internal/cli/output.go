package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// envelope is the stable `{success, ...}` / `{success:false, error}`
// JSON contract every command's --json output follows (§6).
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(envelope{Success: true, Data: data})
}

func writeJSONError(w io.Writer, err error) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(envelope{Success: false, Error: err.Error()})
}

// newTable builds a go-pretty table writer rendering to stdout, used by
// every non-JSON list-shaped command (list, stats, get-groups,
// group-stats) per the CLI framework section of the full spec.
func newTable(header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(header)
	return t
}

// cliError carries an explicit process exit code alongside a message,
// so RunE can report validation/not-found/empty-queue distinctly
// (§6 "exit code conventions") without the caller string-matching.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

func fail(code int, format string, args ...any) error {
	return &cliError{code: code, err: fmt.Errorf(format, args...)}
}

// reportOK writes data as JSON when app.JSON is set, otherwise prints a
// "%+v"-shaped line; used by the simple scalar/flat-map commands that
// have no dedicated table shape.
func reportOK(app *App, cmd *cobra.Command, data any) error {
	if app.JSON {
		return writeJSON(cmd.OutOrStdout(), data)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", data)
	return nil
}

// reportErr normalizes err into the JSON envelope when app.JSON is set
// (still returning err so Execute's exit code reflects it), or lets it
// propagate to cobra's default stderr reporting otherwise.
func reportErr(app *App, cmd *cobra.Command, err error) error {
	if app.JSON {
		_ = writeJSONError(cmd.OutOrStdout(), err)
	}
	return err
}

// reportEmpty is next/peek's "queue is empty" case (§6 exit code
// conventions: exit 1, not a validation failure).
func reportEmpty(app *App, cmd *cobra.Command, msg string) error {
	err := fail(1, "%s", msg)
	if app.JSON {
		_ = writeJSONError(cmd.OutOrStdout(), err)
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return err
}

// exitCode extracts the process exit code intended for err, defaulting
// to 1 for any error that didn't explicitly choose one.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}
