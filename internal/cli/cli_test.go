package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTestConfig writes a minimal .tfqrc pointing at a fresh database
// inside dir, so every test gets its own isolated store.
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, ".tfqrc")
	body := map[string]any{
		"database": map[string]any{"path": filepath.Join(dir, "tfq.db")},
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// runCmd executes the root command against an isolated config/store and
// returns combined stdout/stderr plus the error Execute would have
// turned into a process exit code.
func runCmd(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.Execute()
	return buf.String(), err
}

func newIsolatedConfig(t *testing.T) string {
	t.Helper()
	return writeTestConfig(t, t.TempDir())
}

func TestVersionCommand(t *testing.T) {
	cfg := newIsolatedConfig(t)
	out, err := runCmd(t, cfg, "version")
	require.NoError(t, err)
	require.Contains(t, out, version)
}

func TestExitCode(t *testing.T) {
	require.Equal(t, 0, exitCode(nil))
	require.Equal(t, 1, exitCode(assertErr{}))
	require.Equal(t, 2, exitCode(fail(2, "bad input")))
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
