package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeDefaultsConfig is writeTestConfig plus a defaults.* block, for
// exercising the autoAdd/parallel wiring.
func writeDefaultsConfig(t *testing.T, dir string, autoAdd bool, parallel int) string {
	t.Helper()
	path := filepath.Join(dir, ".tfqrc")
	body := map[string]any{
		"database": map[string]any{"path": filepath.Join(dir, "tfq.db")},
		"defaults": map[string]any{"autoAdd": autoAdd, "parallel": parallel},
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRunTests_AutoAddEnqueuesFailingTests(t *testing.T) {
	cfg := writeDefaultsConfig(t, t.TempDir(), true, 0)
	out, err := runCmd(t, cfg, "run-tests", "dummy_test.go", "--command",
		`sh -c 'echo "queue_test.go:10: boom"; exit 1'`, "--json")
	require.Error(t, err)
	require.Equal(t, 1, exitCode(err))
	require.Contains(t, out, "success")

	listOut, err := runCmd(t, cfg, "list", "--json")
	require.NoError(t, err)
	require.Contains(t, listOut, "queue_test.go")
}

func TestRunTests_AutoAddWithParallelSetsGroups(t *testing.T) {
	cfg := writeDefaultsConfig(t, t.TempDir(), true, 1)
	_, err := runCmd(t, cfg, "run-tests", "dummy_test.go", "--command",
		`sh -c 'echo "queue_test.go:10: boom"; exit 1'`, "--json")
	require.Error(t, err)

	out, err := runCmd(t, cfg, "group-stats", "--json")
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	require.True(t, env.Success)
	stats := env.Data.(map[string]any)
	require.Equal(t, float64(1), stats["total"])
}

func TestRunTests_NoAutoAddLeavesQueueEmpty(t *testing.T) {
	cfg := newIsolatedConfig(t)
	_, err := runCmd(t, cfg, "run-tests", "dummy_test.go", "--command",
		`sh -c 'echo "queue_test.go:10: boom"; exit 1'`, "--json")
	require.Error(t, err)

	listOut, err := runCmd(t, cfg, "list", "--json")
	require.NoError(t, err)
	require.NotContains(t, listOut, "queue_test.go")
}

func TestRunTests_CommandOverrideSuccess(t *testing.T) {
	cfg := newIsolatedConfig(t)
	out, err := runCmd(t, cfg, "run-tests", "dummy_test.go", "--command", "true", "--json")
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	require.True(t, env.Success)
}

func TestRunTests_CommandOverrideFailure(t *testing.T) {
	cfg := newIsolatedConfig(t)
	_, err := runCmd(t, cfg, "run-tests", "dummy_test.go", "--command", "false", "--json")
	require.Error(t, err)
	require.Equal(t, 1, exitCode(err))
}

func TestLanguagesCommand(t *testing.T) {
	cfg := newIsolatedConfig(t)
	out, err := runCmd(t, cfg, "languages", "--json")
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	require.True(t, env.Success)
	rows, ok := env.Data.([]any)
	require.True(t, ok)
	require.NotEmpty(t, rows)
	var names []string
	for _, r := range rows {
		names = append(names, r.(map[string]any)["language"].(string))
	}
	require.Contains(t, names, "javascript")
	require.Contains(t, names, "go")
}
