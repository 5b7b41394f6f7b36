package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir string, body map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, ".tfqrc")
	data, err := json.Marshal(body)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoad_CurrentShape(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{
		"database": map[string]any{"path": filepath.Join(dir, "tfq.db")},
		"maxRetries": 5,
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "tfq.db"), cfg.DatabasePath)
	require.Equal(t, 5, cfg.MaxRetries)
}

func TestLoad_LegacyShape(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{
		"databasePath": filepath.Join(dir, "legacy.db"),
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "legacy.db"), cfg.DatabasePath)
}

func TestLoad_LegacyDBFileNameMigrated(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{
		"databasePath": legacyDBPath,
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotEqual(t, legacyDBPath, cfg.DatabasePath)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{
		"database": map[string]any{"path": filepath.Join(dir, "tfq.db")},
	})

	override := filepath.Join(dir, "override.db")
	t.Setenv("TFQ_DB_PATH", override)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, override, cfg.DatabasePath)
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	require.NotEmpty(t, cfg.DatabasePath)
	require.Equal(t, defaultMaxRetries, cfg.MaxRetries)
}

func TestLoad_FixerTimeoutFloor(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{
		"fixer": map[string]any{"testTimeout": 10},
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, fixerTimeoutFloorMillis, cfg.Fixer.TestTimeout)
}
