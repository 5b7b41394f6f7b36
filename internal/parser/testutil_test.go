package parser

import (
	"os"
	"path/filepath"
	"testing"
)

// writeFile writes content to dir/name, creating parent directories as
// needed, and fails the test on error.
func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, name)
	require := func(err error) {
		if err != nil {
			t.Fatalf("writeFile %s: %v", full, err)
		}
	}
	require(os.MkdirAll(filepath.Dir(full), 0o755))
	require(os.WriteFile(full, []byte(content), 0o644))
}
