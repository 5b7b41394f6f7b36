package fixer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neonwatty/tfq/internal/parser"
)

func TestBuildRequestPreview(t *testing.T) {
	dir := t.TempDir()
	testPath := filepath.Join(dir, "thing_test.go")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "thing.go"), []byte("package p\n"), 0o644))
	require.NoError(t, os.WriteFile(testPath, []byte("package p\n"), 0o644))

	req := BuildRequestPreview(testPath, "package p\n", "boom", parser.LanguageGo, parser.FrameworkGoTest)
	require.Equal(t, testPath, req.Path)
	require.Equal(t, "boom", req.Error)
	require.Equal(t, parser.LanguageGo, req.Language)
	require.Contains(t, req.RelatedFiles, filepath.Join(dir, "thing.go"))
}

func TestFindRelatedFiles_NoKnownExtensions(t *testing.T) {
	dir := t.TempDir()
	testPath := filepath.Join(dir, "a_test.unknown")
	related := findRelatedFiles(testPath, parser.Language("cobol"))
	require.Nil(t, related)
}

func TestFindRelatedFiles_ExcludesSelfAndUnrelatedStems(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widget.go"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.go"), []byte(""), 0o644))
	testPath := filepath.Join(dir, "widget_test.go")
	require.NoError(t, os.WriteFile(testPath, []byte(""), 0o644))

	related := findRelatedFiles(testPath, parser.LanguageGo)
	require.Contains(t, related, filepath.Join(dir, "widget.go"))
	require.NotContains(t, related, testPath)
	require.NotContains(t, related, filepath.Join(dir, "other.go"))
}

func TestStemOf_StripsKnownSuffixes(t *testing.T) {
	require.Equal(t, "widget", stemOf("widget_test.go"))
	require.Equal(t, "widget", stemOf("widget.spec.js"))
}
