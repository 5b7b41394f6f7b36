package runner

import (
	"testing"

	"github.com/neonwatty/tfq/internal/parser"
	"github.com/stretchr/testify/require"
)

func TestResolveCommand_OverrideWins(t *testing.T) {
	registry := parser.NewRegistry()
	cmd, err := resolveCommand(registry, parser.LanguageGo, parser.FrameworkGoTest, "./...", "custom runner", map[string]string{
		"go:gotest": "should not be used",
	})
	require.NoError(t, err)
	require.Equal(t, "custom runner", cmd)
}

func TestResolveCommand_ConfigBeatsAdapterDefault(t *testing.T) {
	registry := parser.NewRegistry()
	cmd, err := resolveCommand(registry, parser.LanguageGo, parser.FrameworkGoTest, "./...", "", map[string]string{
		"go:gotest": "go test -v ./...",
	})
	require.NoError(t, err)
	require.Equal(t, "go test -v ./...", cmd)
}

func TestResolveCommand_FallsBackToAdapterDefault(t *testing.T) {
	registry := parser.NewRegistry()
	cmd, err := resolveCommand(registry, parser.LanguageGo, parser.FrameworkGoTest, "./...", "", nil)
	require.NoError(t, err)
	require.Equal(t, "go test -run . ./...", cmd)
}

func TestSplitCommand_HonorsQuoting(t *testing.T) {
	fields, err := splitCommand(`pytest "tests/a b.py" -k "name with spaces"`)
	require.NoError(t, err)
	require.Equal(t, []string{"pytest", "tests/a b.py", "-k", "name with spaces"}, fields)
}

func TestSplitCommand_RejectsEmpty(t *testing.T) {
	_, err := splitCommand("   ")
	require.Error(t, err)
}
