package runner

import (
	"context"
	"testing"

	"github.com/neonwatty/tfq/internal/parser"
	"github.com/stretchr/testify/require"
)

func TestDriver_Run_VerbosePtyCapturesOutput(t *testing.T) {
	d := New(parser.NewRegistry())
	result, err := d.Run(context.Background(), Options{
		Language:        parser.LanguageGo,
		Framework:       parser.FrameworkGoTest,
		CommandOverride: "sh -c 'echo verbose-marker'",
		Verbose:         true,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Contains(t, result.Stdout, "verbose-marker")
}

func TestDriver_Run_VerbosePtyNonZeroExit(t *testing.T) {
	d := New(parser.NewRegistry())
	result, err := d.Run(context.Background(), Options{
		Language:        parser.LanguageGo,
		Framework:       parser.FrameworkGoTest,
		CommandOverride: "sh -c 'echo boom_test.go:1: failed; exit 1'",
		Verbose:         true,
	})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, 1, result.ExitCode)
	require.Contains(t, result.FailingTests, "boom_test.go")
}
