package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGoAdapter_DetectFrameworkAlwaysGoTest(t *testing.T) {
	a := NewGoAdapter()
	fw, ok := a.DetectFramework(t.TempDir())
	require.True(t, ok)
	require.Equal(t, FrameworkGoTest, fw)
}

func TestGoAdapter_ParseVerboseFileLines(t *testing.T) {
	a := NewGoAdapter()
	output := "--- FAIL: TestThing (0.00s)\n    engine_test.go:42: assertion failed\nFAIL\tgithub.com/neonwatty/tfq/internal/queue\t0.004s"
	result, err := a.ParseTestOutput(output, FrameworkGoTest)
	require.NoError(t, err)
	require.Equal(t, []string{"engine_test.go"}, result.FailingTests)
}

func TestGoAdapter_ParseFallsBackToPackageLine(t *testing.T) {
	a := NewGoAdapter()
	output := "FAIL\tgithub.com/neonwatty/tfq/internal/queue\t0.004s"
	result, err := a.ParseTestOutput(output, FrameworkGoTest)
	require.NoError(t, err)
	require.Equal(t, []string{"github.com/neonwatty/tfq/internal/queue"}, result.FailingTests)
}

func TestGoAdapter_GetTestCommand(t *testing.T) {
	a := NewGoAdapter()

	cmd, err := a.GetTestCommand(FrameworkGoTest, "./internal/queue")
	require.NoError(t, err)
	require.Equal(t, "go test -run . ./internal/queue", cmd)

	cmd, err = a.GetTestCommand(FrameworkGoTest, "")
	require.NoError(t, err)
	require.Equal(t, "go test ./...", cmd)
}
