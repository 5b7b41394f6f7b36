package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPythonAdapter_PytestParse_FailedLines(t *testing.T) {
	a := NewPythonAdapter()
	output := "FAILED tests/test_a.py::test_one - AssertionError\nFAILED tests/test_b.py::test_two"
	result, err := a.ParseTestOutput(output, FrameworkPytest)
	require.NoError(t, err)
	require.Equal(t, []string{"tests/test_a.py", "tests/test_b.py"}, result.FailingTests)
	require.False(t, result.Passed)
}

func TestPythonAdapter_PytestParse_SectionHeader(t *testing.T) {
	a := NewPythonAdapter()
	output := "________ tests/test_a.py ________"
	result, err := a.ParseTestOutput(output, FrameworkPytest)
	require.NoError(t, err)
	require.Equal(t, []string{"tests/test_a.py"}, result.FailingTests)
}

func TestPythonAdapter_PytestSummary(t *testing.T) {
	a := NewPythonAdapter()
	output := "FAILED tests/test_a.py::test_one\n3 passed, 1 failed, 2 skipped"
	result, err := a.ParseTestOutput(output, FrameworkPytest)
	require.NoError(t, err)
	require.Equal(t, Summary{Total: 6, Passed: 3, Failed: 1, Skipped: 2}, result.Summary)
}

func TestPythonAdapter_UnittestParse(t *testing.T) {
	a := NewPythonAdapter()
	output := "FAIL: test_one (tests.test_module.MyCase)\nRan 4 tests in 0.01s"
	result, err := a.ParseTestOutput(output, FrameworkUnittest)
	require.NoError(t, err)
	require.Equal(t, []string{"tests/test_module.py"}, result.FailingTests)
	require.Equal(t, 4, result.Summary.Total)
	require.Equal(t, 1, result.Summary.Failed)
	require.Equal(t, 3, result.Summary.Passed)
}

func TestPythonAdapter_DetectFramework_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pytest.ini", "[pytest]\n")

	a := NewPythonAdapter()
	fw, ok := a.DetectFramework(dir)
	require.True(t, ok)
	require.Equal(t, FrameworkPytest, fw)
}

func TestPythonAdapter_DetectFramework_PyprojectSection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", "[tool.pytest.ini_options]\naddopts = \"-ra\"\n")

	a := NewPythonAdapter()
	fw, ok := a.DetectFramework(dir)
	require.True(t, ok)
	require.Equal(t, FrameworkPytest, fw)
}

func TestPythonAdapter_DetectFramework_NoSignal(t *testing.T) {
	dir := t.TempDir()
	a := NewPythonAdapter()
	_, ok := a.DetectFramework(dir)
	require.False(t, ok)
}

func TestPythonAdapter_GetTestCommand(t *testing.T) {
	a := NewPythonAdapter()

	cmd, err := a.GetTestCommand(FrameworkPytest, "tests/test_a.py")
	require.NoError(t, err)
	require.Equal(t, "pytest tests/test_a.py", cmd)

	cmd, err = a.GetTestCommand(FrameworkUnittest, "tests/test_a.py")
	require.NoError(t, err)
	require.Equal(t, "python -m unittest tests.test_a", cmd)

	cmd, err = a.GetTestCommand(FrameworkUnittest, "")
	require.NoError(t, err)
	require.Equal(t, "python -m unittest discover", cmd)
}
