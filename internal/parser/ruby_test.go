package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRubyAdapter_MinitestParse_FailureBlock(t *testing.T) {
	a := NewRubyAdapter()
	output := "Failure:\nMyTest#test_thing [test/my_test.rb:12]:\nExpected true to be false.\n\n1 runs, 1 assertions, 1 failures, 0 errors"
	result, err := a.ParseTestOutput(output, FrameworkMinitest)
	require.NoError(t, err)
	require.Equal(t, []string{"test/my_test.rb"}, result.FailingTests)
	require.Equal(t, 1, result.Summary.Total)
	require.Equal(t, 1, result.Summary.Failed)
}

func TestRubyAdapter_MinitestParse_ErrorBlockResetsOnBlankLine(t *testing.T) {
	a := NewRubyAdapter()
	output := "Error:\nMyTest#test_other:\nRuntimeError: boom\n    test/other_test.rb:7:in 'test_other'\n\nsome trailing line test/ignored_test.rb:3"
	result, err := a.ParseTestOutput(output, FrameworkMinitest)
	require.NoError(t, err)
	require.Equal(t, []string{"test/other_test.rb"}, result.FailingTests)
}

func TestRubyAdapter_MinitestParse_RailsSuggestion(t *testing.T) {
	a := NewRubyAdapter()
	output := "rails test test/models/user_test.rb:15"
	result, err := a.ParseTestOutput(output, FrameworkMinitest)
	require.NoError(t, err)
	require.Equal(t, []string{"test/models/user_test.rb"}, result.FailingTests)
}

func TestRubyAdapter_DetectFramework_Gemfile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Gemfile", "gem 'minitest'\n")

	a := NewRubyAdapter()
	fw, ok := a.DetectFramework(dir)
	require.True(t, ok)
	require.Equal(t, FrameworkMinitest, fw)
}

func TestRubyAdapter_GetTestCommand(t *testing.T) {
	a := NewRubyAdapter()

	cmd, err := a.GetTestCommand(FrameworkMinitest, "test/my_test.rb")
	require.NoError(t, err)
	require.Equal(t, "ruby -Itest test/my_test.rb", cmd)

	cmd, err = a.GetTestCommand(FrameworkMinitest, "")
	require.NoError(t, err)
	require.Equal(t, "rails test", cmd)
}
