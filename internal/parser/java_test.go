package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJavaAdapter_ParseSummary(t *testing.T) {
	a := NewJavaAdapter()
	output := "Tests run: 10, Failures: 1, Errors: 1, Skipped: 2"
	result, err := a.ParseTestOutput(output, FrameworkJUnit)
	require.NoError(t, err)
	require.Equal(t, Summary{Total: 10, Failed: 2, Skipped: 2, Passed: 6}, result.Summary)
}

func TestJavaAdapter_ParseStackFrame(t *testing.T) {
	a := NewJavaAdapter()
	output := "at com.example.FooTest.testBar(FooTest.java:22)"
	result, err := a.ParseTestOutput(output, FrameworkJUnit)
	require.NoError(t, err)
	require.Equal(t, []string{"com/example/FooTest.java"}, result.FailingTests)
}

func TestJavaAdapter_DetectFramework(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pom.xml", "<dependency><artifactId>junit</artifactId></dependency>")

	a := NewJavaAdapter()
	fw, ok := a.DetectFramework(dir)
	require.True(t, ok)
	require.Equal(t, FrameworkJUnit, fw)
}

func TestJavaAdapter_GetTestCommand(t *testing.T) {
	a := NewJavaAdapter()

	cmd, err := a.GetTestCommand(FrameworkJUnit, "src/test/java/com/example/FooTest.java")
	require.NoError(t, err)
	require.Equal(t, "mvn -Dtest=FooTest test", cmd)

	cmd, err = a.GetTestCommand(FrameworkJUnit, "")
	require.NoError(t, err)
	require.Equal(t, "mvn test", cmd)
}
