package parser

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

type javaAdapter struct{}

// NewJavaAdapter builds the Java adapter. Only JUnit is supported;
// there is no unsupported-framework gate entry for Java since the
// spec's gate list is Django/nose2/RSpec/Cucumber/Test::Unit.
func NewJavaAdapter() Adapter { return javaAdapter{} }

func (javaAdapter) Language() Language { return LanguageJava }

func (javaAdapter) SupportedFrameworks() []Framework { return []Framework{FrameworkJUnit} }

func (a javaAdapter) DefaultFramework() Framework { return a.SupportedFrameworks()[0] }

func (javaAdapter) DetectFramework(projectDir string) (Framework, bool) {
	var signals []frameworkSignal
	if fileContains(filepath.Join(projectDir, "pom.xml"), "junit") {
		signals = append(signals, frameworkSignal{Framework: FrameworkJUnit, Confidence: confidenceDependency})
	}
	if fileContains(filepath.Join(projectDir, "build.gradle"), "junit") {
		signals = append(signals, frameworkSignal{Framework: FrameworkJUnit, Confidence: confidenceDependency})
	}
	for _, dir := range []string{"src/test/java", "test"} {
		if dirExists(filepath.Join(projectDir, dir)) {
			signals = append(signals, frameworkSignal{Framework: FrameworkJUnit, Confidence: confidenceTestDir})
			break
		}
	}
	return resolveSignals(signals, javaAdapter{}.SupportedFrameworks())
}

func (javaAdapter) GetTestCommand(framework Framework, path string) (string, error) {
	if framework != FrameworkJUnit {
		return "", fmt.Errorf("unsupported java framework %q", framework)
	}
	if path != "" {
		return fmt.Sprintf("mvn -Dtest=%s test", classNameFromPath(path)), nil
	}
	return "mvn test", nil
}

var (
	junitFailedClassRe = regexp.MustCompile(`(?m)^(?:Tests? in error|\s*\d+\)\s+\S+)\s*\(([\w.]+)\)`)
	junitStackFrameRe  = regexp.MustCompile(`at\s+([\w.]+)\.\w+\(([\w$]+)\.java:(\d+)\)`)
	junitSummaryRe     = regexp.MustCompile(`Tests run:\s*(\d+),\s*Failures:\s*(\d+),\s*Errors:\s*(\d+),\s*Skipped:\s*(\d+)`)
)

func (javaAdapter) GetFailurePatterns(framework Framework) []*regexp.Regexp {
	if framework != FrameworkJUnit {
		return nil
	}
	return []*regexp.Regexp{junitFailedClassRe, junitStackFrameRe, junitSummaryRe}
}

func (javaAdapter) ParseTestOutput(output string, framework Framework) (ParseResult, error) {
	if framework != FrameworkJUnit {
		return ParseResult{}, fmt.Errorf("unsupported java framework %q", framework)
	}

	var failing []string
	for _, m := range junitFailedClassRe.FindAllStringSubmatch(output, -1) {
		failing = append(failing, pathFromFQCN(m[1]))
	}
	for _, m := range junitStackFrameRe.FindAllStringSubmatch(output, -1) {
		failing = append(failing, pathFromFQCN(m[1]))
	}
	failing = dedupPreserveOrder(failing)

	summary := Summary{}
	if m := junitSummaryRe.FindStringSubmatch(output); m != nil {
		total := atoiOrZero(m[1])
		failures := atoiOrZero(m[2])
		errorsN := atoiOrZero(m[3])
		skipped := atoiOrZero(m[4])
		summary.Total = total
		summary.Failed = failures + errorsN
		summary.Skipped = skipped
		summary.Passed = total - summary.Failed - skipped
	}

	return ParseResult{
		Passed:       len(failing) == 0,
		FailingTests: failing,
		Failures:     toFailures(failing),
		Summary:      summary,
	}, nil
}

func pathFromFQCN(fqcn string) string {
	return strings.ReplaceAll(fqcn, ".", "/") + ".java"
}

func classNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, ".java")
}
