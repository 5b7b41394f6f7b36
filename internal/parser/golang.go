package parser

import (
	"fmt"
	"regexp"
)

type goAdapter struct{}

// NewGoAdapter builds the Go adapter, wrapping the standard `go test`
// toolchain. There is only one framework in this ecosystem.
func NewGoAdapter() Adapter { return goAdapter{} }

func (goAdapter) Language() Language { return LanguageGo }

func (goAdapter) SupportedFrameworks() []Framework { return []Framework{FrameworkGoTest} }

func (a goAdapter) DefaultFramework() Framework { return a.SupportedFrameworks()[0] }

func (goAdapter) DetectFramework(_ string) (Framework, bool) {
	return FrameworkGoTest, true
}

func (goAdapter) GetTestCommand(framework Framework, path string) (string, error) {
	if framework != FrameworkGoTest {
		return "", fmt.Errorf("unsupported go framework %q", framework)
	}
	if path != "" {
		return fmt.Sprintf("go test -run . %s", path), nil
	}
	return "go test ./...", nil
}

var (
	goTestFileLineRe = regexp.MustCompile(`(?m)^\s*(\S+_test\.go):(\d+):`)
	goTestFailPkgRe  = regexp.MustCompile(`(?m)^FAIL\s+(\S+)`)
	goTestSummaryRe  = regexp.MustCompile(`(?m)^ok\s+\S+`)
)

func (goAdapter) GetFailurePatterns(framework Framework) []*regexp.Regexp {
	if framework != FrameworkGoTest {
		return nil
	}
	return []*regexp.Regexp{goTestFileLineRe, goTestFailPkgRe}
}

func (goAdapter) ParseTestOutput(output string, framework Framework) (ParseResult, error) {
	if framework != FrameworkGoTest {
		return ParseResult{}, fmt.Errorf("unsupported go framework %q", framework)
	}

	var failing []string
	for _, m := range goTestFileLineRe.FindAllStringSubmatch(output, -1) {
		failing = append(failing, m[1])
	}
	if len(failing) == 0 {
		// -v wasn't passed; fall back to the failing package path, the
		// most specific location `go test` reports without source lines.
		for _, m := range goTestFailPkgRe.FindAllStringSubmatch(output, -1) {
			failing = append(failing, m[1])
		}
	}
	failing = dedupPreserveOrder(failing)

	summary := Summary{
		Passed: len(goTestSummaryRe.FindAllString(output, -1)),
		Failed: len(goTestFailPkgRe.FindAllString(output, -1)),
	}
	summary.Total = summary.Passed + summary.Failed

	return ParseResult{
		Passed:       len(failing) == 0,
		FailingTests: failing,
		Failures:     toFailures(failing),
		Summary:      summary,
	}, nil
}
