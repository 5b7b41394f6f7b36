package parser

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

type rubyAdapter struct{}

// NewRubyAdapter builds the Ruby adapter. RSpec, Cucumber, and
// Test::Unit are handled only by the unsupported-framework gate
// (detect.Scan); this registry's Ruby support is Minitest.
func NewRubyAdapter() Adapter { return rubyAdapter{} }

func (rubyAdapter) Language() Language { return LanguageRuby }

func (rubyAdapter) SupportedFrameworks() []Framework {
	return []Framework{FrameworkMinitest}
}

func (a rubyAdapter) DefaultFramework() Framework { return a.SupportedFrameworks()[0] }

func (rubyAdapter) DetectFramework(projectDir string) (Framework, bool) {
	var signals []frameworkSignal

	if fileExists(filepath.Join(projectDir, "test", "test_helper.rb")) {
		signals = append(signals, frameworkSignal{Framework: FrameworkMinitest, Confidence: confidenceConfigFile})
	}
	if gemfileHas(projectDir, "minitest") {
		signals = append(signals, frameworkSignal{Framework: FrameworkMinitest, Confidence: confidenceDependency})
	}
	if dirExists(filepath.Join(projectDir, "test")) {
		signals = append(signals, frameworkSignal{Framework: FrameworkMinitest, Confidence: confidenceTestDir})
	}

	return resolveSignals(signals, rubyAdapter{}.SupportedFrameworks())
}

func (rubyAdapter) GetTestCommand(framework Framework, path string) (string, error) {
	if framework != FrameworkMinitest {
		return "", fmt.Errorf("unsupported ruby framework %q", framework)
	}
	if path != "" {
		return fmt.Sprintf("ruby -Itest %s", path), nil
	}
	return "rails test", nil
}

var (
	minitestFailureHeaderRe = regexp.MustCompile(`^\s*(Failure|Error):\s*$`)
	minitestLocationRe      = regexp.MustCompile(`(\S+_test\.rb):(\d+)`)
	minitestRailsSuggestRe  = regexp.MustCompile(`rails test (\S+\.rb)(?::(\d+))?`)
	minitestSummaryRe       = regexp.MustCompile(`(\d+)\s+runs?,\s+\d+\s+assertions?,\s+(\d+)\s+failures?,\s+(\d+)\s+errors?(?:,\s+(\d+)\s+skips?)?`)
)

func (rubyAdapter) GetFailurePatterns(framework Framework) []*regexp.Regexp {
	if framework != FrameworkMinitest {
		return nil
	}
	return []*regexp.Regexp{minitestFailureHeaderRe, minitestLocationRe, minitestRailsSuggestRe, minitestSummaryRe}
}

func (rubyAdapter) ParseTestOutput(output string, framework Framework) (ParseResult, error) {
	if framework != FrameworkMinitest {
		return ParseResult{}, fmt.Errorf("unsupported ruby framework %q", framework)
	}

	var failing []string
	inFailureBlock := false
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if minitestFailureHeaderRe.MatchString(line) {
			inFailureBlock = true
			continue
		}
		if strings.TrimSpace(line) == "" {
			inFailureBlock = false
			continue
		}
		if inFailureBlock {
			if m := minitestLocationRe.FindStringSubmatch(line); m != nil {
				failing = append(failing, m[1])
			}
		}
	}

	for _, m := range minitestRailsSuggestRe.FindAllStringSubmatch(output, -1) {
		failing = append(failing, m[1])
	}
	failing = dedupPreserveOrder(failing)

	summary := Summary{}
	if m := minitestSummaryRe.FindStringSubmatch(output); m != nil {
		failures := atoiOrZero(m[2])
		errorsN := atoiOrZero(m[3])
		skipped := atoiOrZero(m[4])
		total := atoiOrZero(m[1])
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

func gemfileHas(projectDir, gem string) bool {
	for _, name := range []string{"Gemfile", "Gemfile.lock"} {
		data, err := os.ReadFile(filepath.Join(projectDir, name))
		if err != nil {
			continue
		}
		if strings.Contains(string(data), gem) {
			return true
		}
	}
	return false
}
