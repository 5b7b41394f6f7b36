package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// javascriptAdapter covers Jest, Vitest, Mocha, Jasmine, and AVA.
type javascriptAdapter struct{}

// NewJavaScriptAdapter builds the JavaScript/TypeScript adapter.
func NewJavaScriptAdapter() Adapter { return javascriptAdapter{} }

func (javascriptAdapter) Language() Language { return LanguageJavaScript }

func (javascriptAdapter) SupportedFrameworks() []Framework {
	return []Framework{FrameworkJest, FrameworkVitest, FrameworkMocha, FrameworkJasmine, FrameworkAVA}
}

func (a javascriptAdapter) DefaultFramework() Framework { return a.SupportedFrameworks()[0] }

func (javascriptAdapter) DetectFramework(projectDir string) (Framework, bool) {
	signals := []frameworkSignal{}

	// Highest confidence: specific config files.
	configFiles := map[Framework][]string{
		FrameworkJest:    {"jest.config.js", "jest.config.ts", "jest.config.mjs", "jest.config.cjs", "jest.config.json"},
		FrameworkVitest:  {"vitest.config.js", "vitest.config.ts", "vitest.config.mjs", "vite.config.ts"},
		FrameworkMocha:   {".mocharc.js", ".mocharc.json", ".mocharc.yml", ".mocharc.yaml"},
		FrameworkJasmine: {"spec/support/jasmine.json", "jasmine.json"},
		FrameworkAVA:     {"ava.config.js", "ava.config.mjs", "ava.config.cjs"},
	}
	for fw, names := range configFiles {
		for _, name := range names {
			if fileExists(filepath.Join(projectDir, name)) {
				signals = append(signals, frameworkSignal{Framework: fw, Confidence: confidenceConfigFile})
			}
		}
	}

	// Mid confidence: declared dependency in package.json.
	if deps, ok := readPackageJSONDeps(projectDir); ok {
		depFrameworks := map[string]Framework{
			"jest":    FrameworkJest,
			"vitest":  FrameworkVitest,
			"mocha":   FrameworkMocha,
			"jasmine": FrameworkJasmine,
			"ava":     FrameworkAVA,
		}
		for dep, fw := range depFrameworks {
			if _, ok := deps[dep]; ok {
				signals = append(signals, frameworkSignal{Framework: fw, Confidence: confidenceDependency})
			}
		}
	}

	// Lowest confidence: a conventional test directory exists at all.
	for _, dir := range []string{"test", "tests", "spec"} {
		if dirExists(filepath.Join(projectDir, dir)) {
			signals = append(signals, frameworkSignal{Framework: FrameworkJest, Confidence: confidenceTestDir})
			break
		}
	}

	return resolveSignals(signals, javascriptAdapter{}.SupportedFrameworks())
}

func (javascriptAdapter) GetTestCommand(framework Framework, path string) (string, error) {
	var base string
	switch framework {
	case FrameworkJest:
		base = "npx jest"
	case FrameworkVitest:
		base = "npx vitest run"
	case FrameworkMocha:
		base = "npx mocha"
	case FrameworkJasmine:
		base = "npx jasmine"
	case FrameworkAVA:
		base = "npx ava"
	default:
		return "", fmt.Errorf("unsupported javascript framework %q", framework)
	}
	if path != "" {
		return fmt.Sprintf("%s %s", base, path), nil
	}
	return base, nil
}

var (
	jestFailLineRe   = regexp.MustCompile(`(?m)^FAIL\s+(\S+)`)
	vitestFailLineRe = regexp.MustCompile(`(?m)^\s*(?:FAIL|\x{2717})\s+(\S+)`)
	jestSummaryRe    = regexp.MustCompile(`Tests:\s+(?:(\d+) failed, )?(?:(\d+) skipped, )?(\d+) passed, (\d+) total`)

	mochaNumberedFailureRe = regexp.MustCompile(`(?m)^\s*\d+\)\s+.*?:\s+(\S+):(\d+)`)
	mochaAtFileRe          = regexp.MustCompile(`(?m)at\s+(\S+):(\d+):\d+`)
	mochaSummaryRe         = regexp.MustCompile(`(\d+)\s+passing`)
	mochaFailingRe         = regexp.MustCompile(`(\d+)\s+failing`)

	jasmineFailedSpecRe = regexp.MustCompile(`(?m)at\s+(\S+\.spec\.\w+|\S+_spec\.\w+):(\d+)`)
	jasmineSummaryRe    = regexp.MustCompile(`(\d+)\s+specs?,\s+(\d+)\s+failures?`)

	avaCrossRe    = regexp.MustCompile(`(?m)^\s*\x{2718}\s+.*?(\S+\.(?:test|spec)\.\w+|\S+\.js):(\d+)?`)
	avaAtFileRe   = regexp.MustCompile(`(?m)(\S+\.(?:test|spec)\.\w+):(\d+)`)
	avaSummaryRe  = regexp.MustCompile(`(\d+)\s+tests?\s+passed`)
	avaFailingRe  = regexp.MustCompile(`(\d+)\s+tests?\s+failed`)
)

func (javascriptAdapter) GetFailurePatterns(framework Framework) []*regexp.Regexp {
	switch framework {
	case FrameworkJest:
		return []*regexp.Regexp{jestFailLineRe, jestSummaryRe}
	case FrameworkVitest:
		return []*regexp.Regexp{vitestFailLineRe, jestSummaryRe}
	case FrameworkMocha:
		return []*regexp.Regexp{mochaNumberedFailureRe, mochaAtFileRe, mochaSummaryRe, mochaFailingRe}
	case FrameworkJasmine:
		return []*regexp.Regexp{jasmineFailedSpecRe, jasmineSummaryRe}
	case FrameworkAVA:
		return []*regexp.Regexp{avaCrossRe, avaAtFileRe, avaSummaryRe, avaFailingRe}
	default:
		return nil
	}
}

func (a javascriptAdapter) ParseTestOutput(output string, framework Framework) (ParseResult, error) {
	switch framework {
	case FrameworkJest:
		return parseJestLike(output, jestFailLineRe), nil
	case FrameworkVitest:
		return parseJestLike(output, vitestFailLineRe), nil
	case FrameworkMocha:
		return parseMocha(output), nil
	case FrameworkJasmine:
		return parseJasmine(output), nil
	case FrameworkAVA:
		return parseAVA(output), nil
	default:
		return ParseResult{}, fmt.Errorf("unsupported javascript framework %q", framework)
	}
}

func parseJestLike(output string, failRe *regexp.Regexp) ParseResult {
	var failing []string
	for _, m := range failRe.FindAllStringSubmatch(output, -1) {
		failing = append(failing, firstWhitespaceToken(m[1]))
	}
	failing = dedupPreserveOrder(failing)

	summary := Summary{}
	if m := jestSummaryRe.FindStringSubmatch(output); m != nil {
		summary.Failed = atoiOrZero(m[1])
		summary.Skipped = atoiOrZero(m[2])
		summary.Passed = atoiOrZero(m[3])
		summary.Total = atoiOrZero(m[4])
	}

	return ParseResult{
		Passed:       len(failing) == 0,
		FailingTests: failing,
		Failures:     toFailures(failing),
		Summary:      summary,
	}
}

func parseMocha(output string) ParseResult {
	var failing []string
	for _, m := range mochaNumberedFailureRe.FindAllStringSubmatch(output, -1) {
		failing = append(failing, m[1])
	}
	for _, m := range mochaAtFileRe.FindAllStringSubmatch(output, -1) {
		failing = append(failing, m[1])
	}
	failing = dedupPreserveOrder(failing)

	summary := Summary{}
	if m := mochaSummaryRe.FindStringSubmatch(output); m != nil {
		summary.Passed = atoiOrZero(m[1])
	}
	if m := mochaFailingRe.FindStringSubmatch(output); m != nil {
		summary.Failed = atoiOrZero(m[1])
	}
	summary.Total = summary.Passed + summary.Failed

	return ParseResult{
		Passed:       len(failing) == 0,
		FailingTests: failing,
		Failures:     toFailures(failing),
		Summary:      summary,
	}
}

func parseJasmine(output string) ParseResult {
	var failing []string
	for _, m := range jasmineFailedSpecRe.FindAllStringSubmatch(output, -1) {
		failing = append(failing, m[1])
	}
	failing = dedupPreserveOrder(failing)

	summary := Summary{}
	if m := jasmineSummaryRe.FindStringSubmatch(output); m != nil {
		summary.Total = atoiOrZero(m[1])
		summary.Failed = atoiOrZero(m[2])
		summary.Passed = summary.Total - summary.Failed
	}

	return ParseResult{
		Passed:       len(failing) == 0,
		FailingTests: failing,
		Failures:     toFailures(failing),
		Summary:      summary,
	}
}

func parseAVA(output string) ParseResult {
	var failing []string
	for _, m := range avaCrossRe.FindAllStringSubmatch(output, -1) {
		failing = append(failing, m[1])
	}
	if len(failing) == 0 {
		for _, m := range avaAtFileRe.FindAllStringSubmatch(output, -1) {
			failing = append(failing, m[1])
		}
	}
	failing = dedupPreserveOrder(failing)

	summary := Summary{}
	if m := avaSummaryRe.FindStringSubmatch(output); m != nil {
		summary.Passed = atoiOrZero(m[1])
	}
	if m := avaFailingRe.FindStringSubmatch(output); m != nil {
		summary.Failed = atoiOrZero(m[1])
	}
	summary.Total = summary.Passed + summary.Failed

	return ParseResult{
		Passed:       len(failing) == 0,
		FailingTests: failing,
		Failures:     toFailures(failing),
		Summary:      summary,
	}
}

func toFailures(paths []string) []Failure {
	out := make([]Failure, 0, len(paths))
	for _, p := range paths {
		out = append(out, Failure{File: p})
	}
	return out
}

func firstWhitespaceToken(s string) string {
	if idx := strings.IndexAny(s, " \t\r\n"); idx >= 0 {
		return s[:idx]
	}
	return s
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// readPackageJSONDeps reads dependencies + devDependencies from
// package.json, returning (nil, false) if the file is absent or
// malformed (parse errors here are a detection miss, not an error:
// the registry degrades to lower-confidence signals).
func readPackageJSONDeps(projectDir string) (map[string]string, bool) {
	data, err := os.ReadFile(filepath.Join(projectDir, "package.json"))
	if err != nil {
		return nil, false
	}
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, false
	}
	merged := map[string]string{}
	for k, v := range pkg.Dependencies {
		merged[k] = v
	}
	for k, v := range pkg.DevDependencies {
		merged[k] = v
	}
	return merged, true
}
