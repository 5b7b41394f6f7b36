// Package parser implements the test-output parser registry (§4.D): a
// registry of per-language adapters that extract a canonical list of
// failing test file paths from arbitrary runner output.
package parser

import "regexp"

// Language is a closed enumeration with an open "custom" escape hatch
// for configured test commands that target a language this registry
// doesn't natively parse (§9 Design Notes).
type Language string

const (
	LanguageRuby       Language = "ruby"
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageGo         Language = "go"
	LanguageJava       Language = "java"
	LanguageCustom     Language = "custom"
	LanguageUnknown    Language = "unknown"
)

// Framework is a closed enumeration with the same "custom" escape hatch.
type Framework string

const (
	FrameworkJest      Framework = "jest"
	FrameworkVitest    Framework = "vitest"
	FrameworkMocha     Framework = "mocha"
	FrameworkJasmine   Framework = "jasmine"
	FrameworkAVA       Framework = "ava"
	FrameworkMinitest  Framework = "minitest"
	FrameworkPytest    Framework = "pytest"
	FrameworkUnittest  Framework = "unittest"
	FrameworkGoTest    Framework = "gotest"
	FrameworkJUnit     Framework = "junit"
	FrameworkCustom    Framework = "custom"
)

// Failure is one located failure extracted from runner output.
type Failure struct {
	File  string
	Line  int // 0 when unknown
	Error string
}

// Summary is the pass/fail/skip counts extracted from runner output,
// when present; fields are 0 when the runner didn't print them.
type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ParseResult is the canonical shape returned by ParseTestOutput (§4.D
// and §6's stable JSON shapes).
type ParseResult struct {
	Passed       bool
	FailingTests []string
	Failures     []Failure
	Summary      Summary
}

// Adapter is the capability set every per-language adapter implements
// (§9 Design Notes: "dynamic dispatch by language string becomes a
// registry of adapter objects conforming to a capability set").
type Adapter interface {
	Language() Language
	SupportedFrameworks() []Framework
	DefaultFramework() Framework
	DetectFramework(projectDir string) (Framework, bool)
	GetTestCommand(framework Framework, path string) (string, error)
	ParseTestOutput(output string, framework Framework) (ParseResult, error)
	GetFailurePatterns(framework Framework) []*regexp.Regexp
}

// dedupPreserveOrder removes duplicate strings, keeping the first
// occurrence, per §4.D "the failing test list is always deduplicated in
// first-seen order".
func dedupPreserveOrder(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
