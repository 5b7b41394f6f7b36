package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

type pythonAdapter struct{}

// NewPythonAdapter builds the Python adapter, supporting pytest and
// unittest. nose2 is handled only by the unsupported-framework gate.
func NewPythonAdapter() Adapter { return pythonAdapter{} }

func (pythonAdapter) Language() Language { return LanguagePython }

func (pythonAdapter) SupportedFrameworks() []Framework {
	return []Framework{FrameworkPytest, FrameworkUnittest}
}

func (a pythonAdapter) DefaultFramework() Framework { return a.SupportedFrameworks()[0] }

func (pythonAdapter) DetectFramework(projectDir string) (Framework, bool) {
	var signals []frameworkSignal

	if fileExists(filepath.Join(projectDir, "pytest.ini")) {
		signals = append(signals, frameworkSignal{Framework: FrameworkPytest, Confidence: confidenceConfigFile})
	}
	if pyprojectHasSection(projectDir, "tool.pytest.ini_options") {
		signals = append(signals, frameworkSignal{Framework: FrameworkPytest, Confidence: confidenceConfigFile})
	}
	if fileContains(filepath.Join(projectDir, "tox.ini"), "[pytest]") {
		signals = append(signals, frameworkSignal{Framework: FrameworkPytest, Confidence: confidenceConfigFile})
	}

	if manifestDeclaresDep(projectDir, "pytest") {
		signals = append(signals, frameworkSignal{Framework: FrameworkPytest, Confidence: confidenceDependency})
	}

	for _, dir := range []string{"tests", "test"} {
		if dirExists(filepath.Join(projectDir, dir)) {
			signals = append(signals, frameworkSignal{Framework: FrameworkPytest, Confidence: confidenceTestDir})
			break
		}
	}

	return resolveSignals(signals, pythonAdapter{}.SupportedFrameworks())
}

func (pythonAdapter) GetTestCommand(framework Framework, path string) (string, error) {
	switch framework {
	case FrameworkPytest:
		if path != "" {
			return fmt.Sprintf("pytest %s", path), nil
		}
		return "pytest", nil
	case FrameworkUnittest:
		if path != "" {
			return fmt.Sprintf("python -m unittest %s", modulePathFromFile(path)), nil
		}
		return "python -m unittest discover", nil
	default:
		return "", fmt.Errorf("unsupported python framework %q", framework)
	}
}

var (
	pytestFailedRe  = regexp.MustCompile(`(?m)^FAILED\s+(\S+?)(?:::\S+)?(?:\s|$)`)
	pytestSectionRe = regexp.MustCompile(`(?m)^_{3,}\s+(.+?)\s+_{3,}\s*$`)
	pytestSummaryRe = regexp.MustCompile(`(\d+)\s+passed(?:,\s*(\d+)\s+failed)?(?:,\s*(\d+)\s+skipped)?`)

	unittestFailRe    = regexp.MustCompile(`(?m)^FAIL:\s+\S+\s+\(([\w.]+)\)`)
	unittestSummaryRe = regexp.MustCompile(`Ran (\d+) tests?`)
)

func (pythonAdapter) GetFailurePatterns(framework Framework) []*regexp.Regexp {
	switch framework {
	case FrameworkPytest:
		return []*regexp.Regexp{pytestFailedRe, pytestSectionRe, pytestSummaryRe}
	case FrameworkUnittest:
		return []*regexp.Regexp{unittestFailRe, unittestSummaryRe}
	default:
		return nil
	}
}

func (pythonAdapter) ParseTestOutput(output string, framework Framework) (ParseResult, error) {
	switch framework {
	case FrameworkPytest:
		return parsePytest(output), nil
	case FrameworkUnittest:
		return parseUnittest(output), nil
	default:
		return ParseResult{}, fmt.Errorf("unsupported python framework %q", framework)
	}
}

func parsePytest(output string) ParseResult {
	var failing []string
	for _, m := range pytestFailedRe.FindAllStringSubmatch(output, -1) {
		failing = append(failing, m[1])
	}
	for _, m := range pytestSectionRe.FindAllStringSubmatch(output, -1) {
		header := strings.TrimSpace(m[1])
		// Section headers are either a bare file path or "file::nodeid".
		if idx := strings.Index(header, "::"); idx >= 0 {
			header = header[:idx]
		}
		if looksLikePath(header) {
			failing = append(failing, header)
		}
	}
	failing = dedupPreserveOrder(failing)

	summary := Summary{}
	if m := pytestSummaryRe.FindStringSubmatch(output); m != nil {
		summary.Passed = atoiOrZero(m[1])
		summary.Failed = atoiOrZero(m[2])
		summary.Skipped = atoiOrZero(m[3])
		summary.Total = summary.Passed + summary.Failed + summary.Skipped
	}

	return ParseResult{
		Passed:       len(failing) == 0,
		FailingTests: failing,
		Failures:     toFailures(failing),
		Summary:      summary,
	}
}

func parseUnittest(output string) ParseResult {
	var failing []string
	for _, m := range unittestFailRe.FindAllStringSubmatch(output, -1) {
		failing = append(failing, filePathFromModule(m[1]))
	}
	failing = dedupPreserveOrder(failing)

	summary := Summary{}
	if m := unittestSummaryRe.FindStringSubmatch(output); m != nil {
		summary.Total = atoiOrZero(m[1])
	}
	summary.Failed = len(failing)
	summary.Passed = summary.Total - summary.Failed

	return ParseResult{
		Passed:       len(failing) == 0,
		FailingTests: failing,
		Failures:     toFailures(failing),
		Summary:      summary,
	}
}

// filePathFromModule converts unittest's dotted "(module.path.ClassName)"
// form back into a file path by dropping the trailing class component
// and translating the remaining dots into path separators (§4.D
// unittest parsing).
func filePathFromModule(dotted string) string {
	parts := strings.Split(dotted, ".")
	if len(parts) > 1 {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, "/") + ".py"
}

func modulePathFromFile(path string) string {
	trimmed := strings.TrimSuffix(path, ".py")
	return strings.ReplaceAll(trimmed, "/", ".")
}

func looksLikePath(s string) bool {
	return strings.Contains(s, "/") || strings.HasSuffix(s, ".py")
}

func manifestDeclaresDep(projectDir, dep string) bool {
	candidates := []string{"requirements.txt", "Pipfile", "pyproject.toml", "setup.py"}
	for _, name := range candidates {
		if fileContains(filepath.Join(projectDir, name), dep) {
			return true
		}
	}
	return false
}

func fileContains(path, substr string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), substr)
}

func pyprojectHasSection(projectDir, section string) bool {
	return fileContains(filepath.Join(projectDir, "pyproject.toml"), "["+section+"]")
}
