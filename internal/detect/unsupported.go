package detect

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// UnsupportedFinding names one unsupported framework detected in a
// project directory and the migration suggested to the user (§4.D
// "Unsupported frameworks").
type UnsupportedFinding struct {
	Name       string
	Reason     string
	Suggestion string
}

// unsupportedCheck is one entry in the pre-flight scan table.
type unsupportedCheck struct {
	name       string
	suggestion string
	detect     func(dir string) (bool, string)
}

var unsupportedChecks = []unsupportedCheck{
	{
		name:       "Django",
		suggestion: "migrate to pytest with pytest-django, or run Django's test runner outside tfq",
		detect: func(dir string) (bool, string) {
			if fileExists(filepath.Join(dir, "manage.py")) {
				return true, "found manage.py"
			}
			if manifestDeclaresAny(dir, "django") {
				return true, "\"django\" declared as a dependency"
			}
			return false, ""
		},
	},
	{
		name:       "nose2",
		suggestion: "migrate to pytest, which reads the same test discovery conventions",
		detect: func(dir string) (bool, string) {
			if manifestDeclaresAny(dir, "nose2") {
				return true, "\"nose2\" declared as a dependency"
			}
			if fileExists(filepath.Join(dir, "nose2.cfg")) {
				return true, "found nose2.cfg"
			}
			return false, ""
		},
	},
	{
		name:       "RSpec",
		suggestion: "migrate specs to Minitest, tfq's supported Ruby framework",
		detect: func(dir string) (bool, string) {
			if fileExists(filepath.Join(dir, ".rspec")) {
				return true, "found .rspec"
			}
			if gemfileHas(dir, "rspec") {
				return true, "\"rspec\" declared in Gemfile"
			}
			return false, ""
		},
	},
	{
		name:       "Cucumber",
		suggestion: "migrate feature files to Minitest-based integration tests",
		detect: func(dir string) (bool, string) {
			if dirExists(filepath.Join(dir, "features")) && gemfileHas(dir, "cucumber") {
				return true, "found features/ with \"cucumber\" in Gemfile"
			}
			return false, ""
		},
	},
	{
		name:       "Test::Unit",
		suggestion: "migrate to Minitest, the modern successor bundled with Ruby",
		detect: func(dir string) (bool, string) {
			if gemfileHas(dir, "test-unit") {
				return true, "\"test-unit\" declared in Gemfile"
			}
			return false, ""
		},
	},
}

// Scan runs the pre-flight unsupported-framework gate against dir and
// returns every match found.
func Scan(dir string) []UnsupportedFinding {
	var findings []UnsupportedFinding
	for _, check := range unsupportedChecks {
		if ok, reason := check.detect(dir); ok {
			findings = append(findings, UnsupportedFinding{
				Name:       check.name,
				Reason:     reason,
				Suggestion: check.suggestion,
			})
		}
	}
	return findings
}

// ErrUnsupportedFrameworks is returned by Guard when the scan finds at
// least one unsupported framework and bypass is false.
type ErrUnsupportedFrameworks struct {
	Findings []UnsupportedFinding
}

func (e *ErrUnsupportedFrameworks) Error() string {
	var b strings.Builder
	b.WriteString("unsupported test framework(s) detected:\n")
	for _, f := range e.Findings {
		fmt.Fprintf(&b, "  - %s (%s): %s\n", f.Name, f.Reason, f.Suggestion)
	}
	b.WriteString("pass --allow-unsupported to bypass this check")
	return b.String()
}

// Guard runs Scan and returns ErrUnsupportedFrameworks unless bypass is
// true or no findings surfaced (§4.D, §8 scenario S5).
func Guard(dir string, bypass bool) error {
	if bypass {
		return nil
	}
	findings := Scan(dir)
	if len(findings) == 0 {
		return nil
	}
	return &ErrUnsupportedFrameworks{Findings: findings}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func gemfileHas(dir, gem string) bool {
	for _, name := range []string{"Gemfile", "Gemfile.lock"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if strings.Contains(string(data), gem) {
			return true
		}
	}
	return false
}

func manifestDeclaresAny(dir, needle string) bool {
	for _, name := range []string{"requirements.txt", "Pipfile", "pyproject.toml", "setup.py"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(string(data)), needle) {
			return true
		}
	}
	return false
}
