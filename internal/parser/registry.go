package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Registry is the registry of per-language adapters (§4.D).
type Registry struct {
	adapters map[Language]Adapter
}

// NewRegistry builds a Registry pre-populated with every built-in
// adapter.
func NewRegistry() *Registry {
	r := &Registry{adapters: map[Language]Adapter{}}
	for _, a := range []Adapter{
		NewRubyAdapter(),
		NewPythonAdapter(),
		NewJavaScriptAdapter(),
		NewGoAdapter(),
		NewJavaAdapter(),
	} {
		r.adapters[a.Language()] = a
	}
	return r
}

// Adapter returns the adapter for a language, if registered.
func (r *Registry) Adapter(language Language) (Adapter, bool) {
	a, ok := r.adapters[language]
	return a, ok
}

// GetFrameworksForLanguage returns the supported frameworks for a
// language.
func (r *Registry) GetFrameworksForLanguage(language Language) ([]Framework, bool) {
	a, ok := r.adapters[language]
	if !ok {
		return nil, false
	}
	return a.SupportedFrameworks(), true
}

// languageMarker is one step of the fixed priority chain used by
// DetectLanguage: language-specific marker files beat generic ones.
type languageMarker struct {
	language Language
	markers  []string
}

var languagePriority = []languageMarker{
	{LanguageRuby, []string{"Gemfile", "Gemfile.lock"}},
	{LanguagePython, []string{"requirements.txt", "setup.py", "pyproject.toml", "Pipfile"}},
	{LanguageJavaScript, []string{"package.json"}},
	{LanguageGo, []string{"go.mod"}},
	{LanguageJava, []string{"pom.xml", "build.gradle", "build.gradle.kts"}},
}

// DetectLanguage identifies the language of projectDir per §4.D's
// deterministic priority order, falling back to counting source files
// by extension when no marker file matches.
func (r *Registry) DetectLanguage(projectDir string) (Language, bool) {
	for _, step := range languagePriority {
		for _, marker := range step.markers {
			if fileExists(filepath.Join(projectDir, marker)) {
				return step.language, true
			}
		}
	}
	return detectLanguageByExtension(projectDir)
}

var extensionLanguage = map[string]Language{
	".rb":   LanguageRuby,
	".py":   LanguagePython,
	".js":   LanguageJavaScript,
	".jsx":  LanguageJavaScript,
	".ts":   LanguageJavaScript,
	".tsx":  LanguageJavaScript,
	".mjs":  LanguageJavaScript,
	".go":   LanguageGo,
	".java": LanguageJava,
}

var ignoredDirNames = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	".git":         true,
}

// detectLanguageByExtension counts source files by extension,
// excluding hidden directories and common vendor folders; the largest
// count wins.
func detectLanguageByExtension(projectDir string) (Language, bool) {
	counts := map[Language]int{}

	_ = filepath.WalkDir(projectDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != projectDir && (strings.HasPrefix(name, ".") || ignoredDirNames[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if lang, ok := extensionLanguage[filepath.Ext(path)]; ok {
			counts[lang]++
		}
		return nil
	})

	var best Language
	bestCount := 0
	for lang, count := range counts {
		if count > bestCount {
			best = lang
			bestCount = count
		}
	}
	if bestCount == 0 {
		return LanguageUnknown, false
	}
	return best, true
}

// DetectFramework delegates to the language's adapter.
func (r *Registry) DetectFramework(language Language, projectDir string) (Framework, bool) {
	a, ok := r.adapters[language]
	if !ok {
		return "", false
	}
	return a.DetectFramework(projectDir)
}

// GetTestCommand delegates to the language's adapter.
func (r *Registry) GetTestCommand(language Language, framework Framework, path string) (string, error) {
	a, ok := r.adapters[language]
	if !ok {
		return "", fmt.Errorf("unsupported language %q", language)
	}
	return a.GetTestCommand(framework, path)
}

// ParseTestOutput delegates to the language's adapter. Malformed
// output never errors (§4.D, §7 Parse): adapters already degrade to
// an empty failing-test list internally, so errors here only reflect
// an unknown language/framework pairing.
func (r *Registry) ParseTestOutput(language Language, framework Framework, output string) (ParseResult, error) {
	a, ok := r.adapters[language]
	if !ok {
		return ParseResult{}, fmt.Errorf("unsupported language %q", language)
	}
	return a.ParseTestOutput(output, framework)
}

// GetFailurePatterns delegates to the language's adapter.
func (r *Registry) GetFailurePatterns(language Language, framework Framework) ([]string, error) {
	a, ok := r.adapters[language]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", language)
	}
	patterns := a.GetFailurePatterns(framework)
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, p.String())
	}
	return out, nil
}
