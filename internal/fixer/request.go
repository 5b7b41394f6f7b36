package fixer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/neonwatty/tfq/internal/parser"
)

// Request is the fix request handed to the external fixer (§4.G step 2).
type Request struct {
	Path         string
	Contents     string
	Error        string
	RelatedFiles []string
	Language     parser.Language
	Framework    parser.Framework
}

// testSuffixes are stripped from a test file's stem before looking for
// sibling source files sharing the same base name.
var testSuffixes = []string{".test", ".spec", "_test", "_spec"}

// buildRequest assembles a Request for path, discovering candidate
// related source files among siblings and the parent directory (§4.G:
// "siblings with the test's base name stripped of .test/.spec/_test/
// _spec suffixes, across the language's known extensions").
func buildRequest(path, contents, accumulatedError string, language parser.Language, framework parser.Framework) Request {
	return Request{
		Path:         path,
		Contents:     contents,
		Error:        accumulatedError,
		RelatedFiles: findRelatedFiles(path, language),
		Language:     language,
		Framework:    framework,
	}
}

// BuildRequestPreview exposes buildRequest for the CLI's --dry-run flag
// (SUPPLEMENTED FEATURES 1): it lets a caller inspect the request a real
// FixNext would build — including discovered related files — without
// dequeuing anything or invoking the external fixer.
func BuildRequestPreview(path, contents, accumulatedError string, language parser.Language, framework parser.Framework) Request {
	return buildRequest(path, contents, accumulatedError, language, framework)
}

func findRelatedFiles(path string, language parser.Language) []string {
	dir := filepath.Dir(path)
	stem := stemOf(filepath.Base(path))
	extensions := extensionsForLanguage(language)
	if len(extensions) == 0 {
		return nil
	}

	seen := map[string]bool{}
	var related []string
	for _, searchDir := range []string{dir, filepath.Dir(dir)} {
		entries, err := os.ReadDir(searchDir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			ext := filepath.Ext(name)
			if !containsString(extensions, ext) {
				continue
			}
			full := filepath.Join(searchDir, name)
			if full == path || stemOf(name) != stem || seen[full] {
				continue
			}
			seen[full] = true
			related = append(related, full)
		}
	}
	sort.Strings(related)
	return related
}

func stemOf(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, suffix := range testSuffixes {
		stem = strings.TrimSuffix(stem, suffix)
	}
	return stem
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

func extensionsForLanguage(language parser.Language) []string {
	switch language {
	case parser.LanguageJavaScript:
		return []string{".js", ".jsx", ".ts", ".tsx", ".mjs"}
	case parser.LanguagePython:
		return []string{".py"}
	case parser.LanguageRuby:
		return []string{".rb"}
	case parser.LanguageGo:
		return []string{".go"}
	case parser.LanguageJava:
		return []string{".java"}
	default:
		return nil
	}
}
