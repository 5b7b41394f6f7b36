// Package detect is the thin facade the runner and CLI use to identify
// a project's language and framework (§4.E); language and framework
// detection itself lives in the parser registry. The package also holds
// the pre-flight unsupported-framework gate (Scan, Guard), whose marker
// checks are implemented here.
package detect

import "github.com/neonwatty/tfq/internal/parser"

// Detector is the Project Detector component.
type Detector struct {
	registry *parser.Registry
}

// New builds a Detector over a parser Registry.
func New(registry *parser.Registry) *Detector {
	return &Detector{registry: registry}
}

// DetectLanguage identifies the language of dir.
func (d *Detector) DetectLanguage(dir string) (parser.Language, bool) {
	return d.registry.DetectLanguage(dir)
}

// DetectFramework identifies the framework of dir for a known language.
func (d *Detector) DetectFramework(language parser.Language, dir string) (parser.Framework, bool) {
	return d.registry.DetectFramework(language, dir)
}
