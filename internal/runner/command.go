package runner

import (
	"context"
	"fmt"
	"os"

	"github.com/neonwatty/tfq/internal/parser"
	"mvdan.cc/sh/v3/shell"
)

// resolveCommand picks the shell command to run per §4.F's precedence:
// explicit override, then config testCommands["language:framework"],
// then the adapter default.
func resolveCommand(registry *parser.Registry, language parser.Language, framework parser.Framework, path, override string, testCommands map[string]string) (string, error) {
	if override != "" {
		return override, nil
	}
	if testCommands != nil {
		key := fmt.Sprintf("%s:%s", language, framework)
		if cmd, ok := testCommands[key]; ok && cmd != "" {
			return cmd, nil
		}
	}
	return registry.GetTestCommand(language, framework, path)
}

// splitCommand breaks a shell command string into argv the way a POSIX
// shell would, honoring quoting, so commands like `pytest "a b.py"` split
// into two tokens rather than three.
func splitCommand(command string) ([]string, error) {
	fields, err := shell.Fields(context.Background(), command, func(name string) string {
		return os.Getenv(name)
	})
	if err != nil {
		return nil, fmt.Errorf("split command %q: %w", command, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return fields, nil
}
