// Package cli wires the cobra command surface (§6) over the queue,
// grouping, parser, detect, runner, and fixer packages. Following the
// teacher's cmd/app.go split of "build the collaborators" from
// "register the commands," every command's RunE calls into an App
// rather than constructing its own dependencies.
package cli

import (
	"fmt"
	"os"

	"github.com/neonwatty/tfq/internal/config"
	"github.com/neonwatty/tfq/internal/detect"
	"github.com/neonwatty/tfq/internal/fixer"
	"github.com/neonwatty/tfq/internal/grouping"
	"github.com/neonwatty/tfq/internal/logger"
	"github.com/neonwatty/tfq/internal/parser"
	"github.com/neonwatty/tfq/internal/queue"
	"github.com/neonwatty/tfq/internal/runner"
	"github.com/neonwatty/tfq/internal/store"
)

// App holds every collaborator a command might need, built lazily from
// global flags the first time a command touches the store.
type App struct {
	ConfigPath string
	JSON       bool
	Debug      bool

	cfg      config.Config
	store    *store.Store
	engine   *queue.Engine
	planner  *grouping.Planner
	registry *parser.Registry
	detector *detect.Detector
	driver   *runner.Driver
	log      *logger.Logger

	loaded bool
}

// load reads configuration and opens the store exactly once per
// invocation (§4.A "one store per process").
func (a *App) load() error {
	if a.loaded {
		return nil
	}

	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var opts []logger.Option
	if a.Debug {
		opts = append(opts, logger.WithDebug())
	}
	a.log = logger.New(opts...)

	if cwd, err := os.Getwd(); err == nil {
		if wsPath, ok := config.WorkspaceDBPath(cfg, cwd); ok {
			cfg.DatabasePath = wsPath
		}
	}

	s, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store %s: %w", cfg.DatabasePath, err)
	}

	a.cfg = cfg
	a.store = s
	a.engine = queue.New(s)
	a.planner = grouping.New(s)
	a.registry = parser.NewRegistry()
	a.detector = detect.New(a.registry)
	a.driver = runner.New(a.registry)
	a.loaded = true
	return nil
}

// Close releases the store, if one was opened.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// newFixerLoop builds a fixer.Loop over the app's collaborators for the
// fix-next/fix-all commands.
func (a *App) newFixerLoop() *fixer.Loop {
	f := fixer.NewSubprocessFixer(a.cfg.Fixer)
	loop := fixer.NewLoop(a.engine, a.driver, f, a.cfg.Fixer, a.cfg.MaxRetries)
	loop.Language = parser.Language(a.cfg.Language)
	loop.Framework = parser.Framework(a.cfg.Framework)
	loop.TestCommands = a.cfg.TestCommands
	return loop
}
