package config

import (
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func parentDir(d string) string { return filepath.Dir(d) }

// legacyDBPath is the alternative on-disk value noted in the Design
// Notes (§9): older installs sometimes wrote "./.tfq/queue.db" instead
// of the standardized "tfq.db". Load accepts it as a migration source
// but never writes it back out.
const legacyDBPath = "./.tfq/queue.db"

// Load discovers and parses the configuration file, normalizes the two
// competing on-disk shapes into Config, and applies the precedence
// chain explicit path > TFQ_DB_PATH env > database.path file value >
// default ~/.tfq/tfq.db.
func Load(explicitPath string) (Config, error) {
	// Best-effort local dev convenience; does not affect precedence.
	_ = godotenv.Load()

	cfg := defaultConfig()

	path := findConfigFile(explicitPath)
	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}

		var current tfqConfig
		var legacy legacyConfig
		_ = v.Unmarshal(&current)
		_ = v.Unmarshal(&legacy)

		normalized := normalize(current, legacy)
		if err := mergo.Merge(&cfg, normalized, mergo.WithOverride); err != nil {
			return Config{}, err
		}
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = DefaultDBPath()
	}
	if cfg.DatabasePath == legacyDBPath {
		cfg.DatabasePath = "./.tfq/tfq.db"
	}

	if env := os.Getenv("TFQ_DB_PATH"); env != "" {
		cfg.DatabasePath = env
	}

	resolved, err := ExpandPath(cfg.DatabasePath)
	if err != nil {
		return Config{}, err
	}
	cfg.DatabasePath = resolved

	if cfg.Fixer.TestTimeout < fixerTimeoutFloorMillis {
		cfg.Fixer.TestTimeout = fixerTimeoutFloorMillis
	}

	return cfg, nil
}

// normalize merges the current-shape and legacy-shape decodes of the
// same file into a single Config, preferring the current shape's
// database.path but falling back to the legacy flat databasePath.
func normalize(current tfqConfig, legacy legacyConfig) Config {
	out := Config{
		DatabasePath: current.Database.Path,
		Language:     firstNonEmpty(current.Language, legacy.Language),
		Framework:    firstNonEmpty(current.Framework, legacy.Framework),
		Defaults:     firstNonZeroDefaults(current.Defaults, legacy.Defaults),
		Workspaces:   firstNonNilMap(current.Workspaces, legacy.Workspaces),
		TestCommands: firstNonNilMap(current.TestCommands, legacy.TestCommands),
		MaxRetries:   firstPositive(current.MaxRetries, legacy.MaxRetries),
		Fixer:        firstNonZeroFixer(current.Fixer, legacy.Fixer),
	}
	if out.DatabasePath == "" {
		out.DatabasePath = legacy.DatabasePath
	}
	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstPositive(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

func firstNonNilMap(a, b map[string]string) map[string]string {
	if len(a) > 0 {
		return a
	}
	return b
}

func firstNonZeroDefaults(a, b Defaults) Defaults {
	if a.AutoAdd || a.Parallel != 0 {
		return a
	}
	return b
}

func firstNonZeroFixer(a, b FixerConfig) FixerConfig {
	if a.Enabled || a.Path != "" || a.TestTimeout != 0 || a.MaxIterations != 0 || a.Prompt != "" {
		return a
	}
	return b
}

func findConfigFile(explicit string) string {
	for _, p := range searchPaths(explicit) {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// WorkspaceDBPath walks up from dir looking for a configured workspace
// root in cfg.Workspaces and returns its dedicated db path. Supplements
// the single-db default for monorepos (SPEC_FULL.md SUPPLEMENTED
// FEATURES 3).
func WorkspaceDBPath(cfg Config, dir string) (string, bool) {
	if len(cfg.Workspaces) == 0 {
		return "", false
	}
	for d := dir; ; {
		if p, ok := cfg.Workspaces[d]; ok {
			resolved, err := ExpandPath(p)
			if err != nil {
				return "", false
			}
			return resolved, true
		}
		parent := parentDir(d)
		if parent == d {
			return "", false
		}
		d = parent
	}
}
