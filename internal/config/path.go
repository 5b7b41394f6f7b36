package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// ExpandPath resolves "~" to the user home directory and joins relative
// paths onto the current working directory (§4.A); absolute paths are
// returned unchanged.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, path), nil
}

// DefaultDBPath returns ~/.tfq/tfq.db, falling back to XDG's data home
// when HOME is unset (e.g. minimal containers), matching the teacher's
// use of adrg/xdg for portable default locations.
func DefaultDBPath() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".tfq", "tfq.db")
	}
	return filepath.Join(xdg.DataHome, "tfq", "tfq.db")
}

// searchPaths returns the configuration file discovery order (§6):
// explicit path first (if non-empty), then ./.tfqrc, $HOME/.tfqrc,
// $HOME/.tfq/config.json.
func searchPaths(explicit string) []string {
	var paths []string
	if explicit != "" {
		paths = append(paths, explicit)
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".tfqrc"))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".tfqrc"))
		paths = append(paths, filepath.Join(home, ".tfq", "config.json"))
	}
	return paths
}
