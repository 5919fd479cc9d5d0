// Package config loads permit processing settings from viper, falling
// back to built-in defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DefaultDir is the per-user configuration and data directory.
func DefaultDir() string {
	return ExpandPath("~/.config/permits")
}

// DefaultDatabasePath is where imported permits are stored.
func DefaultDatabasePath() string {
	return filepath.Join(DefaultDir(), "permits.db")
}
