// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// MemoryPath selects an in-memory database instead of a file.
const MemoryPath = ":memory:"

// ExpandPath expands a leading ~ and $VAR references in a file path.
// The in-memory marker is returned unchanged.
func ExpandPath(path string) string {
	if path == "" || path == MemoryPath {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}
