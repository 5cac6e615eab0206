package internal

import (
	"os"
	"path/filepath"

	"github.com/DreamCats/fnindex/internal/config"
)

// ResolveDBPath returns the configured index database path, or the
// default ~/.fnindex/data/fnindex.db, creating the parent directory.
// A single database holds entries for every indexed repository.
func ResolveDBPath(cfg *config.Config) (string, error) {
	path := cfg.Database.Path
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(homeDir, ".fnindex", "data", "fnindex.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	return path, nil
}
