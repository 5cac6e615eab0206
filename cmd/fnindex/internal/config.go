package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/DreamCats/fnindex/internal/config"
)

// LoadConfig reads and parses the YAML config from path, falling back to
// the default location when path is empty.
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// DefaultConfigPath returns ~/.fnindex/config/fnindex.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".fnindex", "config", "fnindex.yaml"), nil
}

// PrintConfigExample prints a minimal YAML config example to stderr.
func PrintConfigExample() {
	configPath, _ := DefaultConfigPath()

	fmt.Fprintf(os.Stderr, `Create a configuration file at %s (or run 'fnindex init'):

corpus:
  roots:
    - ~/repos/my-service

embedding:
  provider: openai
  api_key: your-openai-api-key   # or set OPENAI_API_KEY
  model: text-embedding-3-small
  dimensions: 1536

Usage:
  1. Create the config file and set embedding.api_key
  2. Run: fnindex index
  3. Search: fnindex search "your query"
`, configPath)
}
