package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search,omitempty"`
	Classify  ClassifyConfig  `yaml:"classify,omitempty"`
}

// CorpusConfig describes which files are eligible for extraction
type CorpusConfig struct {
	// Roots lists the repository roots to crawl
	Roots []string `yaml:"roots"`

	// Include lists source file extensions to index (e.g. ".go")
	Include []string `yaml:"include,omitempty"`

	// Exclude lists doublestar glob patterns; a match excludes the file
	Exclude []string `yaml:"exclude,omitempty"`

	// ExcludeDirs lists directory names skipped entirely during the walk
	ExcludeDirs []string `yaml:"exclude_dirs,omitempty"`
}

// EmbeddingConfig holds embedding provider configuration
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "openai"

	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"` // OpenAI-compatible endpoint override
	Model   string `yaml:"model"`

	Dimensions int `yaml:"dimensions"`  // 1536 | 3072
	BatchSize  int `yaml:"batch_size"`  // Items per embedding API call
	MaxRetries int `yaml:"max_retries"` // Attempts per batch before marking it failed
	TimeoutSec int `yaml:"timeout_sec"` // Per-request timeout
	Workers    int `yaml:"workers"`     // Concurrent embedding batches
}

// DatabaseConfig holds index storage configuration
type DatabaseConfig struct {
	// Path to the SQLite index file
	// If empty, uses ~/.fnindex/data/fnindex.db
	Path string `yaml:"path,omitempty"`
}

// SearchConfig holds search-specific configuration
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit,omitempty"` // Default number of results
	PreviewChars int `yaml:"preview_chars,omitempty"` // Preview excerpt bound
}

// KeywordRule binds one keyword to a category for the classifier
type KeywordRule struct {
	Keyword  string `yaml:"keyword"`
	Category string `yaml:"category"`
}

// ClassifyConfig overrides the default classifier keyword lists.
// Rules are evaluated in the order they appear; path rules before name rules.
type ClassifyConfig struct {
	PathRules []KeywordRule `yaml:"path_rules,omitempty"`
	NameRules []KeywordRule `yaml:"name_rules,omitempty"`
}

// Load loads configuration from the default config file
// Default location: ~/.fnindex/config/fnindex.yaml
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".fnindex", "config", "fnindex.yaml")
	return LoadFromFile(configPath)
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			homeDir, _ := os.UserHomeDir()
			defaultPath := filepath.Join(homeDir, ".fnindex", "config", "fnindex.yaml")
			return nil, &ConfigNotFoundError{
				RequestedPath: path,
				DefaultPath:   defaultPath,
			}
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ConfigNotFoundError is returned when config file is not found
type ConfigNotFoundError struct {
	RequestedPath string
	DefaultPath   string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file not found at: %s\n\nDefault location: %s\n\nYou can:\n"+
		"  1. Create the config file at the default location\n"+
		"  2. Specify a custom path with -config flag\n"+
		"  3. Run 'fnindex init' to create a config template",
		e.RequestedPath, e.DefaultPath)
}

// IsConfigNotFound checks if error is config not found
func IsConfigNotFound(err error) bool {
	_, ok := err.(*ConfigNotFoundError)
	return ok
}

// expandPath expands ~ and $HOME to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "$HOME/") || path == "$HOME" {
		homeDir := os.Getenv("HOME")
		if homeDir == "" {
			var err error
			homeDir, err = os.UserHomeDir()
			if err != nil {
				return path
			}
		}
		if path == "$HOME" {
			return homeDir
		}
		return filepath.Join(homeDir, path[6:])
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return homeDir
		}
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// ApplyDefaults sets default values for missing configuration
func (c *Config) ApplyDefaults() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = 100
	}
	if c.Embedding.MaxRetries == 0 {
		c.Embedding.MaxRetries = 3
	}
	if c.Embedding.TimeoutSec == 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Embedding.Workers == 0 {
		c.Embedding.Workers = 4
	}

	if c.Database.Path != "" {
		c.Database.Path = expandPath(c.Database.Path)
	}

	if len(c.Corpus.Include) == 0 {
		c.Corpus.Include = []string{".go"}
	}
	if len(c.Corpus.Exclude) == 0 {
		c.Corpus.Exclude = []string{
			"**/*_test.go",
			"**/*.pb.go",
			"**/*.gen.go",
			"**/mock_*.go",
			"**/*generated*",
		}
	}
	if len(c.Corpus.ExcludeDirs) == 0 {
		c.Corpus.ExcludeDirs = []string{
			"vendor", "third_party", "testdata", "mocks", "node_modules", ".git",
		}
	}
	for i, root := range c.Corpus.Roots {
		c.Corpus.Roots[i] = expandPath(root)
	}

	if c.Search.DefaultLimit == 0 {
		c.Search.DefaultLimit = 5
	}
	if c.Search.PreviewChars == 0 {
		c.Search.PreviewChars = 150
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "openai":
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("openai provider requires api_key (or OPENAI_API_KEY)")
		}
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}

	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("dimensions must not be negative, got: %d", c.Embedding.Dimensions)
	}

	if c.Embedding.BatchSize <= 0 || c.Embedding.BatchSize > 2048 {
		return fmt.Errorf("batch_size must be between 1 and 2048, got: %d", c.Embedding.BatchSize)
	}

	if c.Embedding.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got: %d", c.Embedding.Workers)
	}

	return nil
}

const defaultConfigTemplate = `# fnindex Configuration
#
# Copy and edit this file for your environment.
# Default location: $HOME/.fnindex/config/fnindex.yaml

corpus:
  # Repository roots to crawl
  roots:
    - ~/repos/my-service

  # Source extensions to index
  # include: [".go"]

  # Exclusion globs (tests, generated code) and skipped directories
  # exclude: ["**/*_test.go", "**/*.pb.go", "**/*.gen.go", "**/mock_*.go"]
  # exclude_dirs: ["vendor", "third_party", "testdata", "mocks", ".git"]

embedding:
  provider: openai
  api_key: your-openai-api-key   # or set OPENAI_API_KEY
  model: text-embedding-3-small
  dimensions: 1536
  batch_size: 100
  max_retries: 3
  timeout_sec: 30
  workers: 4

search:
  default_limit: 5
  preview_chars: 150
`

// WriteDefaultTemplate creates a default configuration file if it does not exist.
// It returns true if a file was created, false if it already existed.
func WriteDefaultTemplate(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0644); err != nil {
		return false, fmt.Errorf("failed to write config template: %w", err)
	}

	return true, nil
}
