package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	require.Equal(t, "openai", cfg.Embedding.Provider)
	require.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	require.Equal(t, 1536, cfg.Embedding.Dimensions)
	require.Equal(t, 100, cfg.Embedding.BatchSize)
	require.Equal(t, 3, cfg.Embedding.MaxRetries)
	require.Equal(t, []string{".go"}, cfg.Corpus.Include)
	require.Contains(t, cfg.Corpus.Exclude, "**/*_test.go")
	require.Contains(t, cfg.Corpus.ExcludeDirs, "vendor")
	require.Equal(t, 5, cfg.Search.DefaultLimit)
	require.Equal(t, 150, cfg.Search.PreviewChars)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Embedding.Model = "text-embedding-3-large"
	cfg.Embedding.Dimensions = 3072
	cfg.Corpus.Include = []string{".go", ".py"}
	cfg.ApplyDefaults()

	require.Equal(t, "text-embedding-3-large", cfg.Embedding.Model)
	require.Equal(t, 3072, cfg.Embedding.Dimensions)
	require.Equal(t, []string{".go", ".py"}, cfg.Corpus.Include)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.Embedding.APIKey = "sk-test"
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	cfg.Embedding.Provider = "acme"
	require.Error(t, cfg.Validate())

	cfg.Embedding.Provider = "openai"
	cfg.Embedding.BatchSize = 5000
	require.Error(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fnindex.yaml")
	content := `
corpus:
  roots:
    - /tmp/repo
embedding:
  api_key: sk-test
  model: text-embedding-3-small
search:
  default_limit: 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"/tmp/repo"}, cfg.Corpus.Roots)
	require.Equal(t, 8, cfg.Search.DefaultLimit)
	require.Equal(t, 1536, cfg.Embedding.Dimensions, "defaults fill unset fields")
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.True(t, IsConfigNotFound(err))
}

func TestWriteDefaultTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "fnindex.yaml")

	created, err := WriteDefaultTemplate(path)
	require.NoError(t, err)
	require.True(t, created)

	// A second call must not overwrite the existing file.
	created, err = WriteDefaultTemplate(path)
	require.NoError(t, err)
	require.False(t, created)
}
