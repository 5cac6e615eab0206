package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/DreamCats/fnindex/internal/config"
	"github.com/DreamCats/fnindex/internal/embedding"
	"github.com/DreamCats/fnindex/internal/extract"
	"github.com/DreamCats/fnindex/internal/store"
)

// stubClient returns deterministic small vectors, or fails every call.
type stubClient struct {
	fail bool
}

func (c *stubClient) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if c.fail {
		return nil, fmt.Errorf("provider unavailable")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)%7 + 1), 1, 0}
	}
	return out, nil
}

func (c *stubClient) Dimensions() int { return 3 }

func newTestIndexer(t *testing.T, dbPath string, client embedding.Client) *Indexer {
	t.Helper()
	cfg := &config.Config{}
	cfg.ApplyDefaults()

	db, err := store.Open(dbPath)
	require.NoError(t, err)

	// MaxRetries 1 keeps failing tests fast: no backoff sleeps.
	svc := embedding.NewServiceWithClient(&config.EmbeddingConfig{
		BatchSize:  100,
		MaxRetries: 1,
		Workers:    2,
	}, client)

	idx := NewWith(cfg, db, svc)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const authSource = `package auth

// ValidateToken checks a JWT token signature and expiry.
func ValidateToken(token string) error {
	return nil
}

type Service struct{}

func (s *Service) HandleLogin() {}
`

func TestIndex_HappyPath(t *testing.T) {
	repo := t.TempDir()
	writeFile(t, repo, "auth/token.go", authSource)

	idx := newTestIndexer(t, filepath.Join(t.TempDir(), "index.db"), &stubClient{})

	report, err := idx.Index(context.Background(), []string{repo})
	require.NoError(t, err)

	require.Equal(t, 1, report.FilesIndexed)
	require.Equal(t, 0, report.FilesSkipped)
	require.Equal(t, 2, report.UnitsExtracted)
	require.Equal(t, 2, report.UnitsEmbedded)
	require.Equal(t, 0, report.UnitsFailed)

	count, err := idx.Vectors().Count()
	require.NoError(t, err)
	require.Equal(t, 2, count)

	matches, err := idx.Vectors().Query([]float32{1, 1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	repoName := filepath.Base(repo)
	for _, m := range matches {
		require.Contains(t, m.ID, repoName+"/auth/token.go:")
		require.Equal(t, repoName, m.Metadata["repo"])
		require.Equal(t, "auth/token.go", m.Metadata["file"])
		require.NotEmpty(t, m.Metadata["category"])
	}
}

func TestIndex_SkipsUnparseableFiles(t *testing.T) {
	repo := t.TempDir()
	writeFile(t, repo, "auth/token.go", authSource)
	writeFile(t, repo, "broken/bad.go", "package broken\nfunc oops( {\n")

	idx := newTestIndexer(t, filepath.Join(t.TempDir(), "index.db"), &stubClient{})

	report, err := idx.Index(context.Background(), []string{repo})
	require.NoError(t, err, "a broken file must not abort the run")

	require.Equal(t, 1, report.FilesSkipped)
	require.Equal(t, 1, report.FilesIndexed)
	require.Equal(t, 2, report.UnitsExtracted)
	require.Equal(t, 2, report.UnitsEmbedded)
}

func TestIndex_FailedEmbeddingsLeaveIndexIntact(t *testing.T) {
	repo := t.TempDir()
	writeFile(t, repo, "auth/token.go", authSource)
	dbPath := filepath.Join(t.TempDir(), "index.db")

	idx := newTestIndexer(t, dbPath, &stubClient{})
	_, err := idx.Index(context.Background(), []string{repo})
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	// Re-run with the provider down: everything fails, nothing is written,
	// and the previous run's entries survive.
	idx2 := newTestIndexer(t, dbPath, &stubClient{fail: true})
	report, err := idx2.Index(context.Background(), []string{repo})
	require.NoError(t, err)

	require.Equal(t, 2, report.UnitsFailed)
	require.Equal(t, 0, report.UnitsEmbedded)

	count, err := idx2.Vectors().Count()
	require.NoError(t, err)
	require.Equal(t, 2, count, "index count must be unchanged after a failed run")
}

func TestIndex_Idempotent(t *testing.T) {
	repo := t.TempDir()
	writeFile(t, repo, "auth/token.go", authSource)

	idx := newTestIndexer(t, filepath.Join(t.TempDir(), "index.db"), &stubClient{})

	first, err := idx.Index(context.Background(), []string{repo})
	require.NoError(t, err)
	second, err := idx.Index(context.Background(), []string{repo})
	require.NoError(t, err)

	require.Equal(t, first.UnitsExtracted, second.UnitsExtracted)

	count, err := idx.Vectors().Count()
	require.NoError(t, err)
	require.Equal(t, first.UnitsEmbedded, count, "re-indexing must not duplicate entries")
}

func TestIndex_PrunesDeletedUnits(t *testing.T) {
	repo := t.TempDir()
	writeFile(t, repo, "auth/token.go", authSource)
	writeFile(t, repo, "orders/create.go", "package orders\n\nfunc CreateOrder() {}\n")

	idx := newTestIndexer(t, filepath.Join(t.TempDir(), "index.db"), &stubClient{})

	_, err := idx.Index(context.Background(), []string{repo})
	require.NoError(t, err)
	count, err := idx.Vectors().Count()
	require.NoError(t, err)
	require.Equal(t, 3, count)

	require.NoError(t, os.Remove(filepath.Join(repo, "orders", "create.go")))

	_, err = idx.Index(context.Background(), []string{repo})
	require.NoError(t, err)
	count, err = idx.Vectors().Count()
	require.NoError(t, err)
	require.Equal(t, 2, count, "entries for deleted files must be pruned")
}

func TestIndex_CountsFilesWithoutParser(t *testing.T) {
	repo := t.TempDir()
	writeFile(t, repo, "auth/token.go", authSource)
	writeFile(t, repo, "scripts/load.py", "def load():\n    pass\n")

	cfg := &config.Config{}
	cfg.Corpus.Include = []string{".go", ".py"}
	cfg.ApplyDefaults()

	db, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)

	svc := embedding.NewServiceWithClient(&config.EmbeddingConfig{
		BatchSize:  100,
		MaxRetries: 1,
		Workers:    2,
	}, &stubClient{})

	idx := NewWith(cfg, db, svc)
	t.Cleanup(func() { idx.Close() })

	report, err := idx.Index(context.Background(), []string{repo})
	require.NoError(t, err)

	require.Equal(t, 1, report.FilesSkipped, "an included file with no parser is counted as skipped")
	require.Equal(t, 1, report.FilesIndexed)
	require.Equal(t, 2, report.UnitsExtracted)
}

func TestAssignIdentities_Collisions(t *testing.T) {
	units := []extract.Unit{
		{Repository: "shop", RelPath: "cache.go", Name: "Get", Receiver: "MemCache"},
		{Repository: "shop", RelPath: "cache.go", Name: "Get", Receiver: "DiskCache"},
		{Repository: "shop", RelPath: "cache.go", Name: "Set", Receiver: "MemCache"},
	}
	assignIdentities(units)

	require.Equal(t, "shop/cache.go:Get", units[0].Identity)
	require.Equal(t, "shop/cache.go:Get#2", units[1].Identity)
	require.Equal(t, "shop/cache.go:Set", units[2].Identity)
}

func TestBuildDocument(t *testing.T) {
	u := extract.Unit{
		Doc:       "ValidateToken checks a token.",
		Signature: "func ValidateToken(token string) error",
		Body:      "func ValidateToken(token string) error {\n\treturn nil\n}",
	}
	doc := buildDocument(u)
	require.Contains(t, doc, u.Doc)
	require.Contains(t, doc, u.Signature)

	long := extract.Unit{
		Signature: "func Big()",
		Body:      string(make([]byte, 5000)),
	}
	require.LessOrEqual(t, len(buildDocument(long)), len(long.Signature)+1+documentBodyChars)
}

func TestBuildDocument_TruncatesOnRuneBoundary(t *testing.T) {
	// Place a multibyte rune across the truncation boundary.
	u := extract.Unit{
		Signature: "func Check()",
		Body:      strings.Repeat("x", documentBodyChars-1) + "数据校验",
	}
	doc := buildDocument(u)
	require.True(t, utf8.ValidString(doc), "truncated document must stay valid UTF-8")
	require.LessOrEqual(t, len(doc), len(u.Signature)+1+documentBodyChars)
}
