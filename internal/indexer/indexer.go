package indexer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/DreamCats/fnindex/internal/classify"
	"github.com/DreamCats/fnindex/internal/config"
	"github.com/DreamCats/fnindex/internal/corpus"
	"github.com/DreamCats/fnindex/internal/embedding"
	"github.com/DreamCats/fnindex/internal/extract"
	"github.com/DreamCats/fnindex/internal/store"
)

// documentBodyChars bounds how much of a function body goes into the
// embedded document. Long bodies add noise without improving recall.
const documentBodyChars = 500

// Report summarizes a completed index run.
type Report struct {
	FilesIndexed   int
	FilesSkipped   int
	UnitsExtracted int
	UnitsEmbedded  int
	UnitsFailed    int
	ByCategory     map[string]int
	Duration       time.Duration
}

// Indexer runs the crawl -> extract -> classify -> embed -> store pipeline.
type Indexer struct {
	cfg        *config.Config
	db         *store.DB
	vectors    *store.VectorStore
	registry   *extract.Registry
	crawler    *corpus.Crawler
	classifier *classify.Classifier
	embed      *embedding.Service
	progress   ProgressReporter
}

// New wires an Indexer from configuration, opening the database at dbPath.
func New(cfg *config.Config, dbPath string) (*Indexer, error) {
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	svc, err := embedding.NewService(&cfg.Embedding)
	if err != nil {
		db.Close()
		return nil, err
	}
	return NewWith(cfg, db, svc), nil
}

// NewWith wires an Indexer from already-constructed dependencies.
func NewWith(cfg *config.Config, db *store.DB, svc *embedding.Service) *Indexer {
	return &Indexer{
		cfg:      cfg,
		db:       db,
		vectors:  store.NewVectorStore(db),
		registry: extract.DefaultRegistry(),
		crawler: corpus.NewCrawler(corpus.Options{
			IncludeExts:  cfg.Corpus.Include,
			ExcludeGlobs: cfg.Corpus.Exclude,
			ExcludeDirs:  cfg.Corpus.ExcludeDirs,
		}),
		classifier: classify.New(cfg.Classify),
		embed:      svc,
	}
}

// SetProgress installs a progress reporter. A nil reporter disables reporting.
func (idx *Indexer) SetProgress(p ProgressReporter) {
	idx.progress = p
}

// Vectors exposes the underlying vector store, shared with search.
func (idx *Indexer) Vectors() *store.VectorStore {
	return idx.vectors
}

// Close releases the database handle.
func (idx *Indexer) Close() error {
	return idx.db.Close()
}

// Index crawls the given repository roots and rebuilds the index. Unreadable
// and unparseable files are skipped and counted; a failed embedding batch
// fails only its own units. Entries for units that no longer exist in the
// corpus are pruned at the end of the run.
func (idx *Indexer) Index(ctx context.Context, roots []string) (*Report, error) {
	started := time.Now()
	report := &Report{ByCategory: make(map[string]int)}

	var units []extract.Unit
	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve root %s: %w", root, err)
		}
		repoName := filepath.Base(absRoot)

		files, err := idx.crawler.Crawl(absRoot)
		if err != nil {
			return nil, fmt.Errorf("crawl %s: %w", absRoot, err)
		}
		for _, rel := range files {
			parser, ok := idx.registry.ForFile(rel)
			if !ok {
				log.Printf("skip %s: no parser registered for extension %s", rel, filepath.Ext(rel))
				report.FilesSkipped++
				continue
			}
			src, err := os.ReadFile(filepath.Join(absRoot, rel))
			if err != nil {
				log.Printf("skip unreadable file %s: %v", rel, err)
				report.FilesSkipped++
				continue
			}
			parsed, err := parser.Parse(rel, src)
			if err != nil {
				log.Printf("skip unparseable file %s: %v", rel, err)
				report.FilesSkipped++
				continue
			}
			report.FilesIndexed++
			for _, u := range parsed {
				u.Repository = repoName
				u.RelPath = rel
				u.Category = string(idx.classifier.Classify(rel, u.Name, u.Receiver))
				units = append(units, u)
			}
		}
	}

	assignIdentities(units)
	report.UnitsExtracted = len(units)
	for _, u := range units {
		report.ByCategory[u.Category]++
	}

	if len(units) == 0 {
		report.Duration = time.Since(started)
		return report, nil
	}

	items := make([]embedding.Item, len(units))
	for i, u := range units {
		items[i] = embedding.Item{Identity: u.Identity, Document: buildDocument(u)}
	}

	if idx.progress != nil {
		idx.progress.Start(len(items))
	}
	results, err := idx.embed.GenerateAll(ctx, items, func(n int) {
		if idx.progress != nil {
			idx.progress.Add(n)
		}
	})
	if idx.progress != nil {
		idx.progress.Finish()
	}
	if err != nil {
		return nil, err
	}

	var entries []store.Entry
	for i, res := range results {
		if res.Failed() {
			report.UnitsFailed++
			continue
		}
		entries = append(entries, store.Entry{
			ID:       res.Identity,
			Vector:   res.Vector,
			Document: items[i].Document,
			Metadata: unitMetadata(units[i]),
		})
	}
	report.UnitsEmbedded = len(entries)

	if len(entries) > 0 {
		if err := idx.vectors.Upsert(entries); err != nil {
			return nil, fmt.Errorf("store vectors: %w", err)
		}
	}

	// Prune entries whose units vanished from the corpus. Units whose
	// embedding failed this run stay in the keep set so an earlier good
	// vector is not thrown away.
	keep := make([]string, len(units))
	for i, u := range units {
		keep[i] = u.Identity
	}
	removed, err := idx.vectors.DeleteExcept(keep)
	if err != nil {
		return nil, fmt.Errorf("prune stale entries: %w", err)
	}
	if removed > 0 {
		log.Printf("pruned %d stale entries", removed)
	}

	report.Duration = time.Since(started)
	return report, nil
}

// assignIdentities gives every unit a stable identity of the form
// repo/path:name, disambiguating collisions (same-named methods on
// different receivers in one file) with a #N suffix.
func assignIdentities(units []extract.Unit) {
	seen := make(map[string]int, len(units))
	for i := range units {
		base := fmt.Sprintf("%s/%s:%s", units[i].Repository, units[i].RelPath, units[i].Name)
		seen[base]++
		if n := seen[base]; n > 1 {
			units[i].Identity = fmt.Sprintf("%s#%d", base, n)
		} else {
			units[i].Identity = base
		}
	}
}

// buildDocument assembles the text to embed: doc comment, signature, and a
// bounded prefix of the body. The cut backs up to a rune boundary so a
// body with multibyte text never yields invalid UTF-8.
func buildDocument(u extract.Unit) string {
	body := u.Body
	if len(body) > documentBodyChars {
		cut := documentBodyChars
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	doc := ""
	if u.Doc != "" {
		doc = u.Doc + "\n"
	}
	return doc + u.Signature + "\n" + body
}

func unitMetadata(u extract.Unit) map[string]any {
	return map[string]any{
		"repo":       u.Repository,
		"file":       u.RelPath,
		"function":   u.Name,
		"category":   u.Category,
		"start_line": u.StartLine,
		"end_line":   u.EndLine,
		"lines":      u.Lines(),
		"has_doc":    u.Doc != "",
		"is_method":  u.IsMethod(),
		"receiver":   u.Receiver,
	}
}
