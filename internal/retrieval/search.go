// Package retrieval implements the query-time read path: embed the
// query, search the vector index, and shape ranked results.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DreamCats/fnindex/internal/store"
)

// ErrEmptyIndex is returned when a search runs against an index with no
// entries. Distinct from a valid empty result on a populated index.
var ErrEmptyIndex = errors.New("nothing indexed yet")

// ErrEmbeddingUnavailable is returned when the query text could not be
// embedded. The search aborts; there is no keyword fallback.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// QueryEmbedder embeds free-text queries. The index and the query MUST
// be embedded by the same model, or results are meaningless.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Result is one ranked search result.
type Result struct {
	ID       string         `json:"id"`
	Preview  string         `json:"preview"`
	Metadata map[string]any `json:"metadata"`
	Score    float32        `json:"score"`
}

// Stats summarizes the index contents.
type Stats struct {
	TotalUnits   int            `json:"total_units"`
	ByRepository map[string]int `json:"by_repository"`
	ByCategory   map[string]int `json:"by_category"`
}

// Searcher answers natural-language queries over the vector index.
type Searcher struct {
	vectors      *store.VectorStore
	embedder     QueryEmbedder
	defaultLimit int
	previewChars int
}

// NewSearcher creates a searcher.
func NewSearcher(vectors *store.VectorStore, embedder QueryEmbedder, defaultLimit, previewChars int) *Searcher {
	if defaultLimit <= 0 {
		defaultLimit = 5
	}
	if previewChars <= 0 {
		previewChars = 150
	}
	return &Searcher{
		vectors:      vectors,
		embedder:     embedder,
		defaultLimit: defaultLimit,
		previewChars: previewChars,
	}
}

// Search embeds query and returns up to limit ranked results, optionally
// restricted to one category. Results are sorted by descending score;
// ties keep the index's order.
func (s *Searcher) Search(ctx context.Context, query string, limit int, category string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	count, err := s.vectors.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}
	if count == 0 {
		return nil, ErrEmptyIndex
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}

	var filter map[string]any
	if category != "" {
		filter = map[string]any{"category": category}
	}

	matches, err := s.vectors.Query(vector, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			ID:       m.ID,
			Preview:  makePreview(m.Document, s.previewChars),
			Metadata: m.Metadata,
			Score:    m.Score,
		})
	}
	return results, nil
}

// Stats computes totals per repository and category from stored metadata.
func (s *Searcher) Stats() (*Stats, error) {
	total, err := s.vectors.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}

	stats := &Stats{
		TotalUnits:   total,
		ByRepository: make(map[string]int),
		ByCategory:   make(map[string]int),
	}
	if total == 0 {
		return stats, nil
	}

	metadatas, err := s.vectors.ListMetadata()
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	for _, meta := range metadatas {
		repo, _ := meta["repo"].(string)
		if repo == "" {
			repo = "unknown"
		}
		stats.ByRepository[repo]++

		category, _ := meta["category"].(string)
		if category == "" {
			category = "unknown"
		}
		stats.ByCategory[category]++
	}

	return stats, nil
}

// makePreview returns a bounded, rune-safe excerpt of the document.
func makePreview(document string, maxChars int) string {
	runes := []rune(document)
	if len(runes) <= maxChars {
		return document
	}
	return strings.TrimSpace(string(runes[:maxChars])) + "..."
}
