package embedding

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/DreamCats/fnindex/internal/config"
)

// Item is one (identity, document) pair queued for embedding.
type Item struct {
	Identity string
	Document string
}

// Result is the tagged outcome for one item: either a vector or an
// explicit failure. A failed item never carries a vector.
type Result struct {
	Identity string
	Vector   []float32
	Err      error
}

// Failed reports whether the item's embedding could not be generated.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Service provides batched embedding generation with retry and
// bounded concurrency across batches.
type Service struct {
	client     Client
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	workers    int
}

// NewService creates a new embedding service from configuration.
func NewService(cfg *config.EmbeddingConfig) (*Service, error) {
	var client Client
	var err error

	switch cfg.Provider {
	case "openai":
		client, err = NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	return NewServiceWithClient(cfg, client), nil
}

// NewServiceWithClient creates a service over an explicit client.
func NewServiceWithClient(cfg *config.EmbeddingConfig, client Client) *Service {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	return &Service{
		client:     client,
		batchSize:  batchSize,
		maxRetries: maxRetries,
		retryDelay: 500 * time.Millisecond,
		workers:    workers,
	}
}

// Dimensions returns the dimension of the embeddings
func (s *Service) Dimensions() int {
	return s.client.Dimensions()
}

// EmbedQuery generates an embedding for a single query text.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}
	vectors, err := s.embedWithRetry(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vectors[0], nil
}

// GenerateAll embeds every item, returning one tagged Result per input
// in input order. Batches run concurrently on a bounded worker pool;
// a batch whose retries are exhausted marks only its own items as
// failed and never cancels sibling batches.
//
// onBatchDone, if non-nil, is called once per completed batch with the
// number of items in that batch (for progress reporting).
func (s *Service) GenerateAll(ctx context.Context, items []Item, onBatchDone func(n int)) ([]Result, error) {
	results := make([]Result, len(items))
	for i, item := range items {
		results[i].Identity = item.Identity
	}
	if len(items) == 0 {
		return results, nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for start := 0; start < len(items); start += s.batchSize {
		end := start + s.batchSize
		if end > len(items) {
			end = len(items)
		}
		start, end := start, end

		wg.Add(1)
		run := func() {
			defer wg.Done()
			s.runBatch(ctx, items[start:end], results[start:end])
			if onBatchDone != nil {
				onBatchDone(end - start)
			}
		}
		if err := pool.Submit(run); err != nil {
			// Pool rejected the task (released or overloaded); run inline
			// rather than dropping the batch.
			run()
		}
	}
	wg.Wait()

	return results, nil
}

// runBatch embeds one batch in place, marking every item failed when
// retries are exhausted.
func (s *Service) runBatch(ctx context.Context, items []Item, out []Result) {
	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Document
	}

	vectors, err := s.embedWithRetry(ctx, texts)
	if err != nil {
		log.Printf("Warning: embedding batch of %d failed: %v", len(items), err)
		for i := range out {
			out[i].Err = err
		}
		return
	}

	for i := range out {
		out[i].Vector = vectors[i]
	}
}

// embedWithRetry calls the client with bounded retries and backoff.
func (s *Service) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		vectors, err := s.client.EmbedBatch(ctx, texts)
		if err == nil {
			if len(vectors) != len(texts) {
				return nil, fmt.Errorf("expected %d vectors, got %d", len(texts), len(vectors))
			}
			return vectors, nil
		}
		lastErr = err

		if attempt == s.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.retryDelay * time.Duration(attempt)):
		}
	}
	return nil, fmt.Errorf("embedding failed after %d attempts: %w", s.maxRetries, lastErr)
}
