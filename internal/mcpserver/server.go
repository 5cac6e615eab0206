package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DreamCats/fnindex/internal/config"
	"github.com/DreamCats/fnindex/internal/embedding"
	"github.com/DreamCats/fnindex/internal/indexer"
	"github.com/DreamCats/fnindex/internal/retrieval"
	"github.com/DreamCats/fnindex/internal/store"
)

// Server exposes fnindex search and indexing via MCP stdio.
type Server struct {
	cfg     *config.Config
	dbPath  string
	version string
}

// New creates a new MCP server wrapper.
func New(cfg *config.Config, dbPath string, version string) *Server {
	return &Server{
		cfg:     cfg,
		dbPath:  dbPath,
		version: version,
	}
}

// Run starts the MCP stdio server.
func (s *Server) Run(ctx context.Context) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "fnindex",
		Title:   "FnIndex",
		Version: s.version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: "search_code",
		Description: `Search indexed functions by meaning, not keywords.

Describe what the code does ("validate a JWT token", "retry with backoff")
and get back the closest functions with file, line range, and a preview.

Use code_type to restrict results to one category (handler, middleware,
service, repository, model, utility, client, other).`,
	}, s.searchTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_stats",
		Description: "Report index totals broken down by repository and category.",
	}, s.statsTool)

	mcp.AddTool(server, &mcp.Tool{
		Name: "reindex_repository",
		Description: `Re-crawl the configured repositories and rebuild the index.

Re-indexing is idempotent: unchanged functions keep their entries, deleted
functions are pruned, and a failed embedding batch never aborts the run.`,
	}, s.reindexTool)

	return server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) searchTool(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Query == "" {
		return nil, SearchOutput{}, fmt.Errorf("query is required")
	}

	db, err := store.Open(s.dbPath)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	defer db.Close()

	svc, err := embedding.NewService(&s.cfg.Embedding)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	searcher := retrieval.NewSearcher(store.NewVectorStore(db), svc,
		s.cfg.Search.DefaultLimit, s.cfg.Search.PreviewChars)

	results, err := searcher.Search(ctx, input.Query, input.Limit, input.CodeType)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	if results == nil {
		results = []retrieval.Result{}
	}

	output := SearchOutput{
		Query:   input.Query,
		Count:   len(results),
		Results: results,
	}
	return nil, output, nil
}

func (s *Server) statsTool(_ context.Context, _ *mcp.CallToolRequest, _ StatsInput) (*mcp.CallToolResult, StatsOutput, error) {
	db, err := store.Open(s.dbPath)
	if err != nil {
		return nil, StatsOutput{}, err
	}
	defer db.Close()

	searcher := retrieval.NewSearcher(store.NewVectorStore(db), nil,
		s.cfg.Search.DefaultLimit, s.cfg.Search.PreviewChars)

	stats, err := searcher.Stats()
	if err != nil {
		return nil, StatsOutput{}, err
	}

	output := StatsOutput{
		TotalUnits:   stats.TotalUnits,
		ByRepository: stats.ByRepository,
		ByCategory:   stats.ByCategory,
	}
	if output.ByRepository == nil {
		output.ByRepository = map[string]int{}
	}
	if output.ByCategory == nil {
		output.ByCategory = map[string]int{}
	}
	return nil, output, nil
}

func (s *Server) reindexTool(ctx context.Context, _ *mcp.CallToolRequest, input ReindexInput) (*mcp.CallToolResult, ReindexOutput, error) {
	roots := input.Roots
	if len(roots) == 0 {
		roots = s.cfg.Corpus.Roots
	}
	if len(roots) == 0 {
		return nil, ReindexOutput{}, fmt.Errorf("no repository roots configured")
	}

	idx, err := indexer.New(s.cfg, s.dbPath)
	if err != nil {
		return nil, ReindexOutput{}, err
	}
	defer idx.Close()

	report, err := idx.Index(ctx, roots)
	if err != nil {
		return nil, ReindexOutput{}, err
	}

	output := ReindexOutput{
		FilesIndexed:   report.FilesIndexed,
		FilesSkipped:   report.FilesSkipped,
		UnitsExtracted: report.UnitsExtracted,
		UnitsEmbedded:  report.UnitsEmbedded,
		UnitsFailed:    report.UnitsFailed,
		ByCategory:     report.ByCategory,
		DurationSec:    report.Duration.Seconds(),
	}
	if output.ByCategory == nil {
		output.ByCategory = map[string]int{}
	}
	return nil, output, nil
}
