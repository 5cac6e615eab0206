package mcpserver

import "github.com/DreamCats/fnindex/internal/retrieval"

// SearchInput defines inputs for the search_code MCP tool.
type SearchInput struct {
	Query    string `json:"query" jsonschema:"natural-language description of the code to find"`
	Limit    int    `json:"limit,omitempty" jsonschema:"number of results to return"`
	CodeType string `json:"code_type,omitempty" jsonschema:"restrict results to one category (handler, middleware, service, repository, model, utility, client, other)"`
}

// SearchOutput is the output for search_code.
type SearchOutput struct {
	Query   string             `json:"query"`
	Count   int                `json:"count"`
	Results []retrieval.Result `json:"results"`
}

// StatsInput defines inputs for the get_stats MCP tool.
type StatsInput struct{}

// StatsOutput is the output for get_stats.
type StatsOutput struct {
	TotalUnits   int            `json:"total_units"`
	ByRepository map[string]int `json:"by_repository"`
	ByCategory   map[string]int `json:"by_category"`
}

// ReindexInput defines inputs for the reindex_repository MCP tool.
type ReindexInput struct {
	Roots []string `json:"roots,omitempty" jsonschema:"repository roots to index (defaults to the configured corpus roots)"`
}

// ReindexOutput is the output for reindex_repository.
type ReindexOutput struct {
	FilesIndexed   int            `json:"files_indexed"`
	FilesSkipped   int            `json:"files_skipped"`
	UnitsExtracted int            `json:"units_extracted"`
	UnitsEmbedded  int            `json:"units_embedded"`
	UnitsFailed    int            `json:"units_failed"`
	ByCategory     map[string]int `json:"by_category"`
	DurationSec    float64        `json:"duration_sec"`
}
