package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/fnindex/internal/config"
	"github.com/DreamCats/fnindex/internal/embedding"
	"github.com/DreamCats/fnindex/internal/retrieval"
	"github.com/DreamCats/fnindex/internal/store"
)

// handleSearch implements the search subcommand
func handleSearch(cfg *config.Config, dbPath string, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)

	var limit int
	var category string
	var jsonOutput bool

	fs.IntVar(&limit, "k", 0, "Number of results to return (default from config)")
	fs.StringVar(&category, "category", "", "Restrict results to one category (handler, middleware, service, repository, model, utility, client, other)")
	fs.BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    fnindex search [options] "<query>"

DESCRIPTION:
    Search indexed functions by describing what they do. Results are
    ranked by semantic similarity to the query.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Natural language search
    fnindex search "function that validates JWT tokens"

    # Top 10 results
    fnindex search "database connection pooling" -k 10

    # Only middleware
    fnindex search "request authentication" -category middleware

    # JSON output for scripting
    fnindex search "retry with backoff" -json
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: search query is required\n\n")
		fs.Usage()
		os.Exit(1)
	}
	query := fs.Arg(0)

	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open index: %v", err)
	}
	defer db.Close()

	svc, err := embedding.NewService(&cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding service: %v", err)
	}

	searcher := retrieval.NewSearcher(store.NewVectorStore(db), svc,
		cfg.Search.DefaultLimit, cfg.Search.PreviewChars)

	results, err := searcher.Search(context.Background(), query, limit, category)
	if err != nil {
		if errors.Is(err, retrieval.ErrEmptyIndex) {
			fmt.Fprintln(os.Stderr, "Nothing indexed yet. Run 'fnindex index' first.")
			os.Exit(1)
		}
		log.Fatalf("Search failed: %v", err)
	}

	if jsonOutput {
		outputJSON(results, query)
	} else {
		outputText(results, query)
	}
}

// outputText outputs search results as human-readable text
func outputText(results []retrieval.Result, query string) {
	if len(results) == 0 {
		fmt.Println("No results found")
		return
	}

	fmt.Printf("Found %d result(s) for: %s\n\n", len(results), query)

	for i, result := range results {
		fmt.Printf("%d. %s\n", i+1, metaString(result.Metadata, "function"))
		fmt.Printf("   File:     %s:%s-%s\n",
			metaString(result.Metadata, "file"),
			metaString(result.Metadata, "start_line"),
			metaString(result.Metadata, "end_line"))
		fmt.Printf("   Repo:     %s\n", metaString(result.Metadata, "repo"))
		fmt.Printf("   Category: %s\n", metaString(result.Metadata, "category"))
		fmt.Printf("   Score:    %.3f\n", result.Score)
		if result.Preview != "" {
			fmt.Printf("   %s\n", result.Preview)
		}
		fmt.Println()
	}
}

// outputJSON outputs search results as JSON
func outputJSON(results []retrieval.Result, query string) {
	output := map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": results,
	}

	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal results: %v", err)
	}

	fmt.Println(string(jsonData))
}

// metaString renders one metadata value, tolerating missing keys and the
// float64 numbers JSON decoding produces.
func metaString(metadata map[string]any, key string) string {
	value, ok := metadata[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%d", int64(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}
