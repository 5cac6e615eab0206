package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/DreamCats/fnindex/internal/config"
	"github.com/DreamCats/fnindex/internal/retrieval"
	"github.com/DreamCats/fnindex/internal/store"
)

// handleStats implements the stats subcommand
func handleStats(cfg *config.Config, dbPath string, args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)

	var jsonOutput bool
	fs.BoolVar(&jsonOutput, "json", false, "Output statistics as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    fnindex stats [options]

DESCRIPTION:
    Show index totals broken down by repository and category.
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open index: %v", err)
	}
	defer db.Close()

	searcher := retrieval.NewSearcher(store.NewVectorStore(db), nil,
		cfg.Search.DefaultLimit, cfg.Search.PreviewChars)

	stats, err := searcher.Stats()
	if err != nil {
		log.Fatalf("Failed to compute statistics: %v", err)
	}

	if jsonOutput {
		jsonData, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			log.Fatalf("Failed to marshal statistics: %v", err)
		}
		fmt.Println(string(jsonData))
		return
	}

	fmt.Printf("Indexed units: %d\n", stats.TotalUnits)

	if len(stats.ByRepository) > 0 {
		fmt.Println("\nBy repository:")
		printCounts(stats.ByRepository)
	}
	if len(stats.ByCategory) > 0 {
		fmt.Println("\nBy category:")
		printCounts(stats.ByCategory)
	}
}

func printCounts(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("  %-24s %d\n", key, counts[key])
	}
}
