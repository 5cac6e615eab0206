package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/DreamCats/fnindex/internal/config"
	"github.com/DreamCats/fnindex/internal/indexer"
)

// handleIndex implements the index subcommand
func handleIndex(cfg *config.Config, dbPath string, args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)

	var noProgress bool
	fs.BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    fnindex index [options] [root ...]

DESCRIPTION:
    Crawl the given repository roots (or corpus.roots from the config),
    extract functions, embed them, and rebuild the index. Re-running is
    idempotent; functions removed from the corpus are pruned.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Index the configured roots
    fnindex index

    # Index specific repositories
    fnindex index /path/to/repo-a /path/to/repo-b
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	roots := fs.Args()
	if len(roots) == 0 {
		roots = cfg.Corpus.Roots
	}
	if len(roots) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no repository roots given and corpus.roots is empty\n\n")
		fs.Usage()
		os.Exit(1)
	}

	idx, err := indexer.New(cfg, dbPath)
	if err != nil {
		log.Fatalf("Failed to create indexer: %v", err)
	}
	defer idx.Close()

	if !noProgress {
		idx.SetProgress(indexer.NewIndexProgress(indexer.DefaultProgressEnabled()))
	}

	report, err := idx.Index(context.Background(), roots)
	if err != nil {
		log.Fatalf("Indexing failed: %v", err)
	}

	fmt.Printf("Indexed %d repositories in %s\n\n", len(roots), report.Duration.Round(10*time.Millisecond))
	fmt.Printf("  Files indexed:    %d\n", report.FilesIndexed)
	fmt.Printf("  Files skipped:    %d\n", report.FilesSkipped)
	fmt.Printf("  Units extracted:  %d\n", report.UnitsExtracted)
	fmt.Printf("  Units embedded:   %d\n", report.UnitsEmbedded)
	if report.UnitsFailed > 0 {
		fmt.Printf("  Units failed:     %d (re-run 'fnindex index' to retry)\n", report.UnitsFailed)
	}

	if len(report.ByCategory) > 0 {
		fmt.Println("\n  By category:")
		categories := make([]string, 0, len(report.ByCategory))
		for cat := range report.ByCategory {
			categories = append(categories, cat)
		}
		sort.Strings(categories)
		for _, cat := range categories {
			fmt.Printf("    %-12s %d\n", cat, report.ByCategory[cat])
		}
	}
}
