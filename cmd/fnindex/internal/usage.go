package internal

import (
	"fmt"
	"os"
)

const Version = "0.3.1"

// PrintUsage writes the top-level usage and subcommand list to stderr.
func PrintUsage() {
	fmt.Fprintf(os.Stderr, `fnindex - Semantic Function Search for Source Repositories

Version: %s

USAGE:
    fnindex [global options] <command> [command options]

GLOBAL OPTIONS:
    -config <path>
        Path to config file (default: ~/.fnindex/config/fnindex.yaml)

    -v, -version
        Show version information

    -h, -help
        Show this help message

COMMANDS:
    init
        Create a default configuration file

    index
        Crawl repositories and (re)build the function index

    search
        Search indexed functions by natural-language description

    stats
        Show index totals by repository and category

    mcp
        Run MCP stdio server (tools: search_code, get_stats, reindex_repository)

EXAMPLES:
    # Create the config template, then set your API key
    fnindex init

    # Index the repositories configured under corpus.roots
    fnindex index

    # Index specific repositories instead
    fnindex index /path/to/repo-a /path/to/repo-b

    # Search for code by what it does
    fnindex search "function that validates JWT tokens"

    # Only middleware, top 10
    fnindex search "authentication" -category middleware -k 10

    # JSON output for scripting
    fnindex search "retry with backoff" -json

    # Show statistics
    fnindex stats

    # Run MCP server over stdio
    fnindex mcp

For detailed help on each command, use:
    fnindex <command> -help
`, Version)
}
