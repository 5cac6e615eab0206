package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/fnindex/cmd/fnindex/internal"
	"github.com/DreamCats/fnindex/internal/config"
	"github.com/DreamCats/fnindex/internal/mcpserver"
)

// handleMCP implements the mcp subcommand
func handleMCP(cfg *config.Config, dbPath string, args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    fnindex mcp

DESCRIPTION:
    Run an MCP server over stdio exposing search_code, get_stats, and
    reindex_repository. Intended to be launched by an MCP client.
`)
	}
	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	server := mcpserver.New(cfg, dbPath, internal.Version)
	if err := server.Run(context.Background()); err != nil {
		log.Fatalf("MCP server terminated: %v", err)
	}
}
