package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/fnindex/cmd/fnindex/internal"
	"github.com/DreamCats/fnindex/internal/config"
)

// handleInit implements the init subcommand
func handleInit(configPath string, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    fnindex init

DESCRIPTION:
    Create a default configuration file at ~/.fnindex/config/fnindex.yaml
    (or the path given with the global -config flag). Existing files are
    never overwritten.
`)
	}
	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	path := configPath
	if path == "" {
		var err error
		path, err = internal.DefaultConfigPath()
		if err != nil {
			log.Fatalf("Failed to determine config path: %v", err)
		}
	}

	created, err := config.WriteDefaultTemplate(path)
	if err != nil {
		log.Fatalf("Failed to create config template: %v", err)
	}

	if created {
		fmt.Printf("Created config template at %s\n", path)
		fmt.Println("Set embedding.api_key and corpus.roots, then run 'fnindex index'.")
	} else {
		fmt.Printf("Config already exists at %s, leaving it untouched\n", path)
	}
}
