package corpus

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
)

// Crawler walks repository roots and yields files eligible for extraction.
type Crawler struct {
	filter *Filter
}

// NewCrawler creates a crawler over the given filter options.
func NewCrawler(opts Options) *Crawler {
	return &Crawler{filter: NewFilter(opts)}
}

// Crawl walks root and returns the slash-separated relative paths of all
// eligible files, sorted for deterministic processing order.
// Unreadable subtrees are logged and skipped, never aborting the crawl.
func (c *Crawler) Crawl(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	if info, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("stat root %s: %w", absRoot, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", absRoot)
	}

	var files []string
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("Warning: skipping unreadable path %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && c.filter.SkipDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}

		if c.filter.ShouldIndex(rel) {
			files = append(files, rel)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", absRoot, walkErr)
	}

	sort.Strings(files)
	return files, nil
}
