package corpus

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Options configures crawling and filtering of a repository root.
type Options struct {
	// IncludeExts lists source extensions eligible for extraction
	IncludeExts []string

	// ExcludeGlobs lists doublestar patterns; a match on the relative
	// path or the basename excludes the file
	ExcludeGlobs []string

	// ExcludeDirs lists directory names whose subtrees are skipped
	ExcludeDirs []string
}

// Filter decides which files are eligible for extraction.
// Exclusion rules run before the extension check so that test and
// generated files are never indexed even for supported languages.
type Filter struct {
	includeExts  map[string]bool
	excludeGlobs []string
	excludeDirs  map[string]bool
}

// NewFilter creates a filter from crawl options.
func NewFilter(opts Options) *Filter {
	f := &Filter{
		includeExts:  make(map[string]bool, len(opts.IncludeExts)),
		excludeGlobs: opts.ExcludeGlobs,
		excludeDirs:  make(map[string]bool, len(opts.ExcludeDirs)),
	}
	for _, ext := range opts.IncludeExts {
		f.includeExts[strings.ToLower(ext)] = true
	}
	for _, dir := range opts.ExcludeDirs {
		f.excludeDirs[dir] = true
	}
	return f
}

// ShouldIndex reports whether the file at relPath is eligible.
// relPath must be slash-separated and relative to the crawl root.
func (f *Filter) ShouldIndex(relPath string) bool {
	relPath = filepath.ToSlash(relPath)

	for _, pattern := range f.excludeGlobs {
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return false
		}
		if matched, _ := doublestar.Match(pattern, filepath.Base(relPath)); matched {
			return false
		}
	}

	for _, part := range strings.Split(relPath, "/") {
		if f.excludeDirs[part] {
			return false
		}
	}

	return f.includeExts[strings.ToLower(filepath.Ext(relPath))]
}

// SkipDir reports whether the named directory should be pruned from the walk.
func (f *Filter) SkipDir(name string) bool {
	return f.excludeDirs[name]
}
