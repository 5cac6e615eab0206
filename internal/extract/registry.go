package extract

import (
	"path/filepath"
	"sort"
	"strings"
)

// Parser extracts units from one source file of a specific language.
// Implementations must use a formal parse of the file, never heuristic
// scanning, so that function-like text inside strings or comments is
// never reported as a unit.
type Parser interface {
	// Language returns the language name (e.g. "go")
	Language() string

	// Extensions returns the file extensions handled by this parser,
	// lowercase with leading dot
	Extensions() []string

	// Parse extracts all top-level function and method units from src.
	// A file with no declarations yields an empty slice, not an error.
	Parse(relPath string, src []byte) ([]Unit, error)
}

// Registry dispatches files to language parsers by extension.
type Registry struct {
	byExt map[string]Parser
}

// NewRegistry creates a registry over the given parsers.
// Later parsers win on extension conflicts.
func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{byExt: make(map[string]Parser)}
	for _, p := range parsers {
		for _, ext := range p.Extensions() {
			r.byExt[strings.ToLower(ext)] = p
		}
	}
	return r
}

// DefaultRegistry returns a registry with all built-in language parsers.
func DefaultRegistry() *Registry {
	return NewRegistry(&GoParser{})
}

// ForFile returns the parser responsible for the given file path.
func (r *Registry) ForFile(path string) (Parser, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	p, ok := r.byExt[ext]
	return p, ok
}

// Extensions returns all registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
