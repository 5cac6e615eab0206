package extract

// Unit represents one extracted function or method, the atomic searchable item.
type Unit struct {
	// Basic identification
	Identity string // Unique key: repo/relPath:name, assigned by the indexer
	Name     string // Declared name

	// Declaration info
	Signature string // Declaration text up to the body
	Body      string // Full source text, declaration header through closing brace
	Doc       string // Leading comment block, empty if none
	Receiver  string // Owning type for methods, empty for free functions

	// Location
	StartLine int // 1-based, inclusive
	EndLine   int // 1-based, inclusive

	// Provenance, filled by the crawler/indexer
	Repository string
	RelPath    string

	// Category is assigned by the classifier, not known at extraction time
	Category string
}

// IsMethod reports whether the unit is a method on a named type.
func (u *Unit) IsMethod() bool {
	return u.Receiver != ""
}

// Lines returns the number of source lines the unit spans.
func (u *Unit) Lines() int {
	return u.EndLine - u.StartLine + 1
}
