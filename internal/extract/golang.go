package extract

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

// GoParser extracts function and method units from Go source files.
type GoParser struct{}

// Language returns "go"
func (p *GoParser) Language() string { return "go" }

// Extensions returns the extensions handled by the Go parser
func (p *GoParser) Extensions() []string { return []string{".go"} }

// Parse extracts all top-level functions and methods from one Go file.
// Function literals nested inside other declarations are not units.
func (p *GoParser) Parse(relPath string, src []byte) ([]Unit, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, relPath, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", relPath, err)
	}

	var units []Unit
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if fd.Name == nil || fd.Name.Name == "" {
			continue
		}

		start := fset.Position(fd.Pos())
		end := fset.Position(fd.End())
		sigEnd := fset.Position(fd.Type.End())

		unit := Unit{
			Name:      fd.Name.Name,
			Signature: sliceSource(src, start.Offset, sigEnd.Offset),
			Body:      sliceSource(src, start.Offset, end.Offset),
			Doc:       docText(fd.Doc),
			Receiver:  receiverType(fd),
			StartLine: start.Line,
			EndLine:   end.Line,
			RelPath:   relPath,
		}
		units = append(units, unit)
	}

	return units, nil
}

// sliceSource returns the trimmed source text between byte offsets.
func sliceSource(src []byte, start, end int) string {
	if start < 0 || end > len(src) || start >= end {
		return ""
	}
	return strings.TrimSpace(string(src[start:end]))
}

// docText flattens a doc comment group, stripping comment markers.
// go/parser only attaches a Doc group when the comment block is
// contiguous with the declaration, which is exactly the contract here.
func docText(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	var lines []string
	for _, comment := range doc.List {
		text := strings.TrimSpace(strings.TrimPrefix(comment.Text, "//"))
		text = strings.TrimSpace(strings.TrimPrefix(text, "/*"))
		text = strings.TrimSpace(strings.TrimSuffix(text, "*/"))
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

// receiverType returns the owning type name for methods, without pointer
// or generic decoration, and the empty string for free functions.
func receiverType(fd *ast.FuncDecl) string {
	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		return ""
	}
	typ := fd.Recv.List[0].Type
	if star, ok := typ.(*ast.StarExpr); ok {
		typ = star.X
	}
	return typeString(typ)
}

// typeString renders a type expression as source-like text.
func typeString(typ ast.Expr) string {
	switch t := typ.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return fmt.Sprintf("%s.%s", typeString(t.X), t.Sel.Name)
	case *ast.IndexExpr:
		return fmt.Sprintf("%s[%s]", typeString(t.X), typeString(t.Index))
	case *ast.IndexListExpr:
		parts := make([]string, 0, len(t.Indices))
		for _, idx := range t.Indices {
			parts = append(parts, typeString(idx))
		}
		return fmt.Sprintf("%s[%s]", typeString(t.X), strings.Join(parts, ", "))
	case *ast.StarExpr:
		return fmt.Sprintf("*%s", typeString(t.X))
	case *ast.ParenExpr:
		return fmt.Sprintf("(%s)", typeString(t.X))
	default:
		return "unknown"
	}
}
