// Package yamlloc maps validation error locations back to line and column
// positions in the YAML (or JSON) document they were reported against.
package yamlloc

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"

	"github.com/reoring/coerce"
)

// Position is a 1-based line and column.
type Position struct {
	Line   int
	Column int
}

// Annotation pairs an error record with the position of the value it was
// reported at. When the location does not resolve (for example a missing
// field) Position points at the deepest existing ancestor and Exact is false.
type Annotation struct {
	Record   coerce.Record
	Position Position
	Exact    bool
}

// Document is a parsed source that can resolve locations repeatedly.
type Document struct {
	root ast.Node
}

// Parse parses src. Only the first document of a stream is used.
func Parse(src []byte) (*Document, error) {
	file, err := parser.ParseBytes(src, 0)
	if err != nil {
		return nil, fmt.Errorf("yamlloc: %w", err)
	}
	if len(file.Docs) == 0 || file.Docs[0].Body == nil {
		return nil, errors.New("yamlloc: empty document")
	}
	return &Document{root: file.Docs[0].Body}, nil
}

// Locate resolves loc against src. See Document.Locate.
func Locate(src []byte, loc coerce.Location) (Position, bool, error) {
	d, err := Parse(src)
	if err != nil {
		return Position{}, false, err
	}
	pos, exact := d.Locate(loc)
	return pos, exact, nil
}

// Locate returns the position of the value at loc. exact is false when the
// walk stopped early; the position is then that of the last node reached.
func (d *Document) Locate(loc coerce.Location) (pos Position, exact bool) {
	cur := unwrap(d.root)
	pos = position(cur)
	for _, it := range loc {
		next := child(cur, it)
		if next == nil {
			return pos, false
		}
		cur = unwrap(next)
		pos = position(cur)
	}
	return pos, true
}

// Annotate resolves every error in verr against src.
func Annotate(src []byte, verr *coerce.ValidationError) ([]Annotation, error) {
	d, err := Parse(src)
	if err != nil {
		return nil, err
	}
	lines := verr.LineErrors()
	recs := verr.Errors()
	out := make([]Annotation, len(recs))
	for i, rec := range recs {
		pos, exact := d.Locate(lines[i].Location)
		out[i] = Annotation{Record: rec, Position: pos, Exact: exact}
	}
	return out, nil
}

func child(n ast.Node, it coerce.LocItem) ast.Node {
	switch node := n.(type) {
	case *ast.MappingNode:
		if it.IsIndex() {
			return nil
		}
		// Later keys win, like the parsers.
		var found ast.Node
		for _, mv := range node.Values {
			if keyMatches(mv.Key, it.KeyString()) {
				found = mv.Value
			}
		}
		return found
	case *ast.MappingValueNode:
		if !it.IsIndex() && keyMatches(node.Key, it.KeyString()) {
			return node.Value
		}
	case *ast.SequenceNode:
		if !it.IsIndex() {
			return nil
		}
		i := it.IndexValue()
		if i < 0 || i >= len(node.Values) {
			return nil
		}
		return node.Values[i]
	}
	return nil
}

func keyMatches(key ast.MapKeyNode, want string) bool {
	switch k := key.(type) {
	case *ast.StringNode:
		return k.Value == want
	case *ast.MappingKeyNode:
		if tk := k.Value.GetToken(); tk != nil {
			return tk.Value == want
		}
		return false
	}
	if tk := key.GetToken(); tk != nil {
		return tk.Value == want
	}
	return false
}

// unwrap strips anchors and tags so the walk sees the underlying collection.
func unwrap(n ast.Node) ast.Node {
	for {
		switch node := n.(type) {
		case *ast.AnchorNode:
			n = node.Value
		case *ast.TagNode:
			n = node.Value
		case *ast.DocumentNode:
			n = node.Body
		default:
			return n
		}
	}
}

func position(n ast.Node) Position {
	if n == nil {
		return Position{Line: 1, Column: 1}
	}
	tk := n.GetToken()
	if tk == nil || tk.Position == nil {
		return Position{Line: 1, Column: 1}
	}
	return Position{Line: tk.Position.Line, Column: tk.Position.Column}
}
