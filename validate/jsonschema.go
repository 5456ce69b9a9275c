package validate

import (
	"sort"

	js "github.com/reoring/coerce/jsonschema"
)

// JSONSchema projects v into a standalone JSON Schema document (draft
// 2020-12). Constraints that JSON Schema cannot express, such as the lax
// coercions, are not represented.
func JSONSchema[T any](v Validator[T]) (*js.Schema, error) {
	s, err := v.JSONSchema(NewProjection())
	if err != nil {
		return nil, err
	}
	cp := *s
	cp.SchemaURI = js.Draft
	if cp.Title == "" {
		cp.Title = v.Name()
	}
	dedupeAnchors(&cp, map[string]bool{})
	return &cp, nil
}

// Projection is the state of one JSON Schema projection. It remembers which
// lazy validators are being expanded so that a recursive reference becomes
// a $ref. A Projection must not be shared between concurrent projections.
type Projection struct {
	active map[any]bool
}

// NewProjection starts a projection.
func NewProjection() *Projection { return &Projection{active: map[any]bool{}} }

// enter reports whether key was not already being expanded and marks it.
func (p *Projection) enter(key any) bool {
	if p.active[key] {
		return false
	}
	if p.active == nil {
		p.active = map[any]bool{}
	}
	p.active[key] = true
	return true
}

func (p *Projection) leave(key any) { delete(p.active, key) }

// dedupeAnchors keeps the first subschema carrying each $anchor and turns
// later ones into references, since a lazy validator used from two places
// projects its anchor twice.
func dedupeAnchors(s *js.Schema, seen map[string]bool) {
	if s.Anchor != "" {
		seen[s.Anchor] = true
	}
	visit := func(c *js.Schema) *js.Schema {
		if c == nil {
			return nil
		}
		if c.Anchor != "" && seen[c.Anchor] {
			return &js.Schema{Ref: "#" + c.Anchor}
		}
		dedupeAnchors(c, seen)
		return c
	}
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.Properties[k] = visit(s.Properties[k])
	}
	s.PropertyNames = visit(s.PropertyNames)
	if c, ok := s.AdditionalProperties.(*js.Schema); ok {
		s.AdditionalProperties = visit(c)
	}
	for i, c := range s.PrefixItems {
		s.PrefixItems[i] = visit(c)
	}
	if c, ok := s.Items.(*js.Schema); ok {
		s.Items = visit(c)
	}
	for i, c := range s.OneOf {
		s.OneOf[i] = visit(c)
	}
	for i, c := range s.AnyOf {
		s.AnyOf[i] = visit(c)
	}
}
