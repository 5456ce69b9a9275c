package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// LocItem is one path segment: either a mapping key or a sequence index.
type LocItem struct {
	key     string
	index   int
	isIndex bool
}

// Key returns a mapping-key segment.
func Key(k string) LocItem { return LocItem{key: k} }

// Index returns a sequence-index segment.
func Index(i int) LocItem { return LocItem{index: i, isIndex: true} }

// IsIndex reports whether the segment is a sequence index.
func (it LocItem) IsIndex() bool { return it.isIndex }

// KeyString returns the key of a mapping-key segment.
func (it LocItem) KeyString() string { return it.key }

// IndexValue returns the index of a sequence-index segment.
func (it LocItem) IndexValue() int { return it.index }

// Export returns the segment as a string or an int.
func (it LocItem) Export() any {
	if it.isIndex {
		return it.index
	}
	return it.key
}

// String renders a single segment the way Location.String renders it at the
// root position.
func (it LocItem) String() string {
	return Location{it}.String()
}

// Location is an ordered, root-first sequence of segments. Values are treated
// as immutable: every operation returns a new Location.
type Location []LocItem

// Prepend returns a copy of l with items placed before the existing segments.
func (l Location) Prepend(items ...LocItem) Location {
	if len(items) == 0 {
		return l
	}
	out := make(Location, 0, len(items)+len(l))
	out = append(out, items...)
	return append(out, l...)
}

// Append returns a copy of l with items added after the existing segments.
func (l Location) Append(items ...LocItem) Location {
	out := make(Location, 0, len(l)+len(items))
	out = append(out, l...)
	return append(out, items...)
}

// String renders the location: keys are joined with '.', indices are written
// as [i], and keys that would be ambiguous are quoted as ["k"].
// Example: items[1].name, ["a.b"][0].
func (l Location) String() string {
	b := &strings.Builder{}
	for i, it := range l {
		switch {
		case it.isIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(it.index))
			b.WriteByte(']')
		case needsQuoting(it.key):
			b.WriteByte('[')
			b.WriteString(strconv.Quote(it.key))
			b.WriteByte(']')
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(it.key)
		}
	}
	return b.String()
}

func needsQuoting(k string) bool {
	if k == "" {
		return true
	}
	for _, r := range k {
		switch r {
		case '.', '[', ']', '"', ' ', '\t', '\n', '\r':
			return true
		}
	}
	return false
}

// Pointer renders the location as an RFC 6901 JSON Pointer ("/" for the root).
func (l Location) Pointer() string {
	if len(l) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, it := range l {
		b.WriteByte('/')
		if it.isIndex {
			b.WriteString(strconv.Itoa(it.index))
			continue
		}
		// escape '~' -> '~0', '/' -> '~1' per RFC6901
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(it.key, "~", "~0"), "/", "~1"))
	}
	return b.String()
}

// YAMLPath renders the location in the $.a.b[0] syntax understood by YAML
// path tooling.
func (l Location) YAMLPath() string {
	b := &strings.Builder{}
	b.WriteByte('$')
	for _, it := range l {
		if it.isIndex {
			b.WriteString("[" + strconv.Itoa(it.index) + "]")
			continue
		}
		if needsQuoting(it.key) {
			b.WriteString(".'" + strings.ReplaceAll(it.key, "'", "\\'") + "'")
			continue
		}
		b.WriteString("." + it.key)
	}
	return b.String()
}

// Export returns the segments as strings and ints, root first.
func (l Location) Export() []any {
	out := make([]any, len(l))
	for i, it := range l {
		out[i] = it.Export()
	}
	return out
}

// Equal reports whether two locations hold the same segments.
func (l Location) Equal(o Location) bool {
	if len(l) != len(o) {
		return false
	}
	for i := range l {
		if l[i] != o[i] {
			return false
		}
	}
	return true
}

// LocationFromExport rebuilds a Location from its exported form. Integral
// numbers (including float64 and json.Number produced by JSON decoding) become
// indices, strings become keys.
func LocationFromExport(items []any) (Location, error) {
	out := make(Location, 0, len(items))
	for i, raw := range items {
		switch v := raw.(type) {
		case string:
			out = append(out, Key(v))
		case int:
			out = append(out, Index(v))
		case int64:
			out = append(out, Index(int(v)))
		case float64:
			if v != math.Trunc(v) || v < 0 {
				return nil, fmt.Errorf("coerce: location segment %d: %v is not a valid index", i, v)
			}
			out = append(out, Index(int(v)))
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				return nil, fmt.Errorf("coerce: location segment %d: %w", i, err)
			}
			out = append(out, Index(int(n)))
		default:
			return nil, fmt.Errorf("coerce: location segment %d has unsupported type %T", i, raw)
		}
	}
	return out, nil
}
