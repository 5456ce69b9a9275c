package coerce

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// InputValue is the diagnostic view of an offending input captured in a
// LineError. Borrowed implementations reference the caller's document or
// object graph; Snapshot converts them into an owned value.
type InputValue interface {
	// Repr returns the display form used in rendered errors.
	Repr() string
	// TypeName names the input's type ("" when unknown).
	TypeName() string
	// Interface returns the value for structured export.
	Interface() any
}

type ownedValue struct {
	repr     string
	typeName string
	value    any
}

func (o ownedValue) Repr() string     { return o.repr }
func (o ownedValue) TypeName() string { return o.typeName }
func (o ownedValue) Interface() any   { return o.value }

// Snapshot returns an owned copy of v: its display form is computed now, and
// document-tree values are converted into plain Go values detached from the
// tree. Snapshot of an already owned value returns it unchanged.
func Snapshot(v InputValue) InputValue {
	switch x := v.(type) {
	case nil:
		return ownedValue{repr: "null"}
	case ownedValue:
		return x
	}
	return ownedValue{repr: v.Repr(), typeName: v.TypeName(), value: v.Interface()}
}

// OwnedValue builds an owned InputValue from a plain value and a type name,
// computing its display form with FormatValue.
func OwnedValue(value any, typeName string) InputValue {
	return ownedValue{repr: FormatValue(value), typeName: typeName, value: value}
}

const _maxReprDepth = 16

// FormatValue renders v for error output. Strings are quoted, null values
// render as null, containers render JSON-like with map keys sorted, and
// cyclic references render as <cycle>.
func FormatValue(v any) string {
	b := &strings.Builder{}
	writeRepr(b, reflect.ValueOf(v), 0, map[uintptr]struct{}{})
	return b.String()
}

var (
	_timeType     = reflect.TypeOf(time.Time{})
	_durationType = reflect.TypeOf(time.Duration(0))
	_numberType   = reflect.TypeOf(json.Number(""))
	_stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

func writeRepr(b *strings.Builder, rv reflect.Value, depth int, seen map[uintptr]struct{}) {
	if !rv.IsValid() {
		b.WriteString("null")
		return
	}
	if depth > _maxReprDepth {
		b.WriteString("...")
		return
	}
	switch rv.Type() {
	case _timeType:
		b.WriteString(rv.Interface().(time.Time).Format(time.RFC3339Nano))
		return
	case _durationType:
		b.WriteString(time.Duration(rv.Int()).String())
		return
	case _numberType:
		b.WriteString(rv.String())
		return
	}
	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			b.WriteString("null")
			return
		}
		writeRepr(b, rv.Elem(), depth, seen)
		return
	case reflect.Pointer:
		if rv.IsNil() {
			b.WriteString("null")
			return
		}
		p := rv.Pointer()
		if _, ok := seen[p]; ok {
			b.WriteString("<cycle>")
			return
		}
		seen[p] = struct{}{}
		writeRepr(b, rv.Elem(), depth+1, seen)
		delete(seen, p)
		return
	case reflect.Bool:
		b.WriteString(strconv.FormatBool(rv.Bool()))
		return
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(rv.Int(), 10))
		return
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		b.WriteString(strconv.FormatUint(rv.Uint(), 10))
		return
	case reflect.Float32, reflect.Float64:
		b.WriteString(formatFloatRepr(rv.Float()))
		return
	case reflect.String:
		b.WriteString(strconv.Quote(rv.String()))
		return
	}
	if rv.Type().Implements(_stringerType) && rv.Kind() != reflect.Map && rv.Kind() != reflect.Slice {
		b.WriteString(rv.Interface().(fmt.Stringer).String())
		return
	}
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			b.WriteString("null")
			return
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b.WriteString(strconv.Quote(string(rv.Bytes())))
			return
		}
		p := rv.Pointer()
		if _, ok := seen[p]; ok && rv.Len() > 0 {
			b.WriteString("<cycle>")
			return
		}
		seen[p] = struct{}{}
		writeSeq(b, rv, depth, seen)
		delete(seen, p)
	case reflect.Array:
		writeSeq(b, rv, depth, seen)
	case reflect.Map:
		if rv.IsNil() {
			b.WriteString("null")
			return
		}
		p := rv.Pointer()
		if _, ok := seen[p]; ok {
			b.WriteString("<cycle>")
			return
		}
		seen[p] = struct{}{}
		writeMap(b, rv, depth, seen)
		delete(seen, p)
	case reflect.Struct:
		writeStruct(b, rv, depth, seen)
	default:
		fmt.Fprintf(b, "%v", rv.Interface())
	}
}

func writeSeq(b *strings.Builder, rv reflect.Value, depth int, seen map[uintptr]struct{}) {
	b.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		writeRepr(b, rv.Index(i), depth+1, seen)
	}
	b.WriteByte(']')
}

func writeMap(b *strings.Builder, rv reflect.Value, depth int, seen map[uintptr]struct{}) {
	type entry struct{ k, v string }
	isSet := rv.Type().Elem().Kind() == reflect.Struct && rv.Type().Elem().NumField() == 0
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		kb := &strings.Builder{}
		writeRepr(kb, iter.Key(), depth+1, seen)
		var vs string
		if !isSet {
			vb := &strings.Builder{}
			writeRepr(vb, iter.Value(), depth+1, seen)
			vs = vb.String()
		}
		entries = append(entries, entry{kb.String(), vs})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].k < entries[j].k })
	b.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.k)
		if !isSet {
			b.WriteString(": ")
			b.WriteString(e.v)
		}
	}
	b.WriteByte('}')
}

func writeStruct(b *strings.Builder, rv reflect.Value, depth int, seen map[uintptr]struct{}) {
	t := rv.Type()
	b.WriteString(t.Name())
	b.WriteByte('{')
	first := true
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(sf.Name)
		b.WriteString(": ")
		writeRepr(b, rv.Field(i), depth+1, seen)
	}
	b.WriteByte('}')
}

// formatFloatRepr keeps a trailing ".0" on integral floats so they stay
// distinguishable from integers in rendered errors.
func formatFloatRepr(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// truncateRepr elides display forms longer than 50 characters to the first 25
// and last 24 characters joined by "...".
func truncateRepr(s string) string {
	r := []rune(s)
	if len(r) <= 50 {
		return s
	}
	return string(r[:25]) + "..." + string(r[len(r)-24:])
}
