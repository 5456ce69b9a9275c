package validate

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/reoring/coerce"
)

// SchemaError reports an invalid core-schema mapping passed to FromSchema.
type SchemaError struct {
	Location coerce.Location
	Message  string
}

func (e *SchemaError) Error() string {
	if len(e.Location) == 0 {
		return "validate: schema: " + e.Message
	}
	return "validate: schema at " + e.Location.String() + ": " + e.Message
}

// FromSchema builds a validator from a core-schema mapping such as
//
//	{"type": "list", "items_schema": {"type": "int"}, "min_length": 2}
//
// Supported types: str, bytes, bool, int, float, none, any, literal, date,
// time, datetime, timedelta, list, set, frozenset, tuple, dict, typed-dict,
// nullable, union, definitions and definition-ref. Every schema accepts an
// optional "strict" boolean overriding the call-wide policy where the
// validator supports it.
func FromSchema(schema map[string]any) (Validator[any], error) {
	c := &compiler{defs: map[string]*defSlot{}}
	v, err := c.compile(schema, nil)
	if err != nil {
		return nil, err
	}
	for name, slot := range c.defs {
		if slot.v == nil {
			return nil, &SchemaError{Message: "definition-ref to undefined " + strconv.Quote(name)}
		}
	}
	return v, nil
}

// MustFromSchema is like FromSchema but panics on error.
func MustFromSchema(schema map[string]any) Validator[any] {
	v, err := FromSchema(schema)
	if err != nil {
		panic(err)
	}
	return v
}

// defSlot holds a named definition. Every definition-ref to the same name
// shares ref, so recursive projections terminate on the first revisit.
type defSlot struct {
	v   Validator[any]
	ref Validator[any]
}

type compiler struct {
	defs map[string]*defSlot
}

func (c *compiler) slot(name string) *defSlot {
	s, ok := c.defs[name]
	if !ok {
		s = &defSlot{}
		c.defs[name] = s
	}
	return s
}

func fail(loc coerce.Location, format string, args ...any) error {
	return &SchemaError{Location: loc, Message: fmt.Sprintf(format, args...)}
}

// sub returns the nested schema mapping stored under key.
func sub(m map[string]any, key string, loc coerce.Location) (map[string]any, error) {
	raw, ok := m[key]
	if !ok {
		return nil, fail(loc, "missing %q", key)
	}
	sm, ok := asMap(raw)
	if !ok {
		return nil, fail(loc.Append(coerce.Key(key)), "expected a mapping, got %T", raw)
	}
	return sm, nil
}

func asMap(raw any) (map[string]any, bool) {
	switch t := raw.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	}
	return nil, false
}

func optInt(m map[string]any, key string, loc coerce.Location) (int, bool, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	n, ok := toInt64(raw)
	if !ok || n < 0 || n > math.MaxInt32 {
		return 0, false, fail(loc.Append(coerce.Key(key)), "expected a non-negative integer, got %v", raw)
	}
	return int(n), true, nil
}

func optFloat(m map[string]any, key string, loc coerce.Location) (*float64, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	f, ok := toFloat64(raw)
	if !ok {
		return nil, fail(loc.Append(coerce.Key(key)), "expected a number, got %v", raw)
	}
	return &f, nil
}

func optBool(m map[string]any, key string, loc coerce.Location) (*bool, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return nil, fail(loc.Append(coerce.Key(key)), "expected a boolean, got %v", raw)
	}
	return &b, nil
}

func optString(m map[string]any, key string, loc coerce.Location) (string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fail(loc.Append(coerce.Key(key)), "expected a string, got %v", raw)
	}
	return s, nil
}

func toInt64(raw any) (int64, bool) {
	switch t := raw.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case int32:
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case float64:
		if t != math.Trunc(t) || math.Abs(t) > 1<<53 {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	}
	return 0, false
}

func toFloat64(raw any) (float64, bool) {
	switch t := raw.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	if n, ok := toInt64(raw); ok {
		return float64(n), true
	}
	return 0, false
}

// hashable reports whether values produced by the schema are always valid
// map keys.
func hashable(m map[string]any) bool {
	switch m["type"] {
	case "str", "bool", "int", "float", "none", "literal", "date", "time", "datetime", "timedelta":
		return true
	case "nullable":
		inner, ok := asMap(m["schema"])
		return ok && hashable(inner)
	case "union":
		choices, ok := m["choices"].([]any)
		if !ok {
			return false
		}
		for _, ch := range choices {
			cm, ok := asMap(ch)
			if !ok || !hashable(cm) {
				return false
			}
		}
		return true
	}
	return false
}

func (c *compiler) compile(m map[string]any, loc coerce.Location) (Validator[any], error) {
	typ, _ := m["type"].(string)
	strict, err := optBool(m, "strict", loc)
	if err != nil {
		return nil, err
	}
	switch typ {
	case "str":
		return c.str(m, loc, strict)
	case "bytes":
		b := Bytes()
		if err := applyLengths(m, loc, func(n int) { b.Min(n) }, func(n int) { b.Max(n) }); err != nil {
			return nil, err
		}
		if strict != nil {
			b.Strict(*strict)
		}
		return Erase[[]byte](b), nil
	case "bool":
		b := Bool()
		if strict != nil {
			b.Strict(*strict)
		}
		return Erase[bool](b), nil
	case "int":
		return c.integer(m, loc, strict)
	case "float":
		return c.number(m, loc, strict)
	case "none":
		return None(), nil
	case "any":
		return Any(), nil
	case "literal":
		exp, ok := m["expected"].([]any)
		if !ok || len(exp) == 0 {
			return nil, fail(loc.Append(coerce.Key("expected")), "expected a non-empty list")
		}
		return Literal(exp...), nil
	case "date":
		d := Date()
		fb, err := optBool(m, "from_datetime", loc)
		if err != nil {
			return nil, err
		}
		if fb != nil && *fb {
			d.FromDatetime()
		}
		if strict != nil {
			d.Strict(*strict)
		}
		return Erase[coerce.Date](d), nil
	case "time":
		t := Time()
		if strict != nil {
			t.Strict(*strict)
		}
		return Erase[coerce.TimeOfDay](t), nil
	case "datetime":
		t := Datetime()
		if strict != nil {
			t.Strict(*strict)
		}
		return Erase[time.Time](t), nil
	}
	return c.composite(typ, m, loc, strict)
}

func applyLengths(m map[string]any, loc coerce.Location, setMin, setMax func(int)) error {
	lo, okLo, err := optInt(m, "min_length", loc)
	if err != nil {
		return err
	}
	hi, okHi, err := optInt(m, "max_length", loc)
	if err != nil {
		return err
	}
	if okLo {
		setMin(lo)
	}
	if okHi {
		setMax(hi)
	}
	return nil
}

func (c *compiler) str(m map[string]any, loc coerce.Location, strict *bool) (Validator[any], error) {
	s := Str()
	if err := applyLengths(m, loc, func(n int) { s.Min(n) }, func(n int) { s.Max(n) }); err != nil {
		return nil, err
	}
	pat, err := optString(m, "pattern", loc)
	if err != nil {
		return nil, err
	}
	if pat != "" {
		if _, err := regexp.Compile(pat); err != nil {
			return nil, fail(loc.Append(coerce.Key("pattern")), "%v", err)
		}
		s.Pattern(pat)
	}
	for key, apply := range map[string]func() StrBuilder{"strip_whitespace": s.Strip, "to_lower": s.Lower, "to_upper": s.Upper} {
		b, err := optBool(m, key, loc)
		if err != nil {
			return nil, err
		}
		if b != nil && *b {
			apply()
		}
	}
	if strict != nil {
		s.Strict(*strict)
	}
	return Erase[string](s), nil
}

func (c *compiler) integer(m map[string]any, loc coerce.Location, strict *bool) (Validator[any], error) {
	v := Int()
	for _, key := range []string{"gt", "ge", "lt", "le", "multiple_of"} {
		raw, ok := m[key]
		if !ok || raw == nil {
			continue
		}
		n, ok := toInt64(raw)
		if !ok {
			return nil, fail(loc.Append(coerce.Key(key)), "expected an integer, got %v", raw)
		}
		switch key {
		case "gt":
			v.Gt(n)
		case "ge":
			v.Ge(n)
		case "lt":
			v.Lt(n)
		case "le":
			v.Le(n)
		case "multiple_of":
			if n == 0 {
				return nil, fail(loc.Append(coerce.Key(key)), "must not be zero")
			}
			v.MultipleOf(n)
		}
	}
	if strict != nil {
		v.Strict(*strict)
	}
	return Erase[int64](v), nil
}

func (c *compiler) number(m map[string]any, loc coerce.Location, strict *bool) (Validator[any], error) {
	v := Float()
	for _, key := range []string{"gt", "ge", "lt", "le", "multiple_of"} {
		f, err := optFloat(m, key, loc)
		if err != nil {
			return nil, err
		}
		if f == nil {
			continue
		}
		switch key {
		case "gt":
			v.Gt(*f)
		case "ge":
			v.Ge(*f)
		case "lt":
			v.Lt(*f)
		case "le":
			v.Le(*f)
		case "multiple_of":
			if *f == 0 {
				return nil, fail(loc.Append(coerce.Key(key)), "must not be zero")
			}
			v.MultipleOf(*f)
		}
	}
	if strict != nil {
		v.Strict(*strict)
	}
	return Erase[float64](v), nil
}

func (c *compiler) composite(typ string, m map[string]any, loc coerce.Location, strict *bool) (Validator[any], error) {
	switch typ {
	case "timedelta":
		t := Timedelta()
		if strict != nil {
			t.Strict(*strict)
		}
		return Erase[time.Duration](t), nil
	case "list":
		items, err := c.items(m, loc)
		if err != nil {
			return nil, err
		}
		l := List(items)
		if err := applyLengths(m, loc, func(n int) { l.Min(n) }, func(n int) { l.Max(n) }); err != nil {
			return nil, err
		}
		if strict != nil {
			l.Strict(*strict)
		}
		return Erase[[]any](l), nil
	case "set", "frozenset":
		items, err := c.items(m, loc)
		if err != nil {
			return nil, err
		}
		if im, _ := asMap(m["items_schema"]); im == nil || !hashable(im) {
			return nil, fail(loc.Append(coerce.Key("items_schema")), "%s items must be scalar", typ)
		}
		s := Set(items)
		if typ == "frozenset" {
			s = FrozenSet(items)
		}
		if err := applyLengths(m, loc, func(n int) { s.Min(n) }, func(n int) { s.Max(n) }); err != nil {
			return nil, err
		}
		if strict != nil {
			s.Strict(*strict)
		}
		return Erase[map[any]struct{}](s), nil
	case "tuple":
		return c.tuple(m, loc, strict)
	case "dict":
		return c.dict(m, loc, strict)
	case "typed-dict":
		return c.record(m, loc, strict)
	case "nullable":
		inner, err := sub(m, "schema", loc)
		if err != nil {
			return nil, err
		}
		v, err := c.compile(inner, loc.Append(coerce.Key("schema")))
		if err != nil {
			return nil, err
		}
		return Optional(v), nil
	case "union":
		choices, ok := m["choices"].([]any)
		if !ok || len(choices) == 0 {
			return nil, fail(loc.Append(coerce.Key("choices")), "expected a non-empty list")
		}
		branches := make([]Validator[any], 0, len(choices))
		for i, ch := range choices {
			cm, ok := asMap(ch)
			if !ok {
				return nil, fail(loc.Append(coerce.Key("choices"), coerce.Index(i)), "expected a mapping")
			}
			b, err := c.compile(cm, loc.Append(coerce.Key("choices"), coerce.Index(i)))
			if err != nil {
				return nil, err
			}
			branches = append(branches, b)
		}
		return Union(branches...), nil
	case "definitions":
		return c.definitions(m, loc)
	case "definition-ref":
		ref, err := optString(m, "schema_ref", loc)
		if err != nil {
			return nil, err
		}
		if ref == "" {
			return nil, fail(loc, "missing \"schema_ref\"")
		}
		slot := c.slot(ref)
		if slot.ref == nil {
			slot.ref = Lazy[any](ref, func() Validator[any] { return slot.v })
		}
		return slot.ref, nil
	case "":
		return nil, fail(loc, "missing \"type\"")
	}
	return nil, fail(loc.Append(coerce.Key("type")), "unknown schema type %q", typ)
}

func (c *compiler) items(m map[string]any, loc coerce.Location) (Validator[any], error) {
	if _, ok := m["items_schema"]; !ok {
		return Any(), nil
	}
	im, err := sub(m, "items_schema", loc)
	if err != nil {
		return nil, err
	}
	return c.compile(im, loc.Append(coerce.Key("items_schema")))
}

func (c *compiler) tuple(m map[string]any, loc coerce.Location, strict *bool) (Validator[any], error) {
	raw, _ := m["items_schema"].([]any)
	items := make([]Validator[any], 0, len(raw))
	for i, it := range raw {
		im, ok := asMap(it)
		if !ok {
			return nil, fail(loc.Append(coerce.Key("items_schema"), coerce.Index(i)), "expected a mapping")
		}
		v, err := c.compile(im, loc.Append(coerce.Key("items_schema"), coerce.Index(i)))
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	t := Tuple(items...)
	if _, ok := m["extras_schema"]; ok {
		em, err := sub(m, "extras_schema", loc)
		if err != nil {
			return nil, err
		}
		rest, err := c.compile(em, loc.Append(coerce.Key("extras_schema")))
		if err != nil {
			return nil, err
		}
		t.Rest(rest)
	}
	if strict != nil {
		t.Strict(*strict)
	}
	return Erase[[]any](t), nil
}

func (c *compiler) dict(m map[string]any, loc coerce.Location, strict *bool) (Validator[any], error) {
	key, val := Validator[any](Any()), Validator[any](Any())
	if _, ok := m["keys_schema"]; ok {
		km, err := sub(m, "keys_schema", loc)
		if err != nil {
			return nil, err
		}
		if !hashable(km) {
			return nil, fail(loc.Append(coerce.Key("keys_schema")), "dict keys must be scalar")
		}
		if key, err = c.compile(km, loc.Append(coerce.Key("keys_schema"))); err != nil {
			return nil, err
		}
	} else {
		key = Erase[string](Str())
	}
	if _, ok := m["values_schema"]; ok {
		vm, err := sub(m, "values_schema", loc)
		if err != nil {
			return nil, err
		}
		if val, err = c.compile(vm, loc.Append(coerce.Key("values_schema"))); err != nil {
			return nil, err
		}
	}
	d := Dict(key, val)
	if err := applyLengths(m, loc, func(n int) { d.Min(n) }, func(n int) { d.Max(n) }); err != nil {
		return nil, err
	}
	if strict != nil {
		d.Strict(*strict)
	}
	return Erase[map[any]any](d), nil
}

// record accepts "fields" either as a list of {"name", "schema", "required",
// "default"} entries (declaration order kept) or as a mapping from name to
// {"schema", ...} (fields ordered by name).
func (c *compiler) record(m map[string]any, loc coerce.Location, strict *bool) (Validator[any], error) {
	title, err := optString(m, "title", loc)
	if err != nil {
		return nil, err
	}
	b := Record(title)
	type entry struct {
		name string
		spec map[string]any
		loc  coerce.Location
	}
	var entries []entry
	floc := loc.Append(coerce.Key("fields"))
	switch fs := m["fields"].(type) {
	case []any:
		for i, f := range fs {
			fm, ok := asMap(f)
			if !ok {
				return nil, fail(floc.Append(coerce.Index(i)), "expected a mapping")
			}
			name, _ := fm["name"].(string)
			if name == "" {
				return nil, fail(floc.Append(coerce.Index(i)), "missing \"name\"")
			}
			entries = append(entries, entry{name: name, spec: fm, loc: floc.Append(coerce.Index(i))})
		}
	case nil:
	default:
		fm, ok := asMap(fs)
		if !ok {
			return nil, fail(floc, "expected a list or a mapping")
		}
		names := make([]string, 0, len(fm))
		for n := range fm {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			spec, ok := asMap(fm[n])
			if !ok {
				return nil, fail(floc.Append(coerce.Key(n)), "expected a mapping")
			}
			entries = append(entries, entry{name: n, spec: spec, loc: floc.Append(coerce.Key(n))})
		}
	}
	for _, e := range entries {
		sm, err := sub(e.spec, "schema", e.loc)
		if err != nil {
			return nil, err
		}
		fv, err := c.compile(sm, e.loc.Append(coerce.Key("schema")))
		if err != nil {
			return nil, err
		}
		step := b.Field(e.name, fv)
		if def, ok := e.spec["default"]; ok {
			step.Default(def)
		}
		req, err := optBool(e.spec, "required", e.loc)
		if err != nil {
			return nil, err
		}
		// Fields are required unless declared otherwise.
		if req == nil || *req {
			step.Required()
		}
	}
	extra, err := optString(m, "extra_behavior", loc)
	if err != nil {
		return nil, err
	}
	switch extra {
	case "", "ignore":
	case "forbid":
		b.Extra(ExtraForbid)
	case "allow":
		b.Extra(ExtraAllow)
	default:
		return nil, fail(loc.Append(coerce.Key("extra_behavior")), "unknown extra behavior %q", extra)
	}
	if strict != nil {
		b.Strict(*strict)
	}
	return Erase[map[string]any](b.Build()), nil
}

// definitions compiles {"type": "definitions", "schema": {...},
// "definitions": [{"ref": "Node", "type": ...}, ...]}.
func (c *compiler) definitions(m map[string]any, loc coerce.Location) (Validator[any], error) {
	defs, _ := m["definitions"].([]any)
	dloc := loc.Append(coerce.Key("definitions"))
	for i, d := range defs {
		dm, ok := asMap(d)
		if !ok {
			return nil, fail(dloc.Append(coerce.Index(i)), "expected a mapping")
		}
		ref, _ := dm["ref"].(string)
		if ref == "" {
			return nil, fail(dloc.Append(coerce.Index(i)), "missing \"ref\"")
		}
		v, err := c.compile(dm, dloc.Append(coerce.Index(i)))
		if err != nil {
			return nil, err
		}
		c.slot(ref).v = v
	}
	root, err := sub(m, "schema", loc)
	if err != nil {
		return nil, err
	}
	return c.compile(root, loc.Append(coerce.Key("schema")))
}
