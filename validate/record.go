package validate

import (
	"strconv"

	"github.com/reoring/coerce"
	js "github.com/reoring/coerce/jsonschema"
)

// ExtraPolicy decides what a record does with keys it does not declare.
type ExtraPolicy int

const (
	// ExtraIgnore drops undeclared keys.
	ExtraIgnore ExtraPolicy = iota
	// ExtraForbid reports every undeclared key as extra_forbidden.
	ExtraForbid
	// ExtraAllow keeps undeclared keys as their plain values.
	ExtraAllow
)

type recordField struct {
	name       string
	v          Validator[any]
	required   bool
	hasDefault bool
	def        any
}

type recordRefine struct {
	name string
	fn   func(*State, map[string]any) error
}

// RecordBuilder assembles a record (named fields) validator.
type RecordBuilder struct {
	title   string
	fields  []*recordField
	index   map[string]int
	extra   ExtraPolicy
	refines []recordRefine
	strict  *bool
}

// FieldStep configures the field most recently added to a RecordBuilder.
type FieldStep struct {
	b *RecordBuilder
	f *recordField
}

// Record creates a record builder. Fields are validated in declaration order
// and are optional until marked Required.
func Record(title string) *RecordBuilder {
	return &RecordBuilder{title: title, index: map[string]int{}}
}

// Field registers (or replaces) a field with its validator.
func (b *RecordBuilder) Field(name string, v Validator[any]) *FieldStep {
	f := &recordField{name: name, v: v}
	if i, ok := b.index[name]; ok {
		b.fields[i] = f
	} else {
		b.index[name] = len(b.fields)
		b.fields = append(b.fields, f)
	}
	return &FieldStep{b: b, f: f}
}

// Required marks the field as required and returns the builder.
func (s *FieldStep) Required() *RecordBuilder {
	s.f.required = true
	return s.b
}

// Optional marks the field as optional (default) and returns the builder.
func (s *FieldStep) Optional() *RecordBuilder {
	s.f.required = false
	return s.b
}

// Default sets the value used when the field is absent. The value is used
// as given, without validation.
func (s *FieldStep) Default(v any) *RecordBuilder {
	s.f.hasDefault = true
	s.f.def = v
	return s.b
}

// The remaining FieldStep methods leave the field optional and continue
// with the builder.

func (s *FieldStep) Field(name string, v Validator[any]) *FieldStep { return s.b.Field(name, v) }
func (s *FieldStep) Build() Validator[map[string]any]               { return s.b.Build() }
func (s *FieldStep) Require(names ...string) *RecordBuilder         { return s.b.Require(names...) }
func (s *FieldStep) Extra(p ExtraPolicy) *RecordBuilder             { return s.b.Extra(p) }
func (s *FieldStep) Strict(strict bool) *RecordBuilder              { return s.b.Strict(strict) }
func (s *FieldStep) Refine(name string, fn func(*State, map[string]any) error) *RecordBuilder {
	return s.b.Refine(name, fn)
}

// Require marks one or more fields as required.
func (b *RecordBuilder) Require(names ...string) *RecordBuilder {
	for _, n := range names {
		if i, ok := b.index[n]; ok {
			b.fields[i].required = true
		}
	}
	return b
}

// Extra sets the policy for undeclared keys.
func (b *RecordBuilder) Extra(p ExtraPolicy) *RecordBuilder {
	b.extra = p
	return b
}

// Strict overrides the call-wide coercion policy for the record itself.
// Fields keep following the call-wide policy unless they override it.
func (b *RecordBuilder) Strict(strict bool) *RecordBuilder {
	b.strict = boolPtr(strict)
	return b
}

// Refine adds a record-level check executed once every field validated.
// LineErrors it returns are located relative to the record.
func (b *RecordBuilder) Refine(name string, fn func(*State, map[string]any) error) *RecordBuilder {
	if fn != nil {
		b.refines = append(b.refines, recordRefine{name: name, fn: fn})
	}
	return b
}

// Build returns the validator. Later changes to the builder do not affect it.
func (b *RecordBuilder) Build() Validator[map[string]any] {
	fields := make([]*recordField, len(b.fields))
	for i, f := range b.fields {
		cp := *f
		fields[i] = &cp
	}
	return &recordValidator{
		title:   b.title,
		fields:  fields,
		extra:   b.extra,
		refines: append([]recordRefine(nil), b.refines...),
		strict:  b.strict,
	}
}

type recordValidator struct {
	title   string
	fields  []*recordField
	extra   ExtraPolicy
	refines []recordRefine
	strict  *bool
}

func (v *recordValidator) Name() string {
	if v.title != "" {
		return v.title
	}
	return "record"
}

func (v *recordValidator) declared(key string) bool {
	for _, f := range v.fields {
		if f.name == key {
			return true
		}
	}
	return false
}

func (v *recordValidator) Validate(st *State, in coerce.Input) (map[string]any, error) {
	m, err := in.AsMapping(st.strict(v.strict))
	if err != nil {
		return nil, err
	}
	return descend(st, in, func() (map[string]any, error) {
		out := make(map[string]any, len(v.fields))
		var errs coerce.LineErrors
		for _, f := range v.fields {
			fin, ok := m.Get(f.name)
			if !ok {
				switch {
				case f.hasDefault:
					out[f.name] = f.def
				case f.required:
					errs = append(errs, coerce.NewLineError(coerce.NewKind(coerce.CodeMissing), in).WithOuter(coerce.Key(f.name)))
				}
				continue
			}
			fv, err := f.v.Validate(st, fin)
			if err != nil {
				if ferr := coerce.Collect(&errs, err, coerce.Key(f.name)); ferr != nil {
					return nil, ferr
				}
				continue
			}
			out[f.name] = fv
		}
		if v.extra != ExtraIgnore {
			m.Range(func(kin, vin coerce.Input) bool {
				key := keyString(kin)
				if v.declared(key) {
					return true
				}
				if v.extra == ExtraForbid {
					errs = append(errs, coerce.NewLineError(coerce.NewKind(coerce.CodeExtraForbidden), vin).WithOuter(kin.LocItem()))
					return true
				}
				out[key] = vin.ErrorValue().Interface()
				return true
			})
		}
		if len(errs) > 0 {
			return nil, errs
		}
		for _, r := range v.refines {
			if err := coerce.Collect(&errs, r.fn(st, out)); err != nil {
				return nil, err
			}
		}
		if len(errs) > 0 {
			return nil, errs
		}
		return out, nil
	})
}

func keyString(kin coerce.Input) string {
	li := kin.LocItem()
	if li.IsIndex() {
		return strconv.Itoa(li.IndexValue())
	}
	return li.KeyString()
}

func (v *recordValidator) JSONSchema(p *Projection) (*js.Schema, error) {
	s := &js.Schema{Type: "object", Title: v.title, Properties: make(map[string]*js.Schema, len(v.fields))}
	for _, f := range v.fields {
		fs, err := f.v.JSONSchema(p)
		if err != nil {
			return nil, err
		}
		if f.hasDefault {
			cp := *fs
			cp.Default = f.def
			fs = &cp
		}
		s.Properties[f.name] = fs
		if f.required && !f.hasDefault {
			s.Required = append(s.Required, f.name)
		}
	}
	switch v.extra {
	case ExtraForbid:
		s.AdditionalProperties = false
	case ExtraAllow:
		s.AdditionalProperties = true
	}
	return s, nil
}
