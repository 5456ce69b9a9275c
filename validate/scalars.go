package validate

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/reoring/coerce"
	js "github.com/reoring/coerce/jsonschema"
)

// StrBuilder exposes chaining options for string validators.
type StrBuilder interface {
	Validator[string]
	Min(n int) StrBuilder
	Max(n int) StrBuilder
	Pattern(expr string) StrBuilder
	// Strip trims surrounding whitespace before the length checks.
	Strip() StrBuilder
	Lower() StrBuilder
	Upper() StrBuilder
	Strict(strict bool) StrBuilder
}

// Str returns a string validator.
func Str() StrBuilder { return &strValidator{minLen: -1, maxLen: -1} }

type strValidator struct {
	minLen, maxLen int
	pattern        *regexp.Regexp
	strip          bool
	lower, upper   bool
	strict         *bool
}

func (v *strValidator) Min(n int) StrBuilder { v.minLen = n; return v }
func (v *strValidator) Max(n int) StrBuilder { v.maxLen = n; return v }

// Pattern panics when expr does not compile, like regexp.MustCompile.
func (v *strValidator) Pattern(expr string) StrBuilder {
	v.pattern = regexp.MustCompile(expr)
	return v
}
func (v *strValidator) Strip() StrBuilder             { v.strip = true; return v }
func (v *strValidator) Lower() StrBuilder             { v.lower = true; return v }
func (v *strValidator) Upper() StrBuilder             { v.upper = true; return v }
func (v *strValidator) Strict(strict bool) StrBuilder { v.strict = boolPtr(strict); return v }

func (v *strValidator) Name() string { return "str" }

func (v *strValidator) Validate(st *State, in coerce.Input) (string, error) {
	s, err := in.AsString(st.strict(v.strict))
	if err != nil {
		return "", err
	}
	// Normalize -> length -> pattern
	if v.strip {
		s = strings.TrimSpace(s)
	}
	if v.lower {
		s = strings.ToLower(s)
	}
	if v.upper {
		s = strings.ToUpper(s)
	}
	n := utf8.RuneCountInString(s)
	if v.minLen >= 0 && n < v.minLen {
		return "", coerce.Fail(coerce.NewKind(coerce.CodeStringTooShort, "min_length", v.minLen), in)
	}
	if v.maxLen >= 0 && n > v.maxLen {
		return "", coerce.Fail(coerce.NewKind(coerce.CodeStringTooLong, "max_length", v.maxLen), in)
	}
	if v.pattern != nil && !v.pattern.MatchString(s) {
		return "", coerce.Fail(coerce.NewKind(coerce.CodeStringPatternMismatch, "pattern", v.pattern.String()), in)
	}
	return s, nil
}

func (v *strValidator) JSONSchema(p *Projection) (*js.Schema, error) {
	s := &js.Schema{Type: "string"}
	if v.minLen >= 0 {
		s.MinLength = js.IntPtr(v.minLen)
	}
	if v.maxLen >= 0 {
		s.MaxLength = js.IntPtr(v.maxLen)
	}
	if v.pattern != nil {
		s.Pattern = v.pattern.String()
	}
	return s, nil
}

// BytesBuilder exposes chaining options for bytes validators.
type BytesBuilder interface {
	Validator[[]byte]
	Min(n int) BytesBuilder
	Max(n int) BytesBuilder
	Strict(strict bool) BytesBuilder
}

// Bytes returns a bytes validator.
func Bytes() BytesBuilder { return &bytesValidator{minLen: -1, maxLen: -1} }

type bytesValidator struct {
	minLen, maxLen int
	strict         *bool
}

func (v *bytesValidator) Min(n int) BytesBuilder                       { v.minLen = n; return v }
func (v *bytesValidator) Max(n int) BytesBuilder                       { v.maxLen = n; return v }
func (v *bytesValidator) Strict(strict bool) BytesBuilder              { v.strict = boolPtr(strict); return v }
func (v *bytesValidator) Name() string                                 { return "bytes" }
func (v *bytesValidator) JSONSchema(p *Projection) (*js.Schema, error) { return v.schema(), nil }
func (v *bytesValidator) schema() *js.Schema {
	s := &js.Schema{Type: "string", Format: "binary"}
	if v.minLen >= 0 {
		s.MinLength = js.IntPtr(v.minLen)
	}
	if v.maxLen >= 0 {
		s.MaxLength = js.IntPtr(v.maxLen)
	}
	return s
}

func (v *bytesValidator) Validate(st *State, in coerce.Input) ([]byte, error) {
	b, err := in.AsBytes(st.strict(v.strict))
	if err != nil {
		return nil, err
	}
	if v.minLen >= 0 && len(b) < v.minLen {
		return nil, coerce.Fail(coerce.NewKind(coerce.CodeBytesTooShort, "min_length", v.minLen), in)
	}
	if v.maxLen >= 0 && len(b) > v.maxLen {
		return nil, coerce.Fail(coerce.NewKind(coerce.CodeBytesTooLong, "max_length", v.maxLen), in)
	}
	return b, nil
}

// BoolBuilder exposes chaining options for bool validators.
type BoolBuilder interface {
	Validator[bool]
	Strict(strict bool) BoolBuilder
}

// Bool returns a boolean validator.
func Bool() BoolBuilder { return &boolValidator{} }

type boolValidator struct{ strict *bool }

func (v *boolValidator) Strict(strict bool) BoolBuilder { v.strict = boolPtr(strict); return v }
func (v *boolValidator) Name() string                   { return "bool" }
func (v *boolValidator) JSONSchema(p *Projection) (*js.Schema, error) {
	return &js.Schema{Type: "boolean"}, nil
}
func (v *boolValidator) Validate(st *State, in coerce.Input) (bool, error) {
	return in.AsBool(st.strict(v.strict))
}

// bounds holds numeric constraints shared by Int and Float. Each constraint
// is checked in the order gt, ge, lt, le, multiple_of; the first failure is
// reported.
type bounds[N int64 | float64] struct {
	gt, ge, lt, le, multipleOf *N
}

func (b *bounds[N]) check(x N, in coerce.Input) error {
	switch {
	case b.gt != nil && !(x > *b.gt):
		return coerce.Fail(coerce.NewKind(coerce.CodeGreaterThan, "gt", *b.gt), in)
	case b.ge != nil && !(x >= *b.ge):
		return coerce.Fail(coerce.NewKind(coerce.CodeGreaterThanEqual, "ge", *b.ge), in)
	case b.lt != nil && !(x < *b.lt):
		return coerce.Fail(coerce.NewKind(coerce.CodeLessThan, "lt", *b.lt), in)
	case b.le != nil && !(x <= *b.le):
		return coerce.Fail(coerce.NewKind(coerce.CodeLessThanEqual, "le", *b.le), in)
	case b.multipleOf != nil && !isMultiple(float64(x), float64(*b.multipleOf)):
		return coerce.Fail(coerce.NewKind(coerce.CodeMultipleOf, "multiple_of", *b.multipleOf), in)
	}
	return nil
}

func isMultiple(x, m float64) bool {
	if m == 0 {
		return false
	}
	r := math.Mod(x, m)
	return r == 0 || math.Abs(r) < 1e-9 || math.Abs(math.Abs(r)-math.Abs(m)) < 1e-9
}

func (b *bounds[N]) apply(s *js.Schema) {
	if b.gt != nil {
		s.ExclusiveMinimum = js.FloatPtr(float64(*b.gt))
	}
	if b.ge != nil {
		s.Minimum = js.FloatPtr(float64(*b.ge))
	}
	if b.lt != nil {
		s.ExclusiveMaximum = js.FloatPtr(float64(*b.lt))
	}
	if b.le != nil {
		s.Maximum = js.FloatPtr(float64(*b.le))
	}
	if b.multipleOf != nil {
		s.MultipleOf = js.FloatPtr(float64(*b.multipleOf))
	}
}

// IntBuilder exposes chaining options for integer validators.
type IntBuilder interface {
	Validator[int64]
	Gt(n int64) IntBuilder
	Ge(n int64) IntBuilder
	Lt(n int64) IntBuilder
	Le(n int64) IntBuilder
	MultipleOf(n int64) IntBuilder
	Strict(strict bool) IntBuilder
}

// Int returns a 64-bit integer validator.
func Int() IntBuilder { return &intValidator{} }

type intValidator struct {
	b      bounds[int64]
	strict *bool
}

func (v *intValidator) Gt(n int64) IntBuilder         { v.b.gt = &n; return v }
func (v *intValidator) Ge(n int64) IntBuilder         { v.b.ge = &n; return v }
func (v *intValidator) Lt(n int64) IntBuilder         { v.b.lt = &n; return v }
func (v *intValidator) Le(n int64) IntBuilder         { v.b.le = &n; return v }
func (v *intValidator) MultipleOf(n int64) IntBuilder { v.b.multipleOf = &n; return v }
func (v *intValidator) Strict(strict bool) IntBuilder { v.strict = boolPtr(strict); return v }
func (v *intValidator) Name() string                  { return "int" }

func (v *intValidator) Validate(st *State, in coerce.Input) (int64, error) {
	n, err := in.AsInt(st.strict(v.strict))
	if err != nil {
		return 0, err
	}
	if err := v.b.check(n, in); err != nil {
		return 0, err
	}
	return n, nil
}

func (v *intValidator) JSONSchema(p *Projection) (*js.Schema, error) {
	s := &js.Schema{Type: "integer"}
	v.b.apply(s)
	return s, nil
}

// FloatBuilder exposes chaining options for float validators.
type FloatBuilder interface {
	Validator[float64]
	Gt(f float64) FloatBuilder
	Ge(f float64) FloatBuilder
	Lt(f float64) FloatBuilder
	Le(f float64) FloatBuilder
	MultipleOf(f float64) FloatBuilder
	Strict(strict bool) FloatBuilder
}

// Float returns a float64 validator.
func Float() FloatBuilder { return &floatValidator{} }

type floatValidator struct {
	b      bounds[float64]
	strict *bool
}

func (v *floatValidator) Gt(f float64) FloatBuilder         { v.b.gt = &f; return v }
func (v *floatValidator) Ge(f float64) FloatBuilder         { v.b.ge = &f; return v }
func (v *floatValidator) Lt(f float64) FloatBuilder         { v.b.lt = &f; return v }
func (v *floatValidator) Le(f float64) FloatBuilder         { v.b.le = &f; return v }
func (v *floatValidator) MultipleOf(f float64) FloatBuilder { v.b.multipleOf = &f; return v }
func (v *floatValidator) Strict(strict bool) FloatBuilder   { v.strict = boolPtr(strict); return v }
func (v *floatValidator) Name() string                      { return "float" }

func (v *floatValidator) Validate(st *State, in coerce.Input) (float64, error) {
	f, err := in.AsFloat(st.strict(v.strict))
	if err != nil {
		return 0, err
	}
	if err := v.b.check(f, in); err != nil {
		return 0, err
	}
	return f, nil
}

func (v *floatValidator) JSONSchema(p *Projection) (*js.Schema, error) {
	s := &js.Schema{Type: "number"}
	v.b.apply(s)
	return s, nil
}

// None accepts only the null input.
func None() Validator[any] { return noneValidator{} }

type noneValidator struct{}

func (noneValidator) Name() string { return "none" }
func (noneValidator) JSONSchema(p *Projection) (*js.Schema, error) {
	return &js.Schema{Type: "null"}, nil
}
func (noneValidator) Validate(_ *State, in coerce.Input) (any, error) {
	if in.IsNone() {
		return nil, nil
	}
	return nil, coerce.Fail(coerce.NewKind(coerce.CodeNoneRequired), in)
}

// Any accepts every input and returns its plain value.
func Any() Validator[any] { return anyValidator{} }

type anyValidator struct{}

func (anyValidator) Name() string                                 { return "any" }
func (anyValidator) JSONSchema(p *Projection) (*js.Schema, error) { return &js.Schema{}, nil }
func (anyValidator) Validate(_ *State, in coerce.Input) (any, error) {
	return in.ErrorValue().Interface(), nil
}
