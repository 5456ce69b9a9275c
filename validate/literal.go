package validate

import (
	"strings"

	"github.com/reoring/coerce"
	js "github.com/reoring/coerce/jsonschema"
)

// Literal accepts inputs equal to one of expected. Supported expected values
// are nil, bool, string and any Go integer or float; comparison always uses
// strict coercion so "1" never matches 1.
func Literal(expected ...any) Validator[any] {
	norm := make([]any, len(expected))
	for i, e := range expected {
		norm[i] = normalizeLiteral(e)
	}
	return &literalValidator{expected: norm}
}

type literalValidator struct{ expected []any }

func normalizeLiteral(e any) any {
	switch x := e.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return float64(x)
	}
	return e
}

func (v *literalValidator) Name() string { return "literal[" + v.expectedRepr(",") + "]" }

func (v *literalValidator) expectedRepr(sep string) string {
	parts := make([]string, len(v.expected))
	for i, e := range v.expected {
		parts[i] = coerce.FormatValue(e)
	}
	return strings.Join(parts, sep)
}

// expectedMessage renders "a", "a or b", "a, b or c".
func (v *literalValidator) expectedMessage() string {
	n := len(v.expected)
	if n <= 1 {
		return v.expectedRepr("")
	}
	parts := make([]string, n)
	for i, e := range v.expected {
		parts[i] = coerce.FormatValue(e)
	}
	return strings.Join(parts[:n-1], ", ") + " or " + parts[n-1]
}

func (v *literalValidator) Validate(_ *State, in coerce.Input) (any, error) {
	for _, e := range v.expected {
		if literalMatches(e, in) {
			return e, nil
		}
	}
	return nil, coerce.Fail(coerce.NewKind(coerce.CodeLiteralError, "expected", v.expectedMessage()), in)
}

func literalMatches(e any, in coerce.Input) bool {
	switch x := e.(type) {
	case nil:
		return in.IsNone()
	case bool:
		b, err := in.AsBool(true)
		return err == nil && b == x
	case string:
		s, err := in.AsString(true)
		return err == nil && s == x
	case int64:
		n, err := in.AsInt(true)
		return err == nil && n == x
	case float64:
		f, err := in.AsFloat(true)
		return err == nil && f == x
	}
	return false
}

func (v *literalValidator) JSONSchema(p *Projection) (*js.Schema, error) {
	return &js.Schema{Enum: append([]any(nil), v.expected...)}, nil
}
