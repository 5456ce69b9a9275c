package coerce

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ValidationError is the aggregate returned by a failed top-level validation
// call: every line error found in that call, in discovery order, plus the
// title of the type that was validated. It is immutable once built.
type ValidationError struct {
	title string
	lines LineErrors
}

// NewValidationError aggregates line errors under title. Input values are
// snapshotted so the aggregate does not keep the validated document alive.
func NewValidationError(title string, lines LineErrors) *ValidationError {
	return &ValidationError{title: title, lines: lines.Owned()}
}

// FromError promotes the outcome of a validation walk into what a top-level
// call returns: nil stays nil, line errors become a *ValidationError, and
// any other error (fatal ones included) is returned unchanged.
func FromError(title string, err error) error {
	if err == nil {
		return nil
	}
	if IsFatal(err) {
		return err
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	if les, ok := AsLineErrors(err); ok {
		return NewValidationError(title, les)
	}
	return err
}

// Title returns the caller-supplied title.
func (e *ValidationError) Title() string { return e.title }

// ErrorCount returns the number of line errors.
func (e *ValidationError) ErrorCount() int { return len(e.lines) }

// LineErrors returns a copy of the line errors, e.g. to fold them into an
// outer validation walk.
func (e *ValidationError) LineErrors() LineErrors {
	return append(LineErrors(nil), e.lines...)
}

// Unwrap exposes the line errors to errors.As.
func (e *ValidationError) Unwrap() error { return e.lines }

// Error renders the aggregate:
//
//	2 validation errors for Model
//	a  Value must be a valid integer, unable to parse string as an integer [kind=int_parsing, input_value="x", input_type=string]
//	b  Field required [kind=missing, input_value={}, input_type=object]
func (e *ValidationError) Error() string {
	b := &strings.Builder{}
	n := len(e.lines)
	plural := "s"
	if n == 1 {
		plural = ""
	}
	fmt.Fprintf(b, "%d validation error%s for %s", n, plural, e.title)
	for _, le := range e.lines {
		b.WriteByte('\n')
		writeLine(b, le)
	}
	return b.String()
}

func writeLine(b *strings.Builder, le LineError) {
	if len(le.Location) > 0 {
		b.WriteString(le.Location.String())
		b.WriteString("  ")
	}
	b.WriteString(le.Message())
	b.WriteString(" [kind=")
	b.WriteString(string(le.Kind.Code))
	repr, typ := "null", ""
	if le.Input != nil {
		repr, typ = le.Input.Repr(), le.Input.TypeName()
	}
	b.WriteString(", input_value=")
	b.WriteString(truncateRepr(repr))
	if typ != "" {
		b.WriteString(", input_type=")
		b.WriteString(typ)
	}
	b.WriteByte(']')
}

// Record is the structured export of one line error.
type Record struct {
	Kind       string         `json:"kind" yaml:"kind"`
	Loc        []any          `json:"loc" yaml:"loc"`
	Message    string         `json:"message" yaml:"message"`
	InputValue any            `json:"input_value" yaml:"input_value"`
	InputType  string         `json:"input_type,omitempty" yaml:"input_type,omitempty"`
	Context    map[string]any `json:"context,omitempty" yaml:"context,omitempty"`
}

// Errors exports the line errors in order.
func (e *ValidationError) Errors() []Record {
	out := make([]Record, len(e.lines))
	for i, le := range e.lines {
		r := Record{
			Kind:    string(le.Kind.Code),
			Loc:     le.Location.Export(),
			Message: le.Message(),
		}
		if le.Input != nil {
			r.InputValue = le.Input.Interface()
			r.InputType = le.Input.TypeName()
		}
		if len(le.Kind.Context) > 0 {
			r.Context = make(map[string]any, len(le.Kind.Context))
			for k, v := range le.Kind.Context {
				r.Context[k] = v
			}
		}
		out[i] = r
	}
	return out
}

// FromRecords rebuilds an aggregate from its structured export. Messages are
// re-rendered from kind and context; an unknown kind or a missing context key
// is an invariant violation.
func FromRecords(title string, recs []Record) (*ValidationError, error) {
	lines := make(LineErrors, len(recs))
	for i, r := range recs {
		kind := ErrorKind{Code: Code(r.Kind)}
		if len(r.Context) > 0 {
			kind.Context = make(Context, len(r.Context))
			for k, v := range r.Context {
				kind.Context[k] = v
			}
		}
		if err := kind.check(); err != nil {
			return nil, &FatalError{Err: fmt.Errorf("%w: record %d: %v", ErrInvariant, i, err)}
		}
		loc, err := LocationFromExport(r.Loc)
		if err != nil {
			return nil, &FatalError{Err: fmt.Errorf("%w: record %d: %v", ErrInvariant, i, err)}
		}
		lines[i] = LineError{Kind: kind, Location: loc, Input: OwnedValue(r.InputValue, r.InputType)}
	}
	return &ValidationError{title: title, lines: lines}, nil
}

type validationErrorJSON struct {
	Title      string   `json:"title"`
	ErrorCount int      `json:"error_count"`
	Errors     []Record `json:"errors"`
}

// MarshalJSON encodes {"title", "error_count", "errors"}. Integral floats
// in input values and contexts are written with a fraction ("4.0") so they
// decode as floats again.
func (e *ValidationError) MarshalJSON() ([]byte, error) {
	recs := e.Errors()
	for i := range recs {
		mapNumbers(&recs[i], exportFloat)
	}
	return json.Marshal(validationErrorJSON{Title: e.title, ErrorCount: len(e.lines), Errors: recs})
}

// mapNumbers rewrites the input value and context of r with fn, descending
// into decoded JSON containers.
func mapNumbers(r *Record, fn func(any) any) {
	r.InputValue = walkNumbers(r.InputValue, fn)
	for k, v := range r.Context {
		r.Context[k] = walkNumbers(v, fn)
	}
}

func walkNumbers(v any, fn func(any) any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = walkNumbers(e, fn)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = walkNumbers(e, fn)
		}
		return out
	}
	return fn(v)
}

func exportFloat(v any) any {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	default:
		return v
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return v
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return json.Number(s)
}

// importFloat turns numbers written with a fraction or exponent back into
// float64; integers stay json.Number.
func importFloat(v any) any {
	n, ok := v.(json.Number)
	if !ok || !strings.ContainsAny(string(n), ".eE") {
		return v
	}
	f, err := n.Float64()
	if err != nil {
		return v
	}
	return f
}

// UnmarshalJSON decodes the MarshalJSON form through FromRecords. Numbers are
// kept as json.Number so integers and indices survive unchanged.
func (e *ValidationError) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw validationErrorJSON
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw.ErrorCount != len(raw.Errors) {
		return fmt.Errorf("coerce: error_count %d does not match %d errors", raw.ErrorCount, len(raw.Errors))
	}
	for i := range raw.Errors {
		mapNumbers(&raw.Errors[i], importFloat)
	}
	ve, err := FromRecords(raw.Title, raw.Errors)
	if err != nil {
		return err
	}
	*e = *ve
	return nil
}
