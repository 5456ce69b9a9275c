package coerce

import (
	"errors"
	"fmt"
	"strings"
)

// LineError is one independently reportable failure: what went wrong, where,
// and the offending value.
type LineError struct {
	Kind     ErrorKind
	Location Location
	// Input is the offending value. Inside a validation call it may borrow from
	// the caller's document; NewValidationError snapshots it.
	Input InputValue
}

// NewLineError creates a line error with an empty location for the given
// input.
func NewLineError(kind ErrorKind, in Input) LineError {
	var v InputValue
	if in != nil {
		v = in.ErrorValue()
	}
	return LineError{Kind: kind, Input: v}
}

// WithOuter returns a copy of e with items prepended to its location.
func (e LineError) WithOuter(items ...LocItem) LineError {
	e.Location = e.Location.Prepend(items...)
	return e
}

// Message renders the kind's message.
func (e LineError) Message() string { return e.Kind.Message() }

// Error implements error.
func (e LineError) Error() string {
	if len(e.Location) == 0 {
		return e.Message()
	}
	return e.Location.String() + ": " + e.Message()
}

// LineErrors is a non-empty collection of recoverable failures that
// implements error.
type LineErrors []LineError

// Error summarizes the first few line errors.
func (les LineErrors) Error() string {
	if len(les) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(les)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		// e.g. int_parsing at items[1]
		fmt.Fprintf(b, "%s at %s", les[i].Kind.Code, les[i].Location)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Unwrap exposes each line error to errors.As.
func (les LineErrors) Unwrap() []error {
	errs := make([]error, len(les))
	for i, le := range les {
		errs[i] = le
	}
	return errs
}

// WithOuter returns a copy with items prepended to every location.
func (les LineErrors) WithOuter(items ...LocItem) LineErrors {
	out := make(LineErrors, len(les))
	for i, le := range les {
		out[i] = le.WithOuter(items...)
	}
	return out
}

// Owned returns a copy whose input values are snapshots, detached from the
// document or object graph they were read from.
func (les LineErrors) Owned() LineErrors {
	out := make(LineErrors, len(les))
	for i, le := range les {
		le.Input = Snapshot(le.Input)
		out[i] = le
	}
	return out
}

// Fail returns the single-error failure for kind at the input.
func Fail(kind ErrorKind, in Input) error {
	return LineErrors{NewLineError(kind, in)}
}

// AsLineErrors extracts LineErrors from an error using errors.As internally.
func AsLineErrors(err error) (LineErrors, bool) {
	if err == nil {
		return nil, false
	}
	var les LineErrors
	if errors.As(err, &les) {
		return les, true
	}
	return nil, false
}

// Collect merges the recoverable failures in err into dst, prefixing outer to
// their locations, and returns nil so the caller can carry on with the next
// sibling. A fatal error is returned with outer prepended to its location;
// a foreign error is returned unchanged. Both must abort the walk.
func Collect(dst *LineErrors, err error, outer ...LocItem) error {
	if err == nil {
		return nil
	}
	var fe *FatalError
	if errors.As(err, &fe) {
		if len(outer) == 0 {
			return fe
		}
		return &FatalError{Err: fe.Err, Location: fe.Location.Prepend(outer...)}
	}
	les, ok := AsLineErrors(err)
	if !ok {
		return err
	}
	for _, le := range les {
		*dst = append(*dst, le.WithOuter(outer...))
	}
	return nil
}

// Result returns dst as an error, or nil when nothing was collected.
func Result(dst LineErrors) error {
	if len(dst) == 0 {
		return nil
	}
	return dst
}

var (
	// ErrRecursionLoop reports a container reachable from itself.
	ErrRecursionLoop = errors.New("recursion detected")
	// ErrDepthExceeded reports nesting beyond the configured maximum depth.
	ErrDepthExceeded = errors.New("maximum depth exceeded")
	// ErrInvariant reports an internal inconsistency, such as an unknown
	// error kind in a structured export.
	ErrInvariant = errors.New("internal invariant violated")
)

// FatalError is an unrecoverable condition. It is never collected into a
// ValidationError; it aborts the walk and reaches the caller as-is.
type FatalError struct {
	Err      error
	Location Location
}

func (e *FatalError) Error() string {
	if len(e.Location) == 0 {
		return "coerce: " + e.Err.Error()
	}
	return fmt.Sprintf("coerce: %v at %s", e.Err, e.Location)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal wraps err as a fatal condition.
func Fatal(err error) error { return &FatalError{Err: err} }

// IsFatal reports whether err is (or wraps) a *FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
