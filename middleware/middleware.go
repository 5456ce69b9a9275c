// Package middleware validates HTTP request bodies at the JSON boundary and
// shapes failures as problem responses.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/reoring/coerce"
	"github.com/reoring/coerce/validate"
)

// ctxKeyValue is a typed context key for storing a validated value.
// Using a generic struct type ensures uniqueness per T.
type ctxKeyValue[T any] struct{}

// ContextWithValue attaches a validated value to the context.
func ContextWithValue[T any](ctx context.Context, v T) context.Context {
	return context.WithValue(ctx, ctxKeyValue[T]{}, v)
}

// ValueFromContext retrieves a validated value from context.
func ValueFromContext[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(ctxKeyValue[T]{}).(T)
	return v, ok
}

// DefaultParseOpt returns a recommended default for HTTP JSON boundaries:
// duplicate keys are errors and bodies are capped at 1 MiB.
func DefaultParseOpt() coerce.ParseOpt {
	return coerce.ParseOpt{
		Strictness: coerce.Strictness{OnDuplicateKey: coerce.Error},
		MaxBytes:   1 << 20,
	}
}

// DecodeJSONBody validates the request body with v. opts are appended after
// WithParseOpt(DefaultParseOpt()), so callers can override the parse options.
func DecodeJSONBody[T any](r *http.Request, v validate.Validator[T], opts ...validate.Option) (T, error) {
	all := append([]validate.Option{validate.WithParseOpt(DefaultParseOpt())}, opts...)
	return validate.RunFrom(r.Context(), v, coerce.JSONReader(r.Body), all...)
}

// Problem is the JSON body written for a rejected request.
type Problem struct {
	Title      string          `json:"title"`
	Status     int             `json:"status"`
	Detail     string          `json:"detail,omitempty"`
	ErrorCount int             `json:"error_count,omitempty"`
	Errors     []coerce.Record `json:"errors,omitempty"`
}

// ProblemFor maps a DecodeJSONBody error onto a status and payload:
// validation failures are 422, unreadable documents 400 and anything else
// (including fatal conditions) 500.
func ProblemFor(err error) Problem {
	var verr *coerce.ValidationError
	if errors.As(err, &verr) {
		return Problem{
			Title:      verr.Title(),
			Status:     http.StatusUnprocessableEntity,
			ErrorCount: verr.ErrorCount(),
			Errors:     verr.Errors(),
		}
	}
	var perr *coerce.ParseError
	if errors.As(err, &perr) {
		return Problem{Title: "invalid request body", Status: http.StatusBadRequest, Detail: perr.Error()}
	}
	return Problem{Title: "internal error", Status: http.StatusInternalServerError}
}

// WriteProblem writes the problem response for err.
func WriteProblem(w http.ResponseWriter, err error) {
	p := ProblemFor(err)
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// Validate returns net/http middleware that validates the request body with
// v, stores the value in the request context and rejects failures with
// WriteProblem.
func Validate[T any](v validate.Validator[T], opts ...validate.Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			val, err := DecodeJSONBody(r, v, opts...)
			if err != nil {
				WriteProblem(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithValue(r.Context(), val)))
		})
	}
}
