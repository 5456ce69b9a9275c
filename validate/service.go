package validate

import (
	"context"
	"errors"
)

// ErrServiceUnavailable reports a Refine or After function that needed a
// service the caller did not provide.
var ErrServiceUnavailable = errors.New("validate: service not provided")

// serviceKey is a unique key per type parameter T for context storage.
type serviceKey[T any] struct{}

// WithService stores a typed service instance in the context for use by
// Refine and After functions.
func WithService[T any](ctx context.Context, svc T) context.Context {
	return context.WithValue(ctx, serviceKey[T]{}, any(svc))
}

// Service retrieves a typed service instance from the call's context.
func Service[T any](st *State) (T, bool) {
	var zero T
	if st == nil || st.Context == nil {
		return zero, false
	}
	v, ok := st.Context.Value(serviceKey[T]{}).(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// RequireService returns the service or ErrServiceUnavailable. The error is
// foreign to the line-error model, so it aborts the call.
func RequireService[T any](st *State) (T, error) {
	if v, ok := Service[T](st); ok {
		return v, nil
	}
	var zero T
	return zero, ErrServiceUnavailable
}
