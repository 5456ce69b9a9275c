package validate

import (
	"sync"

	"github.com/reoring/coerce"
	js "github.com/reoring/coerce/jsonschema"
)

// Erase adapts a typed validator to Validator[any] for use in records,
// tuples and unions.
func Erase[T any](v Validator[T]) Validator[any] {
	if a, ok := v.(Validator[any]); ok {
		return a
	}
	return erased[T]{v: v}
}

type erased[T any] struct{ v Validator[T] }

func (e erased[T]) Name() string                                 { return e.v.Name() }
func (e erased[T]) JSONSchema(p *Projection) (*js.Schema, error) { return e.v.JSONSchema(p) }
func (e erased[T]) Validate(st *State, in coerce.Input) (any, error) {
	x, err := e.v.Validate(st, in)
	if err != nil {
		return nil, err
	}
	return x, nil
}

// Nullable accepts null as a nil pointer and delegates everything else.
func Nullable[T any](v Validator[T]) Validator[*T] { return nullable[T]{v: v} }

type nullable[T any] struct{ v Validator[T] }

func (n nullable[T]) Name() string { return "nullable[" + n.v.Name() + "]" }
func (n nullable[T]) Validate(st *State, in coerce.Input) (*T, error) {
	if in.IsNone() {
		return nil, nil
	}
	x, err := n.v.Validate(st, in)
	if err != nil {
		return nil, err
	}
	return &x, nil
}
func (n nullable[T]) JSONSchema(p *Projection) (*js.Schema, error) { return nullableSchema(p, n.v) }

// Optional is Nullable for Validator[any]: null yields nil rather than a
// pointer, which keeps erased trees free of *any.
func Optional(v Validator[any]) Validator[any] { return optional{v: v} }

type optional struct{ v Validator[any] }

func (o optional) Name() string { return "nullable[" + o.v.Name() + "]" }
func (o optional) Validate(st *State, in coerce.Input) (any, error) {
	if in.IsNone() {
		return nil, nil
	}
	return o.v.Validate(st, in)
}
func (o optional) JSONSchema(p *Projection) (*js.Schema, error) { return nullableSchema(p, o.v) }

func nullableSchema[T any](p *Projection, v Validator[T]) (*js.Schema, error) {
	inner, err := v.JSONSchema(p)
	if err != nil {
		return nil, err
	}
	return &js.Schema{AnyOf: []*js.Schema{inner, {Type: "null"}}}, nil
}

// Lazy defers building a validator until first use so that schemas can refer
// to themselves. The JSON Schema projection anchors the first occurrence
// under name and refers back to it on recursion.
func Lazy[T any](name string, build func() Validator[T]) Validator[T] {
	return &lazy[T]{name: name, build: build}
}

type lazy[T any] struct {
	name  string
	build func() Validator[T]
	once  sync.Once
	v     Validator[T]
}

func (l *lazy[T]) get() Validator[T] {
	l.once.Do(func() { l.v = l.build() })
	return l.v
}

func (l *lazy[T]) Name() string { return l.name }
func (l *lazy[T]) Validate(st *State, in coerce.Input) (T, error) {
	return l.get().Validate(st, in)
}

func (l *lazy[T]) JSONSchema(p *Projection) (*js.Schema, error) {
	if !p.enter(l) {
		return &js.Schema{Ref: "#" + l.name}, nil
	}
	defer p.leave(l)
	s, err := l.get().JSONSchema(p)
	if err != nil {
		return nil, err
	}
	cp := *s
	cp.Anchor = l.name
	return &cp, nil
}

// Union tries each branch in order and returns the first success. Unless
// the call is strict, a first pass runs every branch strictly so that an
// exact match wins over a coercion. When every branch fails, each branch's
// errors are reported under the branch name.
func Union[T any](branches ...Validator[T]) Validator[T] { return &union[T]{branches: branches} }

type union[T any] struct{ branches []Validator[T] }

func (u *union[T]) Name() string {
	name := "union["
	for i, b := range u.branches {
		if i > 0 {
			name += ","
		}
		name += b.Name()
	}
	return name + "]"
}

func (u *union[T]) Validate(st *State, in coerce.Input) (T, error) {
	var zero T
	if !st.Strict {
		st.Strict = true
		for _, b := range u.branches {
			x, err := b.Validate(st, in)
			if err == nil {
				st.Strict = false
				return x, nil
			}
			if coerce.IsFatal(err) {
				st.Strict = false
				return zero, err
			}
		}
		st.Strict = false
	}
	var errs coerce.LineErrors
	for _, b := range u.branches {
		x, err := b.Validate(st, in)
		if err == nil {
			return x, nil
		}
		if ferr := coerce.Collect(&errs, err, coerce.Key(b.Name())); ferr != nil {
			return zero, ferr
		}
	}
	return zero, errs
}

func (u *union[T]) JSONSchema(p *Projection) (*js.Schema, error) {
	s := &js.Schema{}
	for _, b := range u.branches {
		bs, err := b.JSONSchema(p)
		if err != nil {
			return nil, err
		}
		s.AnyOf = append(s.AnyOf, bs)
	}
	return s, nil
}

// After runs fn on the validated value. fn may return LineErrors (located
// relative to the value) or a replacement value.
func After[T any](v Validator[T], name string, fn func(*State, T) (T, error)) Validator[T] {
	return &after[T]{v: v, name: name, fn: fn}
}

type after[T any] struct {
	v    Validator[T]
	name string
	fn   func(*State, T) (T, error)
}

func (a *after[T]) Name() string                                 { return "function-after[" + a.name + ", " + a.v.Name() + "]" }
func (a *after[T]) JSONSchema(p *Projection) (*js.Schema, error) { return a.v.JSONSchema(p) }
func (a *after[T]) Validate(st *State, in coerce.Input) (T, error) {
	x, err := a.v.Validate(st, in)
	if err != nil {
		return x, err
	}
	return a.fn(st, x)
}
