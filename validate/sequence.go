package validate

import (
	"github.com/reoring/coerce"
	js "github.com/reoring/coerce/jsonschema"
)

type seqKind int

const (
	seqList seqKind = iota
	seqSet
	seqFrozenSet
)

func (k seqKind) name() string {
	switch k {
	case seqSet:
		return "set"
	case seqFrozenSet:
		return "frozenset"
	default:
		return "list"
	}
}

func (k seqKind) view(in coerce.Input, strict bool) (coerce.Sequence, error) {
	switch k {
	case seqSet:
		return in.AsSet(strict)
	case seqFrozenSet:
		return in.AsFrozenSet(strict)
	default:
		return in.AsList(strict)
	}
}

// lengthCheck reports too_short/too_long for a container of n items.
func lengthCheck(n, minLen, maxLen int, in coerce.Input) error {
	if minLen >= 0 && n < minLen {
		return coerce.Fail(coerce.NewKind(coerce.CodeTooShort, "min_length", minLen), in)
	}
	if maxLen >= 0 && n > maxLen {
		return coerce.Fail(coerce.NewKind(coerce.CodeTooLong, "max_length", maxLen), in)
	}
	return nil
}

// walkItems validates every element of seq with elem, collecting failures
// located at their index. Only a fatal error stops the walk early.
func walkItems[E any](st *State, seq coerce.Sequence, elem Validator[E], keep func(E)) (coerce.LineErrors, error) {
	var errs coerce.LineErrors
	for i := 0; i < seq.Len(); i++ {
		ev, err := elem.Validate(st, seq.At(i))
		if err != nil {
			if ferr := coerce.Collect(&errs, err, coerce.Index(i)); ferr != nil {
				return nil, ferr
			}
			continue
		}
		keep(ev)
	}
	return errs, nil
}

// ListBuilder exposes chaining options for list validators.
type ListBuilder[E any] interface {
	Validator[[]E]
	Min(n int) ListBuilder[E]
	Max(n int) ListBuilder[E]
	Strict(strict bool) ListBuilder[E]
}

// List returns a list validator with the given element validator.
func List[E any](elem Validator[E]) ListBuilder[E] {
	return &listValidator[E]{elem: elem, minLen: -1, maxLen: -1}
}

type listValidator[E any] struct {
	elem           Validator[E]
	minLen, maxLen int
	strict         *bool
}

func (v *listValidator[E]) Min(n int) ListBuilder[E]          { v.minLen = n; return v }
func (v *listValidator[E]) Max(n int) ListBuilder[E]          { v.maxLen = n; return v }
func (v *listValidator[E]) Strict(strict bool) ListBuilder[E] { v.strict = boolPtr(strict); return v }
func (v *listValidator[E]) Name() string                      { return "list[" + v.elem.Name() + "]" }

func (v *listValidator[E]) Validate(st *State, in coerce.Input) ([]E, error) {
	seq, err := in.AsList(st.strict(v.strict))
	if err != nil {
		return nil, err
	}
	return descend(st, in, func() ([]E, error) {
		out := make([]E, 0, seq.Len())
		errs, err := walkItems(st, seq, v.elem, func(e E) { out = append(out, e) })
		if err != nil {
			return nil, err
		}
		if err := coerce.Collect(&errs, lengthCheck(seq.Len(), v.minLen, v.maxLen, in)); err != nil {
			return nil, err
		}
		if len(errs) > 0 {
			return nil, errs
		}
		return out, nil
	})
}

func (v *listValidator[E]) JSONSchema(p *Projection) (*js.Schema, error) {
	es, err := v.elem.JSONSchema(p)
	if err != nil {
		return nil, err
	}
	s := &js.Schema{Type: "array", Items: es}
	if v.minLen >= 0 {
		s.MinItems = js.IntPtr(v.minLen)
	}
	if v.maxLen >= 0 {
		s.MaxItems = js.IntPtr(v.maxLen)
	}
	return s, nil
}

// SetBuilder exposes chaining options for set and frozenset validators.
type SetBuilder[E comparable] interface {
	Validator[map[E]struct{}]
	Min(n int) SetBuilder[E]
	Max(n int) SetBuilder[E]
	Strict(strict bool) SetBuilder[E]
}

// Set returns a set validator. Duplicate elements collapse; length
// constraints apply to the distinct elements.
func Set[E comparable](elem Validator[E]) SetBuilder[E] {
	return &setValidator[E]{kind: seqSet, elem: elem, minLen: -1, maxLen: -1}
}

// FrozenSet returns a frozenset validator. It differs from Set only in which
// native shapes strict mode accepts.
func FrozenSet[E comparable](elem Validator[E]) SetBuilder[E] {
	return &setValidator[E]{kind: seqFrozenSet, elem: elem, minLen: -1, maxLen: -1}
}

type setValidator[E comparable] struct {
	kind           seqKind
	elem           Validator[E]
	minLen, maxLen int
	strict         *bool
}

func (v *setValidator[E]) Min(n int) SetBuilder[E]          { v.minLen = n; return v }
func (v *setValidator[E]) Max(n int) SetBuilder[E]          { v.maxLen = n; return v }
func (v *setValidator[E]) Strict(strict bool) SetBuilder[E] { v.strict = boolPtr(strict); return v }
func (v *setValidator[E]) Name() string                     { return v.kind.name() + "[" + v.elem.Name() + "]" }

func (v *setValidator[E]) Validate(st *State, in coerce.Input) (map[E]struct{}, error) {
	seq, err := v.kind.view(in, st.strict(v.strict))
	if err != nil {
		return nil, err
	}
	return descend(st, in, func() (map[E]struct{}, error) {
		out := make(map[E]struct{}, seq.Len())
		errs, err := walkItems(st, seq, v.elem, func(e E) { out[e] = struct{}{} })
		if err != nil {
			return nil, err
		}
		if len(errs) == 0 {
			if err := coerce.Collect(&errs, lengthCheck(len(out), v.minLen, v.maxLen, in)); err != nil {
				return nil, err
			}
		}
		if len(errs) > 0 {
			return nil, errs
		}
		return out, nil
	})
}

func (v *setValidator[E]) JSONSchema(p *Projection) (*js.Schema, error) {
	es, err := v.elem.JSONSchema(p)
	if err != nil {
		return nil, err
	}
	s := &js.Schema{Type: "array", Items: es, UniqueItems: true}
	if v.minLen >= 0 {
		s.MinItems = js.IntPtr(v.minLen)
	}
	if v.maxLen >= 0 {
		s.MaxItems = js.IntPtr(v.maxLen)
	}
	return s, nil
}

// TupleBuilder exposes chaining options for tuple validators.
type TupleBuilder interface {
	Validator[[]any]
	// Rest validates every element beyond the positional ones.
	Rest(v Validator[any]) TupleBuilder
	Strict(strict bool) TupleBuilder
}

// Tuple returns a positional tuple validator. A missing position is reported
// as missing at its index; extra elements without Rest are too_long.
func Tuple(items ...Validator[any]) TupleBuilder {
	return &tupleValidator{items: items}
}

type tupleValidator struct {
	items  []Validator[any]
	rest   Validator[any]
	strict *bool
}

func (v *tupleValidator) Rest(r Validator[any]) TupleBuilder { v.rest = r; return v }
func (v *tupleValidator) Strict(strict bool) TupleBuilder    { v.strict = boolPtr(strict); return v }

func (v *tupleValidator) Name() string {
	name := "tuple["
	for i, it := range v.items {
		if i > 0 {
			name += ", "
		}
		name += it.Name()
	}
	if v.rest != nil {
		if len(v.items) > 0 {
			name += ", "
		}
		name += "*" + v.rest.Name()
	}
	return name + "]"
}

func (v *tupleValidator) Validate(st *State, in coerce.Input) ([]any, error) {
	seq, err := in.AsTuple(st.strict(v.strict))
	if err != nil {
		return nil, err
	}
	return descend(st, in, func() ([]any, error) {
		var errs coerce.LineErrors
		n := seq.Len()
		out := make([]any, 0, n)
		for i, it := range v.items {
			if i >= n {
				errs = append(errs, coerce.NewLineError(coerce.NewKind(coerce.CodeMissing), in).WithOuter(coerce.Index(i)))
				continue
			}
			ev, err := it.Validate(st, seq.At(i))
			if err != nil {
				if ferr := coerce.Collect(&errs, err, coerce.Index(i)); ferr != nil {
					return nil, ferr
				}
				continue
			}
			out = append(out, ev)
		}
		if n > len(v.items) {
			if v.rest == nil {
				errs = append(errs, coerce.NewLineError(coerce.NewKind(coerce.CodeTooLong, "max_length", len(v.items)), in))
			} else {
				for i := len(v.items); i < n; i++ {
					ev, err := v.rest.Validate(st, seq.At(i))
					if err != nil {
						if ferr := coerce.Collect(&errs, err, coerce.Index(i)); ferr != nil {
							return nil, ferr
						}
						continue
					}
					out = append(out, ev)
				}
			}
		}
		if len(errs) > 0 {
			return nil, errs
		}
		return out, nil
	})
}

func (v *tupleValidator) JSONSchema(p *Projection) (*js.Schema, error) {
	s := &js.Schema{Type: "array"}
	for _, it := range v.items {
		is, err := it.JSONSchema(p)
		if err != nil {
			return nil, err
		}
		s.PrefixItems = append(s.PrefixItems, is)
	}
	s.MinItems = js.IntPtr(len(v.items))
	if v.rest != nil {
		rs, err := v.rest.JSONSchema(p)
		if err != nil {
			return nil, err
		}
		s.Items = rs
	} else {
		s.Items = false
		s.MaxItems = js.IntPtr(len(v.items))
	}
	return s, nil
}
