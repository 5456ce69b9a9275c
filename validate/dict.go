package validate

import (
	"github.com/reoring/coerce"
	js "github.com/reoring/coerce/jsonschema"
)

// DictBuilder exposes chaining options for dict validators.
type DictBuilder[K comparable, V any] interface {
	Validator[map[K]V]
	Min(n int) DictBuilder[K, V]
	Max(n int) DictBuilder[K, V]
	Strict(strict bool) DictBuilder[K, V]
}

// Dict returns a mapping validator. Key failures are located at the key
// followed by "[key]"; value failures at the key.
func Dict[K comparable, V any](key Validator[K], value Validator[V]) DictBuilder[K, V] {
	return &dictValidator[K, V]{key: key, value: value, minLen: -1, maxLen: -1}
}

// keyLoc marks a failure of the key itself rather than its value.
var keyLoc = coerce.Key("[key]")

type dictValidator[K comparable, V any] struct {
	key            Validator[K]
	value          Validator[V]
	minLen, maxLen int
	strict         *bool
}

func (v *dictValidator[K, V]) Min(n int) DictBuilder[K, V] { v.minLen = n; return v }
func (v *dictValidator[K, V]) Max(n int) DictBuilder[K, V] { v.maxLen = n; return v }
func (v *dictValidator[K, V]) Strict(strict bool) DictBuilder[K, V] {
	v.strict = boolPtr(strict)
	return v
}
func (v *dictValidator[K, V]) Name() string {
	return "dict[" + v.key.Name() + "," + v.value.Name() + "]"
}

func (v *dictValidator[K, V]) Validate(st *State, in coerce.Input) (map[K]V, error) {
	m, err := in.AsMapping(st.strict(v.strict))
	if err != nil {
		return nil, err
	}
	return descend(st, in, func() (map[K]V, error) {
		out := make(map[K]V, m.Len())
		var errs coerce.LineErrors
		var fatal error
		m.Range(func(kin, vin coerce.Input) bool {
			loc := kin.LocItem()
			k, kerr := v.key.Validate(st, kin)
			if kerr != nil {
				if fatal = coerce.Collect(&errs, kerr, loc, keyLoc); fatal != nil {
					return false
				}
			}
			val, verr := v.value.Validate(st, vin)
			if verr != nil {
				if fatal = coerce.Collect(&errs, verr, loc); fatal != nil {
					return false
				}
			}
			if kerr == nil && verr == nil {
				out[k] = val
			}
			return true
		})
		if fatal != nil {
			return nil, fatal
		}
		if err := coerce.Collect(&errs, lengthCheck(m.Len(), v.minLen, v.maxLen, in)); err != nil {
			return nil, err
		}
		if len(errs) > 0 {
			return nil, errs
		}
		return out, nil
	})
}

func (v *dictValidator[K, V]) JSONSchema(p *Projection) (*js.Schema, error) {
	ks, err := v.key.JSONSchema(p)
	if err != nil {
		return nil, err
	}
	vs, err := v.value.JSONSchema(p)
	if err != nil {
		return nil, err
	}
	s := &js.Schema{Type: "object", AdditionalProperties: vs}
	if ks != nil && (ks.MinLength != nil || ks.MaxLength != nil || ks.Pattern != "") {
		s.PropertyNames = ks
	}
	return s, nil
}
