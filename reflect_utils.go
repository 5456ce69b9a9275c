package coerce

import (
	"reflect"
	"strings"
	"sync"
)

// ResolveStructKey applies the repository-wide rule to resolve a struct field's
// external key when a struct is read as a mapping.
// Priority: coerce:"name=..." > json tag name > field name; "-" disables the field.
func ResolveStructKey(sf reflect.StructField) string {
	if ct := sf.Tag.Get("coerce"); ct != "" {
		parts := strings.Split(ct, ",")
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "-" {
				return "-"
			}
			if strings.HasPrefix(p, "name=") {
				return strings.TrimPrefix(p, "name=")
			}
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			if jt[:i] != "" {
				return jt[:i]
			}
			return sf.Name
		}
		return jt
	}
	return sf.Name
}

type structField struct {
	key   string
	index int
}

var structFieldCache sync.Map // reflect.Type -> []structField

// structFields lists the exported, enabled fields of t in declaration order.
func structFields(t reflect.Type) []structField {
	if v, ok := structFieldCache.Load(t); ok {
		return v.([]structField)
	}
	var out []structField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		key := ResolveStructKey(sf)
		if key == "-" {
			continue
		}
		out = append(out, structField{key: key, index: i})
	}
	v, _ := structFieldCache.LoadOrStore(t, out)
	return v.([]structField)
}
