package coerce

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ValueKind enumerates the closed set of document-tree shapes.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

var valueKindNames = [...]string{"null", "bool", "int", "float", "string", "array", "object"}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return "ValueKind(" + strconv.Itoa(int(k)) + ")"
}

// JSONValue is a node of a parsed document tree. It is a closed tagged
// variant; the zero value is null. Trees are immutable once built and safe for
// concurrent reads.
type JSONValue struct {
	kind    ValueKind
	b       bool
	i       int64
	f       float64
	s       string
	items   []*JSONValue
	members []JSONMember
	index   map[string]int
}

// JSONMember is one key/value pair of an object, in document order.
type JSONMember struct {
	Key   string
	Value *JSONValue
}

func JSONNull() *JSONValue           { return &JSONValue{} }
func JSONBool(b bool) *JSONValue     { return &JSONValue{kind: KindBool, b: b} }
func JSONInt(i int64) *JSONValue     { return &JSONValue{kind: KindInt, i: i} }
func JSONFloat(f float64) *JSONValue { return &JSONValue{kind: KindFloat, f: f} }
func JSONString(s string) *JSONValue { return &JSONValue{kind: KindString, s: s} }

func JSONArray(items ...*JSONValue) *JSONValue {
	out := make([]*JSONValue, len(items))
	for i, it := range items {
		out[i] = orNull(it)
	}
	return &JSONValue{kind: KindArray, items: out}
}

// JSONObject builds an object. A repeated key keeps its first position and
// takes the last value.
func JSONObject(members ...JSONMember) *JSONValue {
	v := &JSONValue{kind: KindObject, index: make(map[string]int, len(members))}
	for _, m := range members {
		m.Value = orNull(m.Value)
		if i, ok := v.index[m.Key]; ok {
			v.members[i].Value = m.Value
			continue
		}
		v.index[m.Key] = len(v.members)
		v.members = append(v.members, m)
	}
	return v
}

func orNull(v *JSONValue) *JSONValue {
	if v == nil {
		return JSONNull()
	}
	return v
}

// JSONFromAny converts a decoded Go value (as produced by encoding/json-style
// decoders into any) into a tree. Map keys are ordered lexically.
func JSONFromAny(x any) (*JSONValue, error) {
	switch v := x.(type) {
	case nil:
		return JSONNull(), nil
	case *JSONValue:
		return orNull(v), nil
	case bool:
		return JSONBool(v), nil
	case string:
		return JSONString(v), nil
	case json.Number:
		return numberValue(string(v))
	case float64:
		return JSONFloat(v), nil
	case float32:
		return JSONFloat(float64(v)), nil
	case int:
		return JSONInt(int64(v)), nil
	case int64:
		return JSONInt(v), nil
	case int32:
		return JSONInt(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return JSONFloat(float64(v)), nil
		}
		return JSONInt(int64(v)), nil
	case []any:
		items := make([]*JSONValue, len(v))
		for i, it := range v {
			c, err := JSONFromAny(it)
			if err != nil {
				return nil, err
			}
			items[i] = c
		}
		return JSONArray(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]JSONMember, len(keys))
		for i, k := range keys {
			c, err := JSONFromAny(v[k])
			if err != nil {
				return nil, err
			}
			members[i] = JSONMember{Key: k, Value: c}
		}
		return JSONObject(members...), nil
	}
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16:
		return JSONInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return JSONInt(int64(rv.Uint())), nil
	}
	return nil, fmt.Errorf("coerce: %T has no document-tree representation", x)
}

// numberValue classifies number text: integral text that fits int64 becomes
// an int, anything else a float.
func numberValue(text string) (*JSONValue, error) {
	if !strings.ContainsAny(text, ".eE") {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return JSONInt(i), nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("coerce: invalid number %q: %w", text, err)
	}
	return JSONFloat(f), nil
}

func (v *JSONValue) Kind() ValueKind { return v.kind }

// Bool, Int, Float and Str return the scalar payload; they return zero values
// for other kinds.
func (v *JSONValue) Bool() bool     { return v.b }
func (v *JSONValue) Int() int64     { return v.i }
func (v *JSONValue) Float() float64 { return v.f }
func (v *JSONValue) Str() string    { return v.s }

// Items and Members expose the children; callers must not modify them.
func (v *JSONValue) Items() []*JSONValue   { return v.items }
func (v *JSONValue) Members() []JSONMember { return v.members }

// Len returns the number of array items or object members.
func (v *JSONValue) Len() int {
	if v.kind == KindObject {
		return len(v.members)
	}
	return len(v.items)
}

// Member looks up an object member.
func (v *JSONValue) Member(key string) (*JSONValue, bool) {
	i, ok := v.index[key]
	if !ok {
		return nil, false
	}
	return v.members[i].Value, true
}

// Interface converts the tree into plain Go values: nil, bool, int64,
// float64, string, []any and map[string]any.
func (v *JSONValue) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			out[i] = it.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.members))
		for _, m := range v.members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	}
	return nil
}

// MarshalJSON writes the tree preserving member order.
func (v *JSONValue) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *JSONValue) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return fmt.Errorf("coerce: cannot encode %v as JSON", v.f)
		}
		buf.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := m.Value.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// InputValue view.

func (v *JSONValue) Repr() string     { return FormatValue(v.Interface()) }
func (v *JSONValue) TypeName() string { return v.kind.String() }

// Input implementation.

var _ Input = (*JSONValue)(nil)

func (v *JSONValue) IsNone() bool           { return v.kind == KindNull }
func (v *JSONValue) ErrorValue() InputValue { return v }

func (v *JSONValue) LocItem() LocItem {
	switch v.kind {
	case KindInt:
		return Index(int(v.i))
	case KindString:
		return Key(v.s)
	}
	return Key(v.Repr())
}

func (v *JSONValue) AsString(strict bool) (string, error) {
	switch {
	case v.kind == KindString:
		return v.s, nil
	case strict:
	case v.kind == KindInt:
		return intToStr(v.i), nil
	case v.kind == KindFloat:
		return floatToStr(v.f), nil
	}
	return "", failCode(CodeStrType, v)
}

// AsBytes accepts strings only, in both modes.
func (v *JSONValue) AsBytes(bool) ([]byte, error) {
	if v.kind == KindString {
		return []byte(v.s), nil
	}
	return nil, failCode(CodeBytesType, v)
}

func (v *JSONValue) AsBool(strict bool) (bool, error) {
	if v.kind == KindBool {
		return v.b, nil
	}
	if strict {
		return false, failCode(CodeBoolType, v)
	}
	var (
		b    bool
		code Code
	)
	switch v.kind {
	case KindString:
		b, code = strToBool(v.s)
	case KindInt:
		b, code = intToBool(v.i)
	case KindFloat:
		b, code = floatToBool(v.f)
	default:
		code = CodeBoolType
	}
	if code != "" {
		return false, failCode(code, v)
	}
	return b, nil
}

func (v *JSONValue) AsInt(strict bool) (int64, error) {
	if v.kind == KindInt {
		return v.i, nil
	}
	if strict {
		return 0, failCode(CodeIntType, v)
	}
	var (
		i    int64
		code Code
	)
	switch v.kind {
	case KindBool:
		i = boolToInt(v.b)
	case KindFloat:
		i, code = floatToInt(v.f)
	case KindString:
		i, code = strToInt(v.s)
	default:
		code = CodeIntType
	}
	if code != "" {
		return 0, failCode(code, v)
	}
	return i, nil
}

func (v *JSONValue) AsFloat(strict bool) (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.f, nil
	case KindInt:
		return float64(v.i), nil
	}
	if !strict {
		switch v.kind {
		case KindBool:
			return float64(boolToInt(v.b)), nil
		case KindString:
			f, code := strToFloat(v.s)
			if code != "" {
				return 0, failCode(code, v)
			}
			return f, nil
		}
	}
	return 0, failCode(CodeFloatType, v)
}

// AsMapping accepts objects only; strict and lax coincide.
func (v *JSONValue) AsMapping(bool) (Mapping, error) {
	if v.kind == KindObject {
		return jsonMapping{v}, nil
	}
	return nil, failCode(CodeDictType, v)
}

// A document has only one sequence shape, so arrays satisfy all four
// sequence targets in both modes.

func (v *JSONValue) AsList(bool) (Sequence, error)      { return v.asArray(CodeListType) }
func (v *JSONValue) AsTuple(bool) (Sequence, error)     { return v.asArray(CodeTupleType) }
func (v *JSONValue) AsSet(bool) (Sequence, error)       { return v.asArray(CodeSetType) }
func (v *JSONValue) AsFrozenSet(bool) (Sequence, error) { return v.asArray(CodeFrozenSetType) }

func (v *JSONValue) asArray(code Code) (Sequence, error) {
	if v.kind == KindArray {
		return jsonSequence(v.items), nil
	}
	return nil, failCode(code, v)
}

// AsDate accepts text only; numeric dates go through DateFromDatetime.
func (v *JSONValue) AsDate(bool) (Date, error) {
	if v.kind != KindString {
		return Date{}, failCode(CodeDateType, v)
	}
	d, err := ParseDate(v.s)
	if err != nil {
		return Date{}, failTemporal(err, v)
	}
	return d, nil
}

func (v *JSONValue) AsTime(strict bool) (TimeOfDay, error) {
	var (
		t   TimeOfDay
		err error
	)
	switch {
	case v.kind == KindString:
		t, err = ParseTime(v.s, strict)
	case strict:
		return t, failCode(CodeTimeType, v)
	case v.kind == KindInt:
		t, err = TimeFromSeconds(float64(v.i))
	case v.kind == KindFloat:
		t, err = TimeFromSeconds(v.f)
	default:
		return t, failCode(CodeTimeType, v)
	}
	if err != nil {
		return TimeOfDay{}, failTemporal(err, v)
	}
	return t, nil
}

func (v *JSONValue) AsDatetime(strict bool) (time.Time, error) {
	var (
		t   time.Time
		err error
	)
	switch {
	case v.kind == KindString:
		t, err = ParseDatetime(v.s, strict)
	case strict:
		return t, failCode(CodeDatetimeType, v)
	case v.kind == KindInt:
		t, err = DatetimeFromUnix(float64(v.i))
	case v.kind == KindFloat:
		t, err = DatetimeFromUnix(v.f)
	default:
		return t, failCode(CodeDatetimeType, v)
	}
	if err != nil {
		return time.Time{}, failTemporal(err, v)
	}
	return t, nil
}

func (v *JSONValue) AsTimedelta(strict bool) (time.Duration, error) {
	var (
		d   time.Duration
		err error
	)
	switch {
	case v.kind == KindString:
		d, err = ParseTimedelta(v.s, strict)
	case strict:
		return 0, failCode(CodeTimeDeltaType, v)
	case v.kind == KindInt:
		d, err = TimedeltaFromSeconds(float64(v.i))
	case v.kind == KindFloat:
		d, err = TimedeltaFromSeconds(v.f)
	default:
		return 0, failCode(CodeTimeDeltaType, v)
	}
	if err != nil {
		return 0, failTemporal(err, v)
	}
	return d, nil
}

type jsonMapping struct{ v *JSONValue }

func (m jsonMapping) Len() int { return len(m.v.members) }

func (m jsonMapping) Get(key string) (Input, bool) {
	c, ok := m.v.Member(key)
	if !ok {
		return nil, false
	}
	return c, true
}

func (m jsonMapping) Range(fn func(key, value Input) bool) {
	for _, mem := range m.v.members {
		if !fn(StringInput(mem.Key), mem.Value) {
			return
		}
	}
}

type jsonSequence []*JSONValue

func (s jsonSequence) Len() int       { return len(s) }
func (s jsonSequence) At(i int) Input { return s[i] }
