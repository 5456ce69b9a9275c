package coerce

import (
	"fmt"
	"reflect"
	"sort"
	"time"
)

// Tuple marks a native slice as a fixed-position tuple rather than a list.
type Tuple []any

// FrozenSet marks a native slice of distinct elements as an immutable set.
type FrozenSet []any

// Native wraps an in-memory Go value as an Input. Pointers and interfaces are
// followed; a nil pointer is None.
//
// Shapes are recognized per target. In strict mode a list is a slice (other
// than []byte, Tuple and FrozenSet), a tuple is an array or a Tuple, a set is a
// map[K]struct{}, a frozenset is a FrozenSet, and a mapping is any other map.
// Lax mode accepts any of the four sequence shapes for each sequence target
// and also reads structs as mappings. Native temporal values are Date,
// TimeOfDay, time.Time and time.Duration; json.Number counts as a number.
func Native(v any) Input {
	return newNative(reflect.ValueOf(v))
}

type nativeInput struct {
	rv  reflect.Value // after indirection; invalid means None
	ptr uintptr       // address of the last pointer followed, 0 if none
	raw reflect.Value // as handed in, for diagnostics
}

// _maxIndirections bounds pointer chasing so that a pointer to itself
// terminates.
const _maxIndirections = 64

func newNative(rv reflect.Value) nativeInput {
	n := nativeInput{raw: rv}
	for i := 0; rv.IsValid() && i < _maxIndirections; i++ {
		k := rv.Kind()
		if k != reflect.Pointer && k != reflect.Interface {
			break
		}
		if rv.IsNil() {
			rv = reflect.Value{}
			break
		}
		if k == reflect.Pointer {
			n.ptr = rv.Pointer()
		}
		rv = rv.Elem()
	}
	n.rv = rv
	return n
}

var (
	_dateType      = reflect.TypeOf(Date{})
	_timeOfDayType = reflect.TypeOf(TimeOfDay{})
	_tupleType     = reflect.TypeOf(Tuple(nil))
	_frozenSetType = reflect.TypeOf(FrozenSet(nil))
)

var _ Input = nativeInput{}

func (n nativeInput) identity() (identityKey, bool) {
	if !n.rv.IsValid() {
		return identityKey{}, false
	}
	switch n.rv.Kind() {
	case reflect.Map:
		return identityKey{ptr: n.rv.Pointer(), typ: n.rv.Type()}, !n.rv.IsNil()
	case reflect.Slice:
		return identityKey{ptr: n.rv.Pointer(), typ: n.rv.Type(), n: n.rv.Len()}, n.rv.Len() > 0
	case reflect.Struct, reflect.Array:
		return identityKey{ptr: n.ptr, typ: n.rv.Type()}, n.ptr != 0
	}
	return identityKey{}, false
}

func (n nativeInput) IsNone() bool { return !n.rv.IsValid() }

func (n nativeInput) ErrorValue() InputValue { return nativeValue{n.raw} }

func (n nativeInput) LocItem() LocItem {
	if n.rv.IsValid() {
		switch n.rv.Kind() {
		case reflect.String:
			return Key(n.rv.String())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if n.rv.Type() != _durationType {
				return Index(int(n.rv.Int()))
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return Index(int(n.rv.Uint()))
		}
	}
	return Key(n.ErrorValue().Repr())
}

// nativeValue is the borrowed diagnostic view of a native value. Its exported
// form is a detached plain-data copy (see plainValue), and its display form is
// computed from that copy so exports re-render identically.
type nativeValue struct{ rv reflect.Value }

func (v nativeValue) Repr() string { return FormatValue(v.Interface()) }

func (v nativeValue) TypeName() string {
	if !v.rv.IsValid() {
		return "nil"
	}
	return v.rv.Type().String()
}

func (v nativeValue) Interface() any {
	return plainValue(v.rv, 0, map[identityKey]struct{}{})
}

// plainValue copies a native value into nil, bool, int64, uint64, float64,
// string, json.Number, []any and map[string]any. Temporal values become their
// text form, structs become maps keyed like AsMapping, sets become sorted
// lists, and reference cycles become the string "<cycle>".
func plainValue(rv reflect.Value, depth int, seen map[identityKey]struct{}) any {
	n := newNative(rv)
	if !n.rv.IsValid() {
		return nil
	}
	if depth > _maxReprDepth {
		return "..."
	}
	switch {
	case n.is(_timeType):
		return n.rv.Interface().(time.Time).Format(time.RFC3339Nano)
	case n.is(_durationType), n.is(_dateType), n.is(_timeOfDayType):
		return n.rv.Interface().(fmt.Stringer).String()
	case n.is(_numberType):
		return n.rv.Interface()
	case n.isInt():
		return n.rv.Int()
	case n.isUint():
		return n.rv.Uint()
	case n.isFloat():
		return n.rv.Float()
	case n.isBytes():
		return string(n.rv.Bytes())
	}
	switch n.kind() {
	case reflect.Bool:
		return n.rv.Bool()
	case reflect.String:
		return n.rv.String()
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
	default:
		return fmt.Sprint(n.rv.Interface())
	}
	if key, ok := n.identity(); ok {
		if _, dup := seen[key]; dup {
			return "<cycle>"
		}
		seen[key] = struct{}{}
		defer delete(seen, key)
	}
	switch n.kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, n.rv.Len())
		for i := range out {
			out[i] = plainValue(n.rv.Index(i), depth+1, seen)
		}
		return out
	case reflect.Map:
		keys := sortedKeys(n.rv)
		if n.isSetMap() {
			out := make([]any, len(keys))
			for i, k := range keys {
				out[i] = plainValue(k, depth+1, seen)
			}
			return out
		}
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			out[fmt.Sprint(k.Interface())] = plainValue(n.rv.MapIndex(k), depth+1, seen)
		}
		return out
	default: // struct
		fields := structFields(n.rv.Type())
		out := make(map[string]any, len(fields))
		for _, f := range fields {
			out[f.key] = plainValue(n.rv.Field(f.index), depth+1, seen)
		}
		return out
	}
}

func (n nativeInput) is(t reflect.Type) bool { return n.rv.IsValid() && n.rv.Type() == t }

func (n nativeInput) kind() reflect.Kind {
	if !n.rv.IsValid() {
		return reflect.Invalid
	}
	return n.rv.Kind()
}

func (n nativeInput) isInt() bool {
	switch n.kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return !n.is(_durationType)
	}
	return false
}

func (n nativeInput) isUint() bool {
	switch n.kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func (n nativeInput) isFloat() bool {
	k := n.kind()
	return k == reflect.Float32 || k == reflect.Float64
}

func (n nativeInput) isString() bool {
	return n.kind() == reflect.String && !n.is(_numberType)
}

func (n nativeInput) isBytes() bool {
	return n.kind() == reflect.Slice && n.rv.Type().Elem().Kind() == reflect.Uint8
}

func (n nativeInput) isSetMap() bool {
	if n.kind() != reflect.Map {
		return false
	}
	et := n.rv.Type().Elem()
	return et.Kind() == reflect.Struct && et.NumField() == 0
}

// number reads the numeric payload of ints, uints, floats and json.Number.
// isInt reports whether the value is integral by type (or by number text).
func (n nativeInput) number() (i int64, f float64, isInt bool, code Code, ok bool) {
	switch {
	case n.isInt():
		return n.rv.Int(), float64(n.rv.Int()), true, "", true
	case n.isUint():
		u := n.rv.Uint()
		i, code = uintToInt(u)
		return i, float64(u), true, code, true
	case n.isFloat():
		return 0, n.rv.Float(), false, "", true
	case n.is(_numberType):
		jv, err := numberValue(n.rv.String())
		if err != nil {
			return 0, 0, false, CodeFloatParsing, true
		}
		if jv.kind == KindInt {
			return jv.i, float64(jv.i), true, "", true
		}
		return 0, jv.f, false, "", true
	}
	return 0, 0, false, "", false
}

func (n nativeInput) AsString(strict bool) (string, error) {
	if n.isString() {
		return n.rv.String(), nil
	}
	if !strict {
		switch {
		case n.is(_numberType):
			return n.rv.String(), nil
		case n.isInt():
			return intToStr(n.rv.Int()), nil
		case n.isUint():
			return fmt.Sprint(n.rv.Uint()), nil
		case n.isFloat():
			return floatToStr(n.rv.Float()), nil
		case n.isBytes():
			s, code := bytesToStr(n.rv.Bytes())
			if code == "" {
				return s, nil
			}
		}
	}
	return "", failCode(CodeStrType, n)
}

// AsBytes accepts byte slices and strings in both modes: a Go string already
// is a byte sequence.
func (n nativeInput) AsBytes(bool) ([]byte, error) {
	switch {
	case n.isBytes():
		return n.rv.Bytes(), nil
	case n.isString():
		return []byte(n.rv.String()), nil
	}
	return nil, failCode(CodeBytesType, n)
}

func (n nativeInput) AsBool(strict bool) (bool, error) {
	if n.kind() == reflect.Bool {
		return n.rv.Bool(), nil
	}
	if strict {
		return false, failCode(CodeBoolType, n)
	}
	var (
		b    bool
		code Code
	)
	if n.isString() {
		b, code = strToBool(n.rv.String())
	} else if i, f, integral, c, ok := n.number(); ok {
		switch {
		case c != "":
			code = CodeBoolParsing
		case integral:
			b, code = intToBool(i)
		default:
			b, code = floatToBool(f)
		}
	} else {
		code = CodeBoolType
	}
	if code != "" {
		return false, failCode(code, n)
	}
	return b, nil
}

func (n nativeInput) AsInt(strict bool) (int64, error) {
	i, f, integral, code, ok := n.number()
	switch {
	case ok && integral:
		if code != "" {
			return 0, failCode(code, n)
		}
		return i, nil
	case strict:
		return 0, failCode(CodeIntType, n)
	case ok:
		if code == CodeFloatParsing {
			code = CodeIntParsing
		} else {
			i, code = floatToInt(f)
		}
	case n.kind() == reflect.Bool:
		return boolToInt(n.rv.Bool()), nil
	case n.isString():
		i, code = strToInt(n.rv.String())
	default:
		code = CodeIntType
	}
	if code != "" {
		return 0, failCode(code, n)
	}
	return i, nil
}

func (n nativeInput) AsFloat(strict bool) (float64, error) {
	if _, f, _, code, ok := n.number(); ok && code != CodeFloatParsing {
		return f, nil
	}
	if !strict {
		switch {
		case n.kind() == reflect.Bool:
			return float64(boolToInt(n.rv.Bool())), nil
		case n.isString():
			f, code := strToFloat(n.rv.String())
			if code != "" {
				return 0, failCode(code, n)
			}
			return f, nil
		}
	}
	return 0, failCode(CodeFloatType, n)
}

func (n nativeInput) AsMapping(strict bool) (Mapping, error) {
	switch {
	case n.kind() == reflect.Map && !n.isSetMap():
		return newNativeMap(n.rv), nil
	case !strict && n.kind() == reflect.Struct && !n.isTemporal():
		return nativeStruct{rv: n.rv, fields: structFields(n.rv.Type())}, nil
	}
	return nil, failCode(CodeDictType, n)
}

func (n nativeInput) isTemporal() bool {
	return n.is(_timeType) || n.is(_dateType) || n.is(_timeOfDayType)
}

type seqShape uint8

const (
	shapeNone seqShape = iota
	shapeList
	shapeTuple
	shapeSet
	shapeFrozenSet
)

func (n nativeInput) shape() seqShape {
	switch {
	case n.is(_tupleType), n.kind() == reflect.Array:
		return shapeTuple
	case n.is(_frozenSetType):
		return shapeFrozenSet
	case n.isSetMap():
		return shapeSet
	case n.kind() == reflect.Slice && !n.isBytes():
		return shapeList
	}
	return shapeNone
}

func (n nativeInput) asSequence(want seqShape, strict bool, code Code) (Sequence, error) {
	got := n.shape()
	if got == shapeNone || (strict && got != want) {
		return nil, failCode(code, n)
	}
	if got == shapeSet {
		return newNativeSet(n.rv), nil
	}
	return nativeSeq{n.rv}, nil
}

func (n nativeInput) AsList(strict bool) (Sequence, error) {
	return n.asSequence(shapeList, strict, CodeListType)
}

func (n nativeInput) AsTuple(strict bool) (Sequence, error) {
	return n.asSequence(shapeTuple, strict, CodeTupleType)
}

func (n nativeInput) AsSet(strict bool) (Sequence, error) {
	return n.asSequence(shapeSet, strict, CodeSetType)
}

func (n nativeInput) AsFrozenSet(strict bool) (Sequence, error) {
	return n.asSequence(shapeFrozenSet, strict, CodeFrozenSetType)
}

func (n nativeInput) AsDate(strict bool) (Date, error) {
	switch {
	case n.is(_dateType):
		return n.rv.Interface().(Date), nil
	case strict:
	case n.isString():
		d, err := ParseDate(n.rv.String())
		if err != nil {
			return Date{}, failTemporal(err, n)
		}
		return d, nil
	case n.is(_timeType):
		t := n.rv.Interface().(time.Time)
		if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
			return Date{}, failCode(CodeDateFromDatetimeInexact, n)
		}
		return DateOf(t), nil
	}
	return Date{}, failCode(CodeDateType, n)
}

func (n nativeInput) AsTime(strict bool) (TimeOfDay, error) {
	if n.is(_timeOfDayType) {
		return n.rv.Interface().(TimeOfDay), nil
	}
	if !strict {
		var (
			t   TimeOfDay
			err error
		)
		if n.isString() {
			t, err = ParseTime(n.rv.String(), false)
		} else if _, f, _, code, ok := n.number(); ok && code == "" {
			t, err = TimeFromSeconds(f)
		} else {
			return TimeOfDay{}, failCode(CodeTimeType, n)
		}
		if err != nil {
			return TimeOfDay{}, failTemporal(err, n)
		}
		return t, nil
	}
	return TimeOfDay{}, failCode(CodeTimeType, n)
}

func (n nativeInput) AsDatetime(strict bool) (time.Time, error) {
	if n.is(_timeType) {
		return n.rv.Interface().(time.Time), nil
	}
	if !strict {
		var (
			t   time.Time
			err error
		)
		switch {
		case n.isString():
			t, err = ParseDatetime(n.rv.String(), false)
		case n.is(_dateType):
			return n.rv.Interface().(Date).Time(), nil
		default:
			_, f, _, code, ok := n.number()
			if !ok || code != "" {
				return time.Time{}, failCode(CodeDatetimeType, n)
			}
			t, err = DatetimeFromUnix(f)
		}
		if err != nil {
			return time.Time{}, failTemporal(err, n)
		}
		return t, nil
	}
	return time.Time{}, failCode(CodeDatetimeType, n)
}

func (n nativeInput) AsTimedelta(strict bool) (time.Duration, error) {
	if n.is(_durationType) {
		return time.Duration(n.rv.Int()), nil
	}
	if !strict {
		var (
			d   time.Duration
			err error
		)
		if n.isString() {
			d, err = ParseTimedelta(n.rv.String(), false)
		} else if _, f, _, code, ok := n.number(); ok && code == "" {
			d, err = TimedeltaFromSeconds(f)
		} else {
			return 0, failCode(CodeTimeDeltaType, n)
		}
		if err != nil {
			return 0, failTemporal(err, n)
		}
		return d, nil
	}
	return 0, failCode(CodeTimeDeltaType, n)
}

// Views.

type nativeSeq struct{ rv reflect.Value }

func (s nativeSeq) Len() int       { return s.rv.Len() }
func (s nativeSeq) At(i int) Input { return newNative(s.rv.Index(i)) }

// sortedKeys orders map keys by their display form so iteration is
// deterministic.
func sortedKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	reprs := make([]string, len(keys))
	for i, k := range keys {
		reprs[i] = FormatValue(k.Interface())
	}
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return reprs[idx[a]] < reprs[idx[b]] })
	out := make([]reflect.Value, len(keys))
	for i, j := range idx {
		out[i] = keys[j]
	}
	return out
}

type nativeSet struct{ keys []reflect.Value }

func newNativeSet(rv reflect.Value) nativeSet { return nativeSet{keys: sortedKeys(rv)} }

func (s nativeSet) Len() int       { return len(s.keys) }
func (s nativeSet) At(i int) Input { return newNative(s.keys[i]) }

type nativeMap struct {
	rv   reflect.Value
	keys []reflect.Value
}

func newNativeMap(rv reflect.Value) nativeMap {
	return nativeMap{rv: rv, keys: sortedKeys(rv)}
}

func (m nativeMap) Len() int { return len(m.keys) }

func (m nativeMap) Get(key string) (Input, bool) {
	kt := m.rv.Type().Key()
	if kt.Kind() == reflect.String {
		v := m.rv.MapIndex(reflect.ValueOf(key).Convert(kt))
		if !v.IsValid() {
			return nil, false
		}
		return newNative(v), true
	}
	for _, k := range m.keys {
		if fmt.Sprint(k.Interface()) == key {
			return newNative(m.rv.MapIndex(k)), true
		}
	}
	return nil, false
}

func (m nativeMap) Range(fn func(key, value Input) bool) {
	for _, k := range m.keys {
		var ki Input
		if k.Kind() == reflect.String && k.Type() != _numberType {
			ki = StringInput(k.String())
		} else {
			ki = newNative(k)
		}
		if !fn(ki, newNative(m.rv.MapIndex(k))) {
			return
		}
	}
}

type nativeStruct struct {
	rv     reflect.Value
	fields []structField
}

func (s nativeStruct) Len() int { return len(s.fields) }

func (s nativeStruct) Get(key string) (Input, bool) {
	for _, f := range s.fields {
		if f.key == key {
			return newNative(s.rv.Field(f.index)), true
		}
	}
	return nil, false
}

func (s nativeStruct) Range(fn func(key, value Input) bool) {
	for _, f := range s.fields {
		if !fn(StringInput(f.key), newNative(s.rv.Field(f.index))) {
			return
		}
	}
}
