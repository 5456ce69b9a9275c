package coerce

import (
	"strconv"
	"time"
)

// StringInput is a bare string used as an input on its own, typically an
// object key being validated by a key validator. It is already a string, so
// string and bytes targets always succeed; strict scalar targets accept
// nothing else and strict structural targets always fail.
type StringInput string

var _ Input = StringInput("")

func (s StringInput) IsNone() bool           { return false }
func (s StringInput) ErrorValue() InputValue { return s }
func (s StringInput) LocItem() LocItem       { return Key(string(s)) }

func (s StringInput) Repr() string     { return strconv.Quote(string(s)) }
func (s StringInput) TypeName() string { return "string" }
func (s StringInput) Interface() any   { return string(s) }

func (s StringInput) AsString(bool) (string, error) { return string(s), nil }
func (s StringInput) AsBytes(bool) ([]byte, error)  { return []byte(s), nil }

func (s StringInput) AsBool(strict bool) (bool, error) {
	if strict {
		return false, failCode(CodeBoolType, s)
	}
	b, code := strToBool(string(s))
	if code != "" {
		return false, failCode(code, s)
	}
	return b, nil
}

func (s StringInput) AsInt(strict bool) (int64, error) {
	if strict {
		return 0, failCode(CodeIntType, s)
	}
	i, code := strToInt(string(s))
	if code != "" {
		return 0, failCode(code, s)
	}
	return i, nil
}

func (s StringInput) AsFloat(strict bool) (float64, error) {
	if strict {
		return 0, failCode(CodeFloatType, s)
	}
	f, code := strToFloat(string(s))
	if code != "" {
		return 0, failCode(code, s)
	}
	return f, nil
}

func (s StringInput) AsMapping(bool) (Mapping, error)    { return nil, failCode(CodeDictType, s) }
func (s StringInput) AsList(bool) (Sequence, error)      { return nil, failCode(CodeListType, s) }
func (s StringInput) AsTuple(bool) (Sequence, error)     { return nil, failCode(CodeTupleType, s) }
func (s StringInput) AsSet(bool) (Sequence, error)       { return nil, failCode(CodeSetType, s) }
func (s StringInput) AsFrozenSet(bool) (Sequence, error) { return nil, failCode(CodeFrozenSetType, s) }

// Temporal targets parse the text in both modes; strict selects the canonical
// layout.

func (s StringInput) AsDate(bool) (Date, error) {
	d, err := ParseDate(string(s))
	if err != nil {
		return Date{}, failTemporal(err, s)
	}
	return d, nil
}

func (s StringInput) AsTime(strict bool) (TimeOfDay, error) {
	t, err := ParseTime(string(s), strict)
	if err != nil {
		return TimeOfDay{}, failTemporal(err, s)
	}
	return t, nil
}

func (s StringInput) AsDatetime(strict bool) (time.Time, error) {
	t, err := ParseDatetime(string(s), strict)
	if err != nil {
		return time.Time{}, failTemporal(err, s)
	}
	return t, nil
}

func (s StringInput) AsTimedelta(strict bool) (time.Duration, error) {
	d, err := ParseTimedelta(string(s), strict)
	if err != nil {
		return 0, failTemporal(err, s)
	}
	return d, nil
}
