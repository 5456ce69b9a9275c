package coerce

import (
	"fmt"
	"sort"

	"github.com/reoring/coerce/i18n"
)

// Code identifies an error kind (exported consts for IDE completion and type safety by convention).
type Code string

const (
	CodeMissing        Code = "missing"
	CodeExtraForbidden Code = "extra_forbidden"
	CodeNoneRequired   Code = "none_required"
	CodeLiteralError   Code = "literal_error"

	CodeStrType               Code = "str_type"
	CodeStringTooShort        Code = "string_too_short"
	CodeStringTooLong         Code = "string_too_long"
	CodeStringPatternMismatch Code = "string_pattern_mismatch"
	CodeBytesType             Code = "bytes_type"
	CodeBytesTooShort         Code = "bytes_too_short"
	CodeBytesTooLong          Code = "bytes_too_long"

	CodeBoolType     Code = "bool_type"
	CodeBoolParsing  Code = "bool_parsing"
	CodeIntType      Code = "int_type"
	CodeIntParsing   Code = "int_parsing"
	CodeIntFromFloat Code = "int_from_float"
	CodeIntOverflow  Code = "int_overflow"
	CodeFloatType    Code = "float_type"
	CodeFloatParsing Code = "float_parsing"

	CodeGreaterThan      Code = "greater_than"
	CodeGreaterThanEqual Code = "greater_than_equal"
	CodeLessThan         Code = "less_than"
	CodeLessThanEqual    Code = "less_than_equal"
	CodeMultipleOf       Code = "multiple_of"

	CodeDictType      Code = "dict_type"
	CodeListType      Code = "list_type"
	CodeTupleType     Code = "tuple_type"
	CodeSetType       Code = "set_type"
	CodeFrozenSetType Code = "frozen_set_type"
	CodeTooShort      Code = "too_short"
	CodeTooLong       Code = "too_long"

	CodeDateType                Code = "date_type"
	CodeDateParsing             Code = "date_parsing"
	CodeDateFromDatetimeParsing Code = "date_from_datetime_parsing"
	CodeDateFromDatetimeInexact Code = "date_from_datetime_inexact"
	CodeTimeType                Code = "time_type"
	CodeTimeParsing             Code = "time_parsing"
	CodeTimeOutOfRange          Code = "time_out_of_range"
	CodeDatetimeType            Code = "datetime_type"
	CodeDatetimeParsing         Code = "datetime_parsing"
	CodeDatetimeOutOfRange      Code = "datetime_out_of_range"
	CodeTimeDeltaType           Code = "time_delta_type"
	CodeTimeDeltaParsing        Code = "time_delta_parsing"
	CodeTimeDeltaOutOfRange     Code = "time_delta_out_of_range"
)

// kindContextKeys lists, for every known code, the context keys the kind always
// supplies. Message templates may only reference these keys.
var kindContextKeys = map[Code][]string{
	CodeMissing:        nil,
	CodeExtraForbidden: nil,
	CodeNoneRequired:   nil,
	CodeLiteralError:   {"expected"},

	CodeStrType:               nil,
	CodeStringTooShort:        {"min_length"},
	CodeStringTooLong:         {"max_length"},
	CodeStringPatternMismatch: {"pattern"},
	CodeBytesType:             nil,
	CodeBytesTooShort:         {"min_length"},
	CodeBytesTooLong:          {"max_length"},

	CodeBoolType:     nil,
	CodeBoolParsing:  nil,
	CodeIntType:      nil,
	CodeIntParsing:   nil,
	CodeIntFromFloat: nil,
	CodeIntOverflow:  nil,
	CodeFloatType:    nil,
	CodeFloatParsing: nil,

	CodeGreaterThan:      {"gt"},
	CodeGreaterThanEqual: {"ge"},
	CodeLessThan:         {"lt"},
	CodeLessThanEqual:    {"le"},
	CodeMultipleOf:       {"multiple_of"},

	CodeDictType:      nil,
	CodeListType:      nil,
	CodeTupleType:     nil,
	CodeSetType:       nil,
	CodeFrozenSetType: nil,
	CodeTooShort:      {"min_length"},
	CodeTooLong:       {"max_length"},

	CodeDateType:                nil,
	CodeDateParsing:             {"error"},
	CodeDateFromDatetimeParsing: {"error"},
	CodeDateFromDatetimeInexact: nil,
	CodeTimeType:                nil,
	CodeTimeParsing:             {"error"},
	CodeTimeOutOfRange:          nil,
	CodeDatetimeType:            nil,
	CodeDatetimeParsing:         {"error"},
	CodeDatetimeOutOfRange:      nil,
	CodeTimeDeltaType:           nil,
	CodeTimeDeltaParsing:        {"error"},
	CodeTimeDeltaOutOfRange:     nil,
}

// Context carries the structured values substituted into a kind's message
// template (for example {"min_length": 5}).
type Context map[string]any

// ErrorKind is a code plus its context.
type ErrorKind struct {
	Code    Code
	Context Context
}

// NewKind builds an ErrorKind from a code and alternating key/value pairs,
// e.g. NewKind(CodeTooShort, "min_length", 2).
//
// It panics when a key required by the code's template is not supplied; that
// is a programming error in the caller, never a property of the input.
func NewKind(code Code, kv ...any) ErrorKind {
	var ctx Context
	if len(kv) > 0 {
		ctx = make(Context, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			ctx[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	k := ErrorKind{Code: code, Context: ctx}
	if err := k.check(); err != nil {
		panic("coerce.NewKind: " + err.Error())
	}
	return k
}

func (k ErrorKind) check() error {
	keys, ok := kindContextKeys[k.Code]
	if !ok {
		return fmt.Errorf("unknown error kind %q", k.Code)
	}
	for _, key := range keys {
		if _, ok := k.Context[key]; !ok {
			return fmt.Errorf("error kind %q requires context key %q", k.Code, key)
		}
	}
	return nil
}

// String returns the code.
func (k ErrorKind) String() string { return string(k.Code) }

// Message renders the human-readable message using the current translator.
func (k ErrorKind) Message() string {
	return i18n.T(string(k.Code), map[string]any(k.Context))
}

// ContextKeys returns the context keys that the code always supplies.
func ContextKeys(code Code) ([]string, bool) {
	keys, ok := kindContextKeys[code]
	return append([]string(nil), keys...), ok
}

// KnownCodes returns every registered code in lexical order.
func KnownCodes() []Code {
	out := make([]Code, 0, len(kindContextKeys))
	for c := range kindContextKeys {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
