package coerce

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Conversion rules shared by every input representation. Each helper returns
// the failing kind's code (or "" on success) so the caller can attach its own
// input value to the failure.

// boolTokens is the lax string-to-bool allow-list, matched case-insensitively
// after trimming surrounding whitespace.
var boolTokens = map[string]bool{
	"0": false, "off": false, "f": false, "false": false, "n": false, "no": false,
	"1": true, "on": true, "t": true, "true": true, "y": true, "yes": true,
}

func strToBool(s string) (bool, Code) {
	v, ok := boolTokens[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return false, CodeBoolParsing
	}
	return v, ""
}

// intToBool accepts exactly 0 and 1.
func intToBool(i int64) (bool, Code) {
	switch i {
	case 0:
		return false, ""
	case 1:
		return true, ""
	}
	return false, CodeBoolParsing
}

// floatToBool goes through floatToInt; a float that is not an exact integer
// is not a boolean at all.
func floatToBool(f float64) (bool, Code) {
	i, code := floatToInt(f)
	if code != "" {
		return false, CodeBoolType
	}
	return intToBool(i)
}

// floatToInt accepts only floats without a fractional component that fit into
// int64.
func floatToInt(f float64) (int64, Code) {
	switch {
	case math.IsNaN(f):
		return 0, CodeIntFromFloat
	case math.IsInf(f, 0):
		return 0, CodeIntOverflow
	case f != math.Trunc(f):
		return 0, CodeIntFromFloat
	// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
	case f >= float64(math.MaxInt64) || f < float64(math.MinInt64):
		return 0, CodeIntOverflow
	}
	return int64(f), ""
}

func uintToInt(u uint64) (int64, Code) {
	if u > math.MaxInt64 {
		return 0, CodeIntOverflow
	}
	return int64(u), ""
}

// strToInt parses a base-10 integer with optional sign; surrounding
// whitespace is ignored.
func strToInt(s string) (int64, Code) {
	s = strings.TrimSpace(s)
	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return i, ""
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, CodeIntOverflow
	}
	return 0, CodeIntParsing
}

// strToFloat parses a decimal or scientific number, "inf" and "nan".
func strToFloat(s string) (float64, Code) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "_xXpP") {
		return 0, CodeFloatParsing
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, CodeFloatParsing
	}
	return f, ""
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// intToStr and floatToStr give the lax string form of numbers. Floats use the
// shortest exact decimal without an exponent.
func intToStr(i int64) string     { return strconv.FormatInt(i, 10) }
func floatToStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// bytesToStr accepts only valid UTF-8.
func bytesToStr(b []byte) (string, Code) {
	if !utf8.Valid(b) {
		return "", CodeStrType
	}
	return string(b), ""
}

// failCode builds the single-error failure for a code without context.
func failCode(code Code, in Input) error {
	return Fail(NewKind(code), in)
}
