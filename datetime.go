package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// TimeOfDay is a wall-clock time, optionally carrying a UTC offset.
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
	// Zone is nil for a naive time.
	Zone *time.Location
}

// String formats the time as HH:MM:SS[.f][Z|±HH:MM].
func (t TimeOfDay) String() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if t.Nanosecond > 0 {
		frac := strings.TrimRight(fmt.Sprintf("%09d", t.Nanosecond), "0")
		b.WriteString("." + frac)
	}
	if t.Zone != nil {
		b.WriteString(time.Date(2000, 1, 1, t.Hour, t.Minute, t.Second, 0, t.Zone).Format("Z07:00"))
	}
	return b.String()
}

// Seconds returns the offset of the time from midnight in seconds.
func (t TimeOfDay) Seconds() float64 {
	return float64(t.Hour*3600+t.Minute*60+t.Second) + float64(t.Nanosecond)/1e9
}

// TemporalError describes why a date, time, datetime or duration could not be
// produced. Detail becomes the "error" context of *_parsing kinds.
type TemporalError struct {
	Code   Code
	Detail string
}

func (e *TemporalError) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Detail
}

// Kind converts the error into the matching ErrorKind.
func (e *TemporalError) Kind() ErrorKind {
	if keys := kindContextKeys[e.Code]; len(keys) > 0 {
		return NewKind(e.Code, "error", e.Detail)
	}
	return NewKind(e.Code)
}

func temporalErr(code Code, detail string) *TemporalError {
	return &TemporalError{Code: code, Detail: detail}
}

// failTemporal converts an error returned by the temporal parsers into an
// input failure.
func failTemporal(err error, in Input) error {
	if te, ok := err.(*TemporalError); ok {
		return Fail(te.Kind(), in)
	}
	return err
}

const (
	msgTooShort      = "input is too short"
	msgExtraChars    = "unexpected extra characters at the end of the input"
	msgDateSep       = "invalid date separator, expected `-`"
	msgTimeSep       = "invalid time separator, expected `:`"
	msgDatetimeSep   = "invalid datetime separator, expected `T`, `t`, `_` or space"
	msgMonthRange    = "month value is outside expected range of 1-12"
	msgDayRange      = "day value is outside expected range"
	msgHourRange     = "hour value is outside expected range of 0-23"
	msgMinuteRange   = "minute value is outside expected range of 0-59"
	msgSecondRange   = "second value is outside expected range of 0-59"
	msgFraction      = "second fraction must contain 1 to 9 digits"
	msgTzSign        = "invalid timezone sign"
	msgTzRange       = "timezone offset must be less than 24 hours"
	msgDurationStart = "expected `P` at the start of the duration"
	msgDurationEmpty = "duration must contain at least one component"
	msgDurationChar  = "invalid character in duration"
)

func digits(s string, n int) (int, bool) {
	if len(s) < n {
		return 0, false
	}
	v := 0
	for i := 0; i < n; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int(c-'0')
	}
	return v, true
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// scanDate reads YYYY-MM-DD from the front of s and returns the remainder.
func scanDate(s string) (Date, string, *TemporalError) {
	if len(s) < 10 {
		return Date{}, "", temporalErr(CodeDateParsing, msgTooShort)
	}
	y, ok := digits(s, 4)
	if !ok {
		return Date{}, "", temporalErr(CodeDateParsing, "invalid character in year")
	}
	if s[4] != '-' {
		return Date{}, "", temporalErr(CodeDateParsing, msgDateSep)
	}
	m, ok := digits(s[5:], 2)
	if !ok {
		return Date{}, "", temporalErr(CodeDateParsing, "invalid character in month")
	}
	if s[7] != '-' {
		return Date{}, "", temporalErr(CodeDateParsing, msgDateSep)
	}
	d, ok := digits(s[8:], 2)
	if !ok {
		return Date{}, "", temporalErr(CodeDateParsing, "invalid character in day")
	}
	if m < 1 || m > 12 {
		return Date{}, "", temporalErr(CodeDateParsing, msgMonthRange)
	}
	if d < 1 || d > daysIn(time.Month(m), y) {
		return Date{}, "", temporalErr(CodeDateParsing, msgDayRange)
	}
	return Date{Year: y, Month: time.Month(m), Day: d}, s[10:], nil
}

// ParseDate parses the canonical YYYY-MM-DD layout. A trailing time of day is
// rejected; see DateFromDatetime for the explicit fallback.
func ParseDate(s string) (Date, error) {
	d, rest, err := scanDate(s)
	if err != nil {
		return Date{}, err
	}
	if rest != "" {
		return Date{}, temporalErr(CodeDateParsing, msgExtraChars)
	}
	return d, nil
}

// scanClock reads HH:MM[:SS[.f]] from the front of s. Strict layouts require
// the seconds field.
func scanClock(s string, strict bool, code Code) (TimeOfDay, string, *TemporalError) {
	var t TimeOfDay
	if len(s) < 5 {
		return t, "", temporalErr(code, msgTooShort)
	}
	h, ok := digits(s, 2)
	if !ok {
		return t, "", temporalErr(code, "invalid character in hour")
	}
	if s[2] != ':' {
		return t, "", temporalErr(code, msgTimeSep)
	}
	mi, ok := digits(s[3:], 2)
	if !ok {
		return t, "", temporalErr(code, "invalid character in minute")
	}
	rest := s[5:]
	sec := 0
	switch {
	case rest != "" && rest[0] == ':':
		if sec, ok = digits(rest[1:], 2); !ok {
			if len(rest) < 3 {
				return t, "", temporalErr(code, msgTooShort)
			}
			return t, "", temporalErr(code, "invalid character in second")
		}
		rest = rest[3:]
	case strict:
		if rest == "" {
			return t, "", temporalErr(code, msgTooShort)
		}
		return t, "", temporalErr(code, msgTimeSep)
	}
	nanos := 0
	if rest != "" && rest[0] == '.' {
		n := 1
		for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
			n++
		}
		frac := rest[1:n]
		if len(frac) == 0 || len(frac) > 9 {
			return t, "", temporalErr(code, msgFraction)
		}
		v, _ := strconv.Atoi(frac)
		nanos = v * int(math.Pow10(9-len(frac)))
		rest = rest[n:]
	}
	switch {
	case h > 23:
		return t, "", temporalErr(code, msgHourRange)
	case mi > 59:
		return t, "", temporalErr(code, msgMinuteRange)
	case sec > 59:
		return t, "", temporalErr(code, msgSecondRange)
	}
	return TimeOfDay{Hour: h, Minute: mi, Second: sec, Nanosecond: nanos}, rest, nil
}

// scanOffset reads an optional Z or ±HH:MM suffix. Lax layouts also accept a
// lowercase z and ±HHMM / ±HH.
func scanOffset(s string, strict bool, code Code) (*time.Location, string, *TemporalError) {
	if s == "" {
		return nil, s, nil
	}
	switch s[0] {
	case 'Z':
		return time.UTC, s[1:], nil
	case 'z':
		if strict {
			return nil, "", temporalErr(code, msgTzSign)
		}
		return time.UTC, s[1:], nil
	case '+', '-':
	default:
		return nil, "", temporalErr(code, msgTzSign)
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	s = s[1:]
	h, ok := digits(s, 2)
	if !ok {
		return nil, "", temporalErr(code, "invalid timezone hour")
	}
	s = s[2:]
	m := 0
	switch {
	case len(s) >= 3 && s[0] == ':':
		if m, ok = digits(s[1:], 2); !ok {
			return nil, "", temporalErr(code, "invalid timezone minute")
		}
		s = s[3:]
	case strict:
		return nil, "", temporalErr(code, msgTimeSep)
	case len(s) >= 2:
		if v, ok := digits(s, 2); ok {
			m = v
			s = s[2:]
		}
	}
	if h > 23 || m > 59 {
		return nil, "", temporalErr(code, msgTzRange)
	}
	off := sign * (h*3600 + m*60)
	if off == 0 {
		return time.UTC, s, nil
	}
	return time.FixedZone("", off), s, nil
}

// ParseTime parses HH:MM:SS[.f][Z|±HH:MM]. Lax layouts may omit seconds.
func ParseTime(s string, strict bool) (TimeOfDay, error) {
	t, rest, err := scanClock(s, strict, CodeTimeParsing)
	if err != nil {
		return TimeOfDay{}, err
	}
	zone, rest, err := scanOffset(rest, strict, CodeTimeParsing)
	if err != nil {
		return TimeOfDay{}, err
	}
	if rest != "" {
		return TimeOfDay{}, temporalErr(CodeTimeParsing, msgExtraChars)
	}
	t.Zone = zone
	return t, nil
}

// ParseDatetime parses YYYY-MM-DDTHH:MM:SS[.f][Z|±HH:MM]; a missing offset
// means UTC. Lax layouts also accept ' ', 't' or '_' as the separator, a
// missing seconds field, a bare date (midnight), and a numeric Unix
// timestamp.
func ParseDatetime(s string, strict bool) (time.Time, error) {
	if !strict {
		if v, err := strconv.ParseFloat(s, 64); err == nil && isNumericText(s) {
			return DatetimeFromUnix(v)
		}
	}
	d, rest, err := scanDate(s)
	if err != nil {
		err.Code = CodeDatetimeParsing
		return time.Time{}, err
	}
	if rest == "" {
		if strict {
			return time.Time{}, temporalErr(CodeDatetimeParsing, msgTooShort)
		}
		return d.Time(), nil
	}
	switch rest[0] {
	case 'T':
	case 't', ' ', '_':
		if strict {
			return time.Time{}, temporalErr(CodeDatetimeParsing, msgDatetimeSep)
		}
	default:
		return time.Time{}, temporalErr(CodeDatetimeParsing, msgDatetimeSep)
	}
	clock, rest, err := scanClock(rest[1:], strict, CodeDatetimeParsing)
	if err != nil {
		return time.Time{}, err
	}
	zone, rest, err := scanOffset(rest, strict, CodeDatetimeParsing)
	if err != nil {
		return time.Time{}, err
	}
	if rest != "" {
		return time.Time{}, temporalErr(CodeDatetimeParsing, msgExtraChars)
	}
	if zone == nil {
		zone = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, clock.Hour, clock.Minute, clock.Second, clock.Nanosecond, zone), nil
}

func isNumericText(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && c != '.' && !(i == 0 && c == '-') {
			return false
		}
	}
	return true
}

// ParseTimedelta parses an ISO 8601 duration [-]P[nW][nD][T[nH][nM][n[.f]S]].
// Lax layouts also accept [-]HH:MM:SS[.f] and Go duration syntax ("1h30m").
func ParseTimedelta(s string, strict bool) (time.Duration, error) {
	if strings.HasPrefix(s, "P") || strings.HasPrefix(s, "-P") || strings.HasPrefix(s, "+P") {
		return parseISODuration(s)
	}
	if strict {
		if s == "" {
			return 0, temporalErr(CodeTimeDeltaParsing, msgTooShort)
		}
		return 0, temporalErr(CodeTimeDeltaParsing, msgDurationStart)
	}
	if strings.Contains(s, ":") {
		return parseClockDuration(s)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, temporalErr(CodeTimeDeltaParsing, msgDurationChar)
	}
	return d, nil
}

func parseISODuration(s string) (time.Duration, error) {
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	s = s[1:] // P
	if s == "" {
		return 0, temporalErr(CodeTimeDeltaParsing, msgDurationEmpty)
	}
	var total float64 // seconds
	inTime := false
	components := 0
	for s != "" {
		if s[0] == 'T' {
			if inTime {
				return 0, temporalErr(CodeTimeDeltaParsing, msgDurationChar)
			}
			inTime = true
			s = s[1:]
			continue
		}
		n := 0
		for n < len(s) && (s[n] >= '0' && s[n] <= '9' || s[n] == '.') {
			n++
		}
		if n == 0 || n == len(s) {
			return 0, temporalErr(CodeTimeDeltaParsing, msgDurationChar)
		}
		v, err := strconv.ParseFloat(s[:n], 64)
		if err != nil {
			return 0, temporalErr(CodeTimeDeltaParsing, msgDurationChar)
		}
		unit := s[n]
		s = s[n+1:]
		var scale float64
		switch {
		case !inTime && unit == 'W':
			scale = 7 * 86400
		case !inTime && unit == 'D':
			scale = 86400
		case inTime && unit == 'H':
			scale = 3600
		case inTime && unit == 'M':
			scale = 60
		case inTime && unit == 'S':
			scale = 1
		default:
			return 0, temporalErr(CodeTimeDeltaParsing, msgDurationChar)
		}
		total += v * scale
		components++
	}
	if components == 0 {
		return 0, temporalErr(CodeTimeDeltaParsing, msgDurationEmpty)
	}
	if neg {
		total = -total
	}
	return TimedeltaFromSeconds(total)
}

func parseClockDuration(s string) (time.Duration, error) {
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, temporalErr(CodeTimeDeltaParsing, msgDurationChar)
	}
	h, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, temporalErr(CodeTimeDeltaParsing, "invalid character in hour")
	}
	m, ok := digits(parts[1], 2)
	if !ok || len(parts[1]) != 2 {
		return 0, temporalErr(CodeTimeDeltaParsing, "invalid character in minute")
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || !isNumericText(parts[2]) || strings.HasPrefix(parts[2], "-") {
		return 0, temporalErr(CodeTimeDeltaParsing, "invalid character in second")
	}
	if m > 59 {
		return 0, temporalErr(CodeTimeDeltaParsing, msgMinuteRange)
	}
	if sec >= 60 {
		return 0, temporalErr(CodeTimeDeltaParsing, msgSecondRange)
	}
	total := float64(h)*3600 + float64(m)*60 + sec
	if neg {
		total = -total
	}
	return TimedeltaFromSeconds(total)
}

const (
	// Unix seconds of 0001-01-01T00:00:00Z and 9999-12-31T23:59:59Z.
	_minUnix = -62135596800
	_maxUnix = 253402300799
	// Timestamps with a larger magnitude are taken to be in milliseconds.
	_msThreshold = 2e10
)

// DatetimeFromUnix interprets v as Unix seconds, or as milliseconds when
// |v| > 2e10, and returns the UTC datetime with microsecond precision.
func DatetimeFromUnix(v float64) (time.Time, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}, temporalErr(CodeDatetimeOutOfRange, "")
	}
	if math.Abs(v) > _msThreshold {
		v /= 1000
	}
	sec := math.Floor(v)
	if sec < _minUnix || sec > _maxUnix {
		return time.Time{}, temporalErr(CodeDatetimeOutOfRange, "")
	}
	micros := math.Round((v - sec) * 1e6)
	if micros >= 1e6 {
		sec++
		micros -= 1e6
	}
	return time.Unix(int64(sec), int64(micros)*1e3).UTC(), nil
}

// TimeFromSeconds interprets v as seconds since midnight; v must be within
// [0, 86400).
func TimeFromSeconds(v float64) (TimeOfDay, error) {
	if math.IsNaN(v) || v < 0 || v >= 86400 {
		return TimeOfDay{}, temporalErr(CodeTimeOutOfRange, "")
	}
	sec := math.Floor(v)
	micros := int(math.Round((v - sec) * 1e6))
	s := int(sec)
	if micros >= 1e6 {
		micros -= 1e6
		s++
		if s >= 86400 {
			return TimeOfDay{}, temporalErr(CodeTimeOutOfRange, "")
		}
	}
	return TimeOfDay{Hour: s / 3600, Minute: s % 3600 / 60, Second: s % 60, Nanosecond: micros * 1000}, nil
}

// TimedeltaFromSeconds converts seconds into a Duration with microsecond
// precision. Values that do not fit a time.Duration are out of range.
func TimedeltaFromSeconds(v float64) (time.Duration, error) {
	if math.IsNaN(v) || math.Abs(v) >= float64(math.MaxInt64)/1e9 {
		return 0, temporalErr(CodeTimeDeltaOutOfRange, "")
	}
	return time.Duration(math.Round(v*1e6)) * time.Microsecond, nil
}

// DateFromDatetime is the named fallback for producing a date from input that
// carries a time of day: the input is read as a datetime and accepted only if
// its time component is exactly midnight. Type failures are reported as
// date_type, parse failures as date_from_datetime_parsing and a non-zero time
// as date_from_datetime_inexact.
func DateFromDatetime(in Input, strict bool) (Date, error) {
	t, err := in.AsDatetime(strict)
	if err != nil {
		les, ok := AsLineErrors(err)
		if !ok || len(les) == 0 {
			return Date{}, err
		}
		switch k := les[0].Kind; k.Code {
		case CodeDatetimeParsing:
			return Date{}, Fail(NewKind(CodeDateFromDatetimeParsing, "error", k.Context["error"]), in)
		case CodeDatetimeOutOfRange:
			return Date{}, Fail(NewKind(CodeDateFromDatetimeParsing, "error", "timestamp is outside the supported range"), in)
		default:
			return Date{}, Fail(NewKind(CodeDateType), in)
		}
	}
	if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return Date{}, Fail(NewKind(CodeDateFromDatetimeInexact), in)
	}
	return DateOf(t), nil
}
