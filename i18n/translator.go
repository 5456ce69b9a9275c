package i18n

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

// Translator retrieves localized messages for error kind codes.
// data carries the kind's context (for example "min_length" or "error"),
// which templates reference as {min_length}.
type Translator interface {
	Message(code string, data map[string]any) string
}

var enTemplates = map[string]string{
	"missing":         "Field required",
	"extra_forbidden": "Extra values are not permitted",
	"none_required":   "Value must be None/null",
	"literal_error":   "Value must be {expected}",

	"str_type":                "Value must be a valid string",
	"string_too_short":        "String must have at least {min_length} characters",
	"string_too_long":         "String must have at most {max_length} characters",
	"string_pattern_mismatch": "String must match pattern '{pattern}'",
	"bytes_type":              "Value must be a valid bytes",
	"bytes_too_short":         "Data must have at least {min_length} bytes",
	"bytes_too_long":          "Data must have at most {max_length} bytes",

	"bool_type":      "Value must be a valid boolean",
	"bool_parsing":   "Value must be a valid boolean, unable to interpret input",
	"int_type":       "Value must be a valid integer",
	"int_parsing":    "Value must be a valid integer, unable to parse string as an integer",
	"int_from_float": "Value must be a valid integer, got a number with a fractional part",
	"int_overflow":   "Value must be a valid integer, got a number outside the 64-bit range",
	"float_type":     "Value must be a valid number",
	"float_parsing":  "Value must be a valid number, unable to parse string as a number",

	"greater_than":       "Value must be greater than {gt}",
	"greater_than_equal": "Value must be greater than or equal to {ge}",
	"less_than":          "Value must be less than {lt}",
	"less_than_equal":    "Value must be less than or equal to {le}",
	"multiple_of":        "Value must be a multiple of {multiple_of}",

	"dict_type":       "Value must be a valid dictionary",
	"list_type":       "Value must be a valid list/array",
	"tuple_type":      "Value must be a valid tuple",
	"set_type":        "Value must be a valid set",
	"frozen_set_type": "Value must be a valid frozenset",
	"too_short":       "Input must have at least {min_length} items",
	"too_long":        "Input must have at most {max_length} items",

	"date_type":                  "Value must be a valid date",
	"date_parsing":               "Value must be a valid date in the format YYYY-MM-DD, {error}",
	"date_from_datetime_parsing": "Value must be a valid date or datetime, {error}",
	"date_from_datetime_inexact": "Datetimes provided to dates must have zero time - e.g. be exact dates",
	"time_type":                  "Value must be a valid time",
	"time_parsing":               "Value must be in a valid time format, {error}",
	"time_out_of_range":          "Time in seconds must be at least 0 and less than 86400",
	"datetime_type":              "Value must be a valid datetime",
	"datetime_parsing":           "Value must be a valid datetime, {error}",
	"datetime_out_of_range":      "Timestamp is outside the supported datetime range",
	"time_delta_type":            "Value must be a valid timedelta",
	"time_delta_parsing":         "Value must be a valid timedelta, {error}",
	"time_delta_out_of_range":    "Duration is outside the supported timedelta range",
}

var jaTemplates = map[string]string{
	"missing":          "必須フィールドが不足しています",
	"extra_forbidden":  "追加の値は許可されていません",
	"str_type":         "有効な文字列である必要があります",
	"bool_type":        "有効な真偽値である必要があります",
	"bool_parsing":     "有効な真偽値である必要があります (入力を解釈できません)",
	"int_type":         "有効な整数である必要があります",
	"int_parsing":      "有効な整数である必要があります (文字列を整数として解析できません)",
	"int_from_float":   "有効な整数である必要があります (小数部があります)",
	"float_type":       "有効な数値である必要があります",
	"float_parsing":    "有効な数値である必要があります (文字列を数値として解析できません)",
	"dict_type":        "有効な辞書である必要があります",
	"list_type":        "有効なリスト/配列である必要があります",
	"too_short":        "少なくとも {min_length} 個の要素が必要です",
	"too_long":         "要素は最大 {max_length} 個までです",
	"string_too_short": "少なくとも {min_length} 文字が必要です",
	"string_too_long":  "最大 {max_length} 文字までです",
	"date_parsing":     "YYYY-MM-DD 形式の有効な日付である必要があります ({error})",
	"datetime_parsing": "有効な日時である必要があります ({error})",
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]any) string {
	tmpl, ok := "", false
	if t.lang == "ja" {
		tmpl, ok = jaTemplates[code]
	}
	if !ok {
		tmpl, ok = enTemplates[code]
	}
	if !ok {
		return code
	}
	return Render(tmpl, data)
}

// Template returns the English template for code.
func Template(code string) (string, bool) {
	t, ok := enTemplates[code]
	return t, ok
}

// Placeholders lists the {key} names referenced by tmpl, in order of appearance.
func Placeholders(tmpl string) []string {
	var out []string
	for {
		i := strings.IndexByte(tmpl, '{')
		if i < 0 {
			return out
		}
		j := strings.IndexByte(tmpl[i:], '}')
		if j < 0 {
			return out
		}
		out = append(out, tmpl[i+1:i+j])
		tmpl = tmpl[i+j+1:]
	}
}

// Render substitutes {key} placeholders in tmpl with values from data.
// Unknown placeholders are left verbatim.
func Render(tmpl string, data map[string]any) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	b := &strings.Builder{}
	for {
		i := strings.IndexByte(tmpl, '{')
		if i < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		j := strings.IndexByte(tmpl[i:], '}')
		if j < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		b.WriteString(tmpl[:i])
		key := tmpl[i+1 : i+j]
		if v, ok := data[key]; ok {
			b.WriteString(formatParam(v))
		} else {
			b.WriteString(tmpl[i : i+j+1])
		}
		tmpl = tmpl[i+j+1:]
	}
}

func formatParam(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

type translatorHolder struct{ tr Translator }

var currentTranslator atomic.Value

func init() { currentTranslator.Store(translatorHolder{dictTranslator{lang: "en"}}) }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator.Store(translatorHolder{dictTranslator{lang: lang}})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	currentTranslator.Store(translatorHolder{tr})
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]any) string {
	return currentTranslator.Load().(translatorHolder).tr.Message(code, data)
}
