package cli

import (
	"sort"
	"time"

	"github.com/reoring/coerce"
)

// plain rewrites a validated value into types every encoder handles: sets
// become sorted lists, maps with non-string keys get rendered keys and
// temporal values become their ISO forms.
func plain(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = plain(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[keyText(k)] = plain(e)
		}
		return out
	case map[any]struct{}:
		out := make([]any, 0, len(x))
		for k := range x {
			out = append(out, plain(k))
		}
		sort.Slice(out, func(i, j int) bool { return coerce.FormatValue(out[i]) < coerce.FormatValue(out[j]) })
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	case []byte:
		return string(x)
	case coerce.Date:
		return x.String()
	case coerce.TimeOfDay:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case time.Duration:
		return x.String()
	}
	return v
}

func keyText(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return coerce.FormatValue(k)
}
