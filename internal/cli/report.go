package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/reoring/coerce"
	"github.com/reoring/coerce/internal/console"
)

// contextLines is the number of source lines shown around a diagnostic.
const contextLines = 3

// WriteReports renders reports in the given format.
func WriteReports(w io.Writer, format string, reports []FileReport) error {
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case FormatYAML:
		b, err := yaml.Marshal(reports)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case FormatText, "":
		for _, r := range reports {
			if _, err := io.WriteString(w, formatText(r)); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown format %q", format)
}

func formatText(r FileReport) string {
	var out strings.Builder
	for _, warn := range r.Warnings {
		out.WriteString(console.FormatWarningMessage(r.File + ": " + warn))
		out.WriteString("\n")
	}
	switch {
	case r.Valid:
		out.WriteString(console.FormatSuccessMessage(r.File + ": valid"))
		out.WriteString("\n")
	case r.Failure != "":
		out.WriteString(console.FormatErrorMessage(r.File + ": " + r.Failure))
		out.WriteString("\n")
	default:
		plural := "s"
		if r.ErrorCount == 1 {
			plural = ""
		}
		out.WriteString(console.FormatErrorMessage(fmt.Sprintf("%s: %d validation error%s for %s", r.File, r.ErrorCount, plural, r.Title)))
		out.WriteString("\n")
		lines := strings.Split(string(r.src), "\n")
		for _, e := range r.Errors {
			out.WriteString(console.FormatDiagnostic(diagnostic(r.File, e, lines)))
		}
	}
	return out.String()
}

func diagnostic(file string, e ErrorReport, lines []string) console.Diagnostic {
	msg := e.Message + " [kind=" + e.Kind + "]"
	if loc, err := coerce.LocationFromExport(e.Loc); err == nil && len(loc) > 0 {
		msg = loc.String() + "  " + msg
	}
	d := console.Diagnostic{
		Position: console.Position{File: file, Line: e.Line, Column: e.Column},
		Type:     "error",
		Message:  msg,
	}
	if e.Line > 0 && e.Line <= len(lines) {
		first := e.Line - contextLines/2
		if first < 1 {
			first = 1
		}
		last := first + contextLines - 1
		if last > len(lines) {
			last = len(lines)
		}
		d.Context = lines[first-1 : last]
		d.ContextStart = first
	}
	if !e.Exact && e.Line > 0 {
		d.Hint = "the location does not exist in the document; shown at the nearest enclosing value"
	}
	return d
}
