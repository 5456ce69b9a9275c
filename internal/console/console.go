// Package console renders CLI output, styled with lipgloss when stdout is a
// terminal and plain otherwise.
package console

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Position is a 1-based line/column in a source file.
type Position struct {
	File   string
	Line   int
	Column int
}

// Diagnostic is one validation failure tied to a source position.
type Diagnostic struct {
	Position Position
	Type     string // "error", "warning", "info"
	Message  string
	// Context holds source lines starting at line ContextStart (or centred
	// on Position.Line when ContextStart is 0).
	Context      []string
	ContextStart int
	Hint         string
}

var (
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5555"))

	warningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))

	infoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE9FD"))

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#50FA7B"))

	filePathStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#BD93F9"))

	lineNumberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	verboseStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#6272A4"))

	hintStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#50FA7B"))

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#BD93F9"))
)

// styled is swapped in tests to force plain output.
var styled = func() bool { return isatty.IsTerminal(os.Stdout.Fd()) }

func applyStyle(style lipgloss.Style, text string) string {
	if styled() {
		return style.Render(text)
	}
	return text
}

// FormatDiagnostic renders d as "file:line:col: error: message" followed by
// the source context with a caret under the column.
func FormatDiagnostic(d Diagnostic) string {
	var out strings.Builder
	typeStyle, prefix := errorStyle, "error"
	switch d.Type {
	case "warning":
		typeStyle, prefix = warningStyle, "warning"
	case "info":
		typeStyle, prefix = infoStyle, "info"
	}
	if d.Position.File != "" {
		loc := d.Position.File
		if d.Position.Line > 0 {
			loc = fmt.Sprintf("%s:%d:%d", d.Position.File, d.Position.Line, d.Position.Column)
		}
		out.WriteString(applyStyle(filePathStyle, loc+":"))
		out.WriteString(" ")
	}
	out.WriteString(applyStyle(typeStyle, prefix+":"))
	out.WriteString(" ")
	out.WriteString(d.Message)
	out.WriteString("\n")
	if len(d.Context) > 0 && d.Position.Line > 0 {
		out.WriteString(renderContext(d))
	}
	if d.Hint != "" {
		out.WriteString(applyStyle(hintStyle, "hint: "))
		out.WriteString(d.Hint)
		out.WriteString("\n")
	}
	return out.String()
}

func renderContext(d Diagnostic) string {
	var out strings.Builder
	first := d.ContextStart
	if first == 0 {
		first = d.Position.Line - len(d.Context)/2
	}
	width := len(fmt.Sprint(first + len(d.Context)))
	for i, line := range d.Context {
		n := first + i
		if n < 1 {
			continue
		}
		out.WriteString(applyStyle(lineNumberStyle, fmt.Sprintf("%*d", width, n)))
		out.WriteString(" | ")
		out.WriteString(line)
		out.WriteString("\n")
		if n == d.Position.Line && d.Position.Column > 0 {
			out.WriteString(strings.Repeat(" ", width+3+d.Position.Column-1))
			out.WriteString(applyStyle(errorStyle, "^"))
			out.WriteString("\n")
		}
	}
	return out.String()
}

// FormatErrorMessage formats an error message.
func FormatErrorMessage(message string) string {
	return applyStyle(errorStyle, "✗ ") + message
}

// FormatSuccessMessage formats a success message.
func FormatSuccessMessage(message string) string {
	return applyStyle(successStyle, "✓ ") + message
}

// FormatInfoMessage formats an informational message.
func FormatInfoMessage(message string) string {
	return applyStyle(infoStyle, "ℹ ") + message
}

// FormatWarningMessage formats a warning message.
func FormatWarningMessage(message string) string {
	return applyStyle(warningStyle, "⚠ ") + message
}

// FormatVerboseMessage formats verbose debugging output.
func FormatVerboseMessage(message string) string {
	return applyStyle(verboseStyle, "· ") + message
}

// RenderTable renders rows under headers as aligned columns.
func RenderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if i < len(widths) && len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
	}
	var out strings.Builder
	out.WriteString(applyStyle(tableHeaderStyle, renderRow(headers, widths)))
	out.WriteString("\n")
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	out.WriteString(renderRow(sep, widths))
	out.WriteString("\n")
	for _, r := range rows {
		out.WriteString(renderRow(r, widths))
		out.WriteString("\n")
	}
	return out.String()
}

func renderRow(cells []string, widths []int) string {
	parts := make([]string, 0, len(cells))
	for i, c := range cells {
		if i < len(widths) {
			parts = append(parts, fmt.Sprintf("%-*s", widths[i], c))
		}
	}
	return strings.TrimRight(strings.Join(parts, " | "), " ")
}
