package cli

import (
	"io"
	"strings"

	"github.com/reoring/coerce"
	"github.com/reoring/coerce/i18n"
	"github.com/reoring/coerce/internal/console"
)

// WriteKinds lists every error kind with its context keys and message
// template.
func WriteKinds(w io.Writer) error {
	codes := coerce.KnownCodes()
	rows := make([][]string, 0, len(codes))
	for _, c := range codes {
		keys, _ := coerce.ContextKeys(c)
		tmpl, _ := i18n.Template(string(c))
		rows = append(rows, []string{string(c), strings.Join(keys, ", "), tmpl})
	}
	_, err := io.WriteString(w, console.RenderTable([]string{"Kind", "Context", "Message"}, rows))
	return err
}
