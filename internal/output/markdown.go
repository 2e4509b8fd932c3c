package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/traktrelay/traktrelay/internal/store"
)

// MarkdownFormatter renders rejections as a Markdown table.
type MarkdownFormatter struct{}

// FormatRejections renders audit entries as a GitHub-flavored Markdown table.
func (f *MarkdownFormatter) FormatRejections(entries []store.RejectionRow) (string, error) {
	var b strings.Builder

	b.WriteString("| At | Client | Method | Path | Decision | Status |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- |\n")

	for _, entry := range entries {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %d |\n",
			entry.At.Format(time.RFC3339),
			escapeCell(entry.ClientKey),
			entry.Method,
			escapeCell(entry.Path),
			entry.Decision,
			entry.Status,
		)
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

func escapeCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
