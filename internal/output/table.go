package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/traktrelay/traktrelay/internal/store"
)

// TableFormatter renders rejections as an ASCII table.
type TableFormatter struct{}

// FormatRejections renders audit entries as a table, newest first.
func (f *TableFormatter) FormatRejections(entries []store.RejectionRow) (string, error) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"At", "Client", "Method", "Path", "Decision", "Status"})

	for _, entry := range entries {
		t.AppendRow(table.Row{
			entry.At.Format(time.RFC3339),
			entry.ClientKey,
			entry.Method,
			entry.Path,
			entry.Decision,
			entry.Status,
		})
	}

	if len(entries) > 0 {
		t.AppendFooter(table.Row{"", "", "", "", "total", fmt.Sprintf("%d", len(entries))})
	}

	return t.Render(), nil
}
