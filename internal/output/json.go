package output

import (
	"encoding/json"

	"github.com/traktrelay/traktrelay/internal/store"
)

// JSONFormatter renders rejections as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatRejections renders audit entries as a JSON array.
func (f *JSONFormatter) FormatRejections(entries []store.RejectionRow) (string, error) {
	if entries == nil {
		entries = []store.RejectionRow{}
	}

	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(entries, "", "  ")
	} else {
		data, err = json.Marshal(entries)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
