// Package export serializes audit trail entries for hand-off to external
// systems. Exports are read-only views: exporting never mutates or
// reorders the stored trail.
package export

import (
	"context"
	"encoding/json"
	"io"

	"custodia-hq/custodia/pkg/audit"
)

// Exporter writes audit entries to an output stream in one format.
type Exporter interface {
	Export(ctx context.Context, entries []*audit.Entry, w io.Writer) error
}

// JSONExporter exports audit entries as a JSON array.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{
		Pretty: pretty,
	}
}

// Export writes the entries to w as a JSON array. An empty slice exports
// as "[]" so consumers always receive valid JSON.
func (e *JSONExporter) Export(ctx context.Context, entries []*audit.Entry, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return audit.NewExportError("json", 0, err)
	}

	if len(entries) == 0 {
		_, err := w.Write([]byte("[]"))
		return err
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(entries, "", "  ")
	} else {
		data, err = json.Marshal(entries)
	}
	if err != nil {
		return audit.NewExportError("json", len(entries), err)
	}

	if _, err := w.Write(data); err != nil {
		return audit.NewExportError("json", len(entries), err)
	}
	return nil
}

// ExportStream writes entries from a channel to w as a JSON array,
// holding one entry in memory at a time.
func (e *JSONExporter) ExportStream(ctx context.Context, entriesCh <-chan *audit.Entry, w io.Writer) error {
	if _, err := w.Write([]byte("[")); err != nil {
		return audit.NewExportError("json", 0, err)
	}

	first := true
	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case entry, ok := <-entriesCh:
			if !ok {
				if _, err := w.Write([]byte("]")); err != nil {
					return audit.NewExportError("json", count, err)
				}
				return nil
			}

			if !first {
				if _, err := w.Write([]byte(",")); err != nil {
					return audit.NewExportError("json", count, err)
				}
			}
			first = false

			var data []byte
			var err error
			if e.Pretty {
				data, err = json.MarshalIndent(entry, "  ", "  ")
			} else {
				data, err = json.Marshal(entry)
			}
			if err != nil {
				return audit.NewExportError("json", count, err)
			}
			if _, err := w.Write(data); err != nil {
				return audit.NewExportError("json", count, err)
			}
			count++
		}
	}
}
