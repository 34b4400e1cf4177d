package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"custodia-hq/custodia/pkg/audit"
)

// CSVExporter exports audit entries to CSV format. Nested metadata is
// flattened to a JSON string column.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes the entries to w in CSV format. The csv writer handles
// quoting, so already sanitized field values survive round-tripping.
func (e *CSVExporter) Export(ctx context.Context, entries []*audit.Entry, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return audit.NewExportError("csv", len(entries), err)
		}
	}

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return audit.NewExportError("csv", i, err)
		}
		if err := writer.Write(entryToRow(entry)); err != nil {
			return audit.NewExportError("csv", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return audit.NewExportError("csv", len(entries), err)
	}
	return nil
}

// ExportStream writes entries from a channel to w in CSV format, flushing
// periodically for long exports.
func (e *CSVExporter) ExportStream(ctx context.Context, entriesCh <-chan *audit.Entry, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return audit.NewExportError("csv", 0, err)
		}
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case entry, ok := <-entriesCh:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return audit.NewExportError("csv", count, err)
				}
				return nil
			}

			if err := writer.Write(entryToRow(entry)); err != nil {
				return audit.NewExportError("csv", count, err)
			}
			count++

			if count%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return audit.NewExportError("csv", count, err)
				}
			}
		}
	}
}

// headerRow returns the CSV column names in row order.
func headerRow() []string {
	return []string{
		"id", "timestamp",
		"actor_id", "actor_name",
		"action", "resource_type", "resource_id",
		"ip_address", "user_agent",
		"result", "reason", "metadata",
	}
}

// entryToRow converts one audit entry to a CSV row.
func entryToRow(entry *audit.Entry) []string {
	metadata := ""
	if len(entry.Metadata) > 0 {
		data, _ := json.Marshal(entry.Metadata)
		metadata = string(data)
	}

	return []string{
		entry.ID,
		entry.Timestamp.UTC().Format(time.RFC3339),
		entry.ActorID,
		entry.ActorName,
		string(entry.Action),
		entry.ResourceType,
		entry.ResourceID,
		entry.IPAddress,
		entry.UserAgent,
		string(entry.Result),
		entry.Reason,
		metadata,
	}
}
