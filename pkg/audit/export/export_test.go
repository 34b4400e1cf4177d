package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"custodia-hq/custodia/pkg/audit"
	"custodia-hq/custodia/pkg/evidence"
)

func sampleEntries(t *testing.T) []*audit.Entry {
	t.Helper()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	entries := []*audit.Entry{
		{
			ID:           "entry-1",
			Timestamp:    base,
			ActorID:      "actor-1",
			ActorName:    "Inspector One",
			Action:       evidence.ActionView,
			ResourceType: audit.ResourceTypeEvidence,
			ResourceID:   "ev-1",
			Result:       audit.ResultSuccess,
		},
		{
			ID:           "entry-2",
			Timestamp:    base.Add(time.Minute),
			ActorID:      "actor-2",
			ActorName:    "Reviewer, \"The\" Second",
			Action:       evidence.ActionEdit,
			ResourceType: audit.ResourceTypeEvidence,
			ResourceID:   "ev-2",
			IPAddress:    "203.0.113.7",
			Result:       audit.ResultDenied,
			Reason:       "evidence location \"District 3\" is outside your allowed locations",
			Metadata:     map[string]string{"denial_reason": "scopeViolation"},
		},
	}
	for _, entry := range entries {
		if err := audit.Sanitize(entry); err != nil {
			t.Fatalf("Sanitize() failed: %v", err)
		}
	}
	return entries
}

// TestJSONExporter_Export verifies the array shape and field round trip.
func TestJSONExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewJSONExporter(false)

	if err := exporter.Export(context.Background(), sampleEntries(t), &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	var decoded []*audit.Entry
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(decoded))
	}
	if decoded[1].Metadata["denial_reason"] != "scopeViolation" {
		t.Errorf("Metadata lost: %+v", decoded[1].Metadata)
	}
	if decoded[1].Result != audit.ResultDenied {
		t.Errorf("Result lost: %s", decoded[1].Result)
	}
}

// TestJSONExporter_Empty exports an empty trail as a valid empty array.
func TestJSONExporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewJSONExporter(true)

	if err := exporter.Export(context.Background(), nil, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if buf.String() != "[]" {
		t.Errorf("Expected [], got %q", buf.String())
	}
}

// TestJSONExporter_Stream verifies the streamed output matches the batch
// shape.
func TestJSONExporter_Stream(t *testing.T) {
	entries := sampleEntries(t)
	ch := make(chan *audit.Entry, len(entries))
	for _, entry := range entries {
		ch <- entry
	}
	close(ch)

	var buf bytes.Buffer
	exporter := NewJSONExporter(false)
	if err := exporter.ExportStream(context.Background(), ch, &buf); err != nil {
		t.Fatalf("ExportStream() failed: %v", err)
	}

	var decoded []*audit.Entry
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Streamed output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(decoded))
	}
}

// TestCSVExporter_Export verifies header, row count and quoting of
// embedded quotes and commas.
func TestCSVExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewCSVExporter(true)

	if err := exporter.Export(context.Background(), sampleEntries(t), &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	reader := csv.NewReader(strings.NewReader(buf.String()))
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d rows", len(rows))
	}
	if rows[0][0] != "id" || rows[0][len(rows[0])-1] != "metadata" {
		t.Errorf("Unexpected header: %v", rows[0])
	}
	if rows[2][3] != "Reviewer, \"The\" Second" {
		t.Errorf("Quoted actor name not round-tripped: %q", rows[2][3])
	}

	var metadata map[string]string
	if err := json.Unmarshal([]byte(rows[2][11]), &metadata); err != nil {
		t.Fatalf("Metadata column is not valid JSON: %v", err)
	}
	if metadata["denial_reason"] != "scopeViolation" {
		t.Errorf("Metadata lost: %+v", metadata)
	}
}

// TestCSVExporter_NoHeader verifies the header can be suppressed.
func TestCSVExporter_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewCSVExporter(false)

	if err := exporter.Export(context.Background(), sampleEntries(t), &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	first := strings.SplitN(buf.String(), "\n", 2)[0]
	if strings.HasPrefix(first, "id,") {
		t.Errorf("Header row present despite IncludeHeader=false: %q", first)
	}
}

// TestExport_CancelledContext verifies cancellation surfaces as an error.
func TestExport_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(ctx, sampleEntries(t), &buf); err == nil {
		t.Error("Expected JSON export error on cancelled context")
	}

	var exportErr *audit.ExportError
	err := NewCSVExporter(true).Export(ctx, sampleEntries(t), &buf)
	if err == nil {
		t.Fatal("Expected CSV export error on cancelled context")
	}
	if !errors.As(err, &exportErr) {
		t.Errorf("Expected *audit.ExportError, got %T", err)
	}
}
