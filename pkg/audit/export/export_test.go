package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"solara-hq/quotient/pkg/audit"
	"solara-hq/quotient/pkg/quota"
)

func sampleEvents() []*audit.Event {
	at := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)
	return []*audit.Event{
		{
			EventID:        "e1",
			Timestamp:      at,
			UserID:         "alice",
			TierID:         "free",
			Type:           quota.EventWarning,
			CurrentUsage:   85,
			QuotaLimit:     100,
			PercentageUsed: 85,
			SessionID:      "s1",
			Metadata:       map[string]string{"period": "2026-08"},
		},
		{
			EventID:        "e2",
			Timestamp:      at.Add(time.Hour),
			UserID:         "bob",
			TierID:         "pro",
			Type:           quota.EventBlock,
			CurrentUsage:   250,
			QuotaLimit:     250,
			PercentageUsed: 100,
		},
	}
}

func TestCSVExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(true).Export(context.Background(), sampleEvents(), &buf); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}

	header := records[0]
	if header[0] != "event_id" || header[4] != "event_type" || header[9] != "metadata" {
		t.Errorf("unexpected header: %v", header)
	}

	row := records[1]
	if row[0] != "e1" || row[2] != "alice" || row[4] != "warning" {
		t.Errorf("unexpected first row: %v", row)
	}
	if row[1] != "2026-08-15T12:00:00Z" {
		t.Errorf("expected RFC3339 timestamp, got %s", row[1])
	}
	if !strings.Contains(row[9], `"period":"2026-08"`) {
		t.Errorf("metadata not flattened to JSON: %s", row[9])
	}
}

func TestCSVExporter_WithoutHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(false).Export(context.Background(), sampleEvents(), &buf); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 rows without header, got %d", len(records))
	}
	if records[0][0] != "e1" {
		t.Errorf("expected data row first, got %v", records[0])
	}
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), sampleEvents(), &buf); err != nil {
		t.Fatal(err)
	}

	var decoded []*audit.Event
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 events, got %d", len(decoded))
	}
	if decoded[0].EventID != "e1" || decoded[0].Type != quota.EventWarning {
		t.Errorf("fields lost: %+v", decoded[0])
	}
	if decoded[1].Metadata != nil {
		t.Errorf("expected omitted metadata, got %v", decoded[1].Metadata)
	}
}

func TestJSONExporter_Pretty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(true).Export(context.Background(), sampleEvents(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("expected indented output")
	}

	var decoded []*audit.Event
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("pretty output is not valid JSON: %v", err)
	}
}

func TestJSONExporter_EmptySlice(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), nil, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "[]" {
		t.Errorf("expected empty array, got %q", buf.String())
	}
}
