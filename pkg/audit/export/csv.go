package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"solara-hq/quotient/pkg/audit"
)

// CSVExporter exports audit events to CSV format.
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

// Export writes audit events to the provided writer in CSV format.
// Metadata is flattened to a JSON string column.
func (e *CSVExporter) Export(ctx context.Context, events []*audit.Event, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return audit.NewExportError("csv", len(events), err)
		}
	}

	for _, event := range events {
		if err := writer.Write(eventToRow(event)); err != nil {
			return audit.NewExportError("csv", len(events), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return audit.NewExportError("csv", len(events), err)
	}
	return nil
}

func headerRow() []string {
	return []string{
		"event_id", "timestamp", "user_id", "tier_id", "event_type",
		"current_usage", "quota_limit", "percentage_used", "session_id", "metadata",
	}
}

func eventToRow(event *audit.Event) []string {
	metadata, _ := json.Marshal(event.Metadata)

	return []string{
		event.EventID,
		event.Timestamp.Format(time.RFC3339),
		event.UserID,
		event.TierID,
		string(event.Type),
		fmt.Sprintf("%.6f", event.CurrentUsage),
		fmt.Sprintf("%.6f", event.QuotaLimit),
		fmt.Sprintf("%.2f", event.PercentageUsed),
		event.SessionID,
		string(metadata),
	}
}
