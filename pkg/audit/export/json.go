package export

import (
	"context"
	"encoding/json"
	"io"

	"solara-hq/quotient/pkg/audit"
)

// JSONExporter exports audit events to JSON format.
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

// Export writes audit events to the provided writer as a JSON array.
// If Pretty is true, the JSON is indented for readability.
func (e *JSONExporter) Export(ctx context.Context, events []*audit.Event, w io.Writer) error {
	if len(events) == 0 {
		_, err := w.Write([]byte("[]"))
		return err
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(events, "", "  ")
	} else {
		data, err = json.Marshal(events)
	}
	if err != nil {
		return audit.NewExportError("json", len(events), err)
	}

	if _, err := w.Write(data); err != nil {
		return audit.NewExportError("json", len(events), err)
	}
	return nil
}
