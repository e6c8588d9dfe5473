package ledger

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// FileCostSource is a CostSource backed by a billing export file on disk.
// The file is a YAML map of user ID to period key to authoritative spend:
//
//	usage:
//	  alice:
//	    "2026-08": 42.17
//	    "2026-08-29": 3.05
//	  bob:
//	    "2026-08": 7.50
//
// The file is re-read on every reconciliation pass so a billing pipeline
// can refresh it in place without restarting the service.
type FileCostSource struct {
	path string
}

type billingExport struct {
	Usage map[string]map[string]float64 `yaml:"usage"`
}

// NewFileCostSource creates a cost source reading from the given path.
func NewFileCostSource(path string) *FileCostSource {
	return &FileCostSource{path: path}
}

// Users returns the user IDs present in the export, sorted.
func (f *FileCostSource) Users(ctx context.Context) ([]string, error) {
	export, err := f.load()
	if err != nil {
		return nil, err
	}

	users := make([]string, 0, len(export.Usage))
	for userID := range export.Usage {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users, nil
}

// Periods returns the period keys recorded for a user, sorted. A user
// absent from the export has no periods.
func (f *FileCostSource) Periods(ctx context.Context, userID string) ([]string, error) {
	export, err := f.load()
	if err != nil {
		return nil, err
	}

	periods := make([]string, 0, len(export.Usage[userID]))
	for periodKey := range export.Usage[userID] {
		periods = append(periods, periodKey)
	}
	sort.Strings(periods)
	return periods, nil
}

// Usage returns the authoritative spend for a user and period key.
// A user or period absent from the export reads as zero spend.
func (f *FileCostSource) Usage(ctx context.Context, userID, periodKey string) (float64, error) {
	export, err := f.load()
	if err != nil {
		return 0, err
	}
	return export.Usage[userID][periodKey], nil
}

func (f *FileCostSource) load() (*billingExport, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read billing export %q: %w", f.path, err)
	}

	var export billingExport
	if err := yaml.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse billing export %q: %w", f.path, err)
	}
	return &export, nil
}
