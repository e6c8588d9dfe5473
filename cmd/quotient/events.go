package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"solara-hq/quotient/pkg/audit"
	"solara-hq/quotient/pkg/audit/export"
	"solara-hq/quotient/pkg/audit/retention"
	"solara-hq/quotient/pkg/cli"
	"solara-hq/quotient/pkg/config"
	"solara-hq/quotient/pkg/quota"
)

var eventsFlags struct {
	backend   string
	timeRange string
	user      string
	tier      string
	eventType string
	limit     int
	offset    int
	format    string
	output    string
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Query the quota event trail",
	Long: `Query, export, and prune quota enforcement events.

Every warning, block, downgrade, and override application is recorded as
an event. The events command provides access to that trail for audit and
billing review.

Subcommands:
  query   - Query events with filters
  prune   - Delete events past the retention window

Examples:
  # Recent events for a user
  quotient events query --user "user-123"

  # Blocks in a time range
  quotient events query --type block --time-range "2026-08-01T00:00:00Z/2026-09-01T00:00:00Z"

  # Export to CSV file
  quotient events query --format csv --output events.csv`,
}

var eventsQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query quota events",
	Long: `Query quota events with various filters.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-08-01T00:00:00Z/2026-09-01T00:00:00Z"

Examples:
  # Query a specific time range
  quotient events query --time-range "2026-08-01T00:00:00Z/2026-09-01T00:00:00Z"

  # Filter by user and event type
  quotient events query --user "user-123" --type warning

  # Export to JSON
  quotient events query --format json --output events.json`,
	RunE: queryEvents,
}

var eventsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Prune events past the retention window",
	Long: `Delete events older than the configured retention period.

Uses the audit.retention settings from the configuration file. When
archive_before_delete is enabled, events are exported to the archive
directory before deletion.`,
	RunE: pruneEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsQueryCmd, eventsPruneCmd)

	eventsQueryCmd.Flags().StringVar(&eventsFlags.backend, "backend", "", "backend: sqlite, memory (uses config if not specified)")
	eventsQueryCmd.Flags().StringVar(&eventsFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
	eventsQueryCmd.Flags().StringVar(&eventsFlags.user, "user", "", "filter by user ID")
	eventsQueryCmd.Flags().StringVar(&eventsFlags.tier, "tier", "", "filter by tier ID")
	eventsQueryCmd.Flags().StringVar(&eventsFlags.eventType, "type", "", "filter by event type (warning, block, reset, override_applied, downgrade)")
	eventsQueryCmd.Flags().IntVar(&eventsFlags.limit, "limit", 100, "max results")
	eventsQueryCmd.Flags().IntVar(&eventsFlags.offset, "offset", 0, "pagination offset")
	eventsQueryCmd.Flags().StringVar(&eventsFlags.format, "format", "text", "output format: text, json, csv")
	eventsQueryCmd.Flags().StringVarP(&eventsFlags.output, "output", "o", "", "output file (default: stdout)")
}

func queryEvents(cmd *cobra.Command, args []string) error {
	cfg, err := config.Init(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	if eventsFlags.backend != "" {
		cfg.Audit.Backend = eventsFlags.backend
	}

	store, err := buildAuditStorage(cfg)
	if err != nil {
		return cli.NewCommandError("events", fmt.Errorf("failed to create audit storage: %w", err))
	}
	defer store.Close()

	query := &audit.Query{
		UserID: eventsFlags.user,
		TierID: eventsFlags.tier,
		Limit:  eventsFlags.limit,
		Offset: eventsFlags.offset,
	}
	if eventsFlags.eventType != "" {
		query.Type = quota.EventType(eventsFlags.eventType)
	}

	if eventsFlags.timeRange != "" {
		parts := strings.Split(eventsFlags.timeRange, "/")
		if len(parts) != 2 {
			return fmt.Errorf("invalid time range format (expected: start/end)")
		}

		startTime, err := time.Parse(time.RFC3339, parts[0])
		if err != nil {
			return fmt.Errorf("invalid start time: %w", err)
		}
		query.StartTime = &startTime

		endTime, err := time.Parse(time.RFC3339, parts[1])
		if err != nil {
			return fmt.Errorf("invalid end time: %w", err)
		}
		query.EndTime = &endTime
	}

	ctx := context.Background()
	events, err := store.Query(ctx, query)
	if err != nil {
		return cli.NewCommandError("events", fmt.Errorf("query failed: %w", err))
	}

	var output *os.File
	if eventsFlags.output != "" {
		output, err = os.Create(eventsFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	switch eventsFlags.format {
	case "json":
		return export.NewJSONExporter(cfg.Audit.Export.JSONPretty).Export(ctx, events, output)
	case "csv":
		return export.NewCSVExporter(cfg.Audit.Export.CSVIncludeHeader).Export(ctx, events, output)
	default:
		cli.RenderEvents(output, events, query)
		return nil
	}
}

func pruneEvents(cmd *cobra.Command, args []string) error {
	cfg, err := config.Init(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	store, err := buildAuditStorage(cfg)
	if err != nil {
		return cli.NewCommandError("events", fmt.Errorf("failed to create audit storage: %w", err))
	}
	defer store.Close()

	pruner := retention.NewPruner(store, &retention.Config{
		RetentionDays:       cfg.Audit.Retention.Days,
		PruneSchedule:       cfg.Audit.Retention.PruneSchedule,
		ArchiveBeforeDelete: cfg.Audit.Retention.ArchiveBeforeDelete,
		ArchivePath:         cfg.Audit.Retention.ArchivePath,
	})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		return cli.NewCommandError("events", fmt.Errorf("prune failed: %w", err))
	}

	fmt.Printf("✓ Pruned %d events older than %d days\n", deleted, cfg.Audit.Retention.Days)
	return nil
}
