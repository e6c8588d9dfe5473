package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"solara-hq/quotient/pkg/audit"
	"solara-hq/quotient/pkg/quota"
)

// WriteJSON writes v to w as indented JSON. Commands use it for their
// --format json output so machine consumers get one stable shape.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RenderTiers writes one line per deployed tier.
func RenderTiers(w io.Writer, tiers []*quota.Tier) {
	if len(tiers) == 0 {
		fmt.Fprintln(w, "No tiers deployed.")
		return
	}

	for _, tier := range tiers {
		state := ""
		if !tier.Enabled {
			state = "  (disabled)"
		}
		fmt.Fprintf(w, "%-20s  %-24s  monthly=$%.2f  daily=$%.2f  action=%s%s\n",
			tier.TierID, tier.TierName, tier.MonthlyCostLimit, tier.DailyCostLimit,
			tier.ActionOnLimit, state)
	}
}

// RenderInspection writes the resolved quota picture for one user: how the
// policy matched, then each evaluated window with the governing one marked.
func RenderInspection(w io.Writer, inspection *quota.Inspection) {
	fmt.Fprintf(w, "User:       %s\n", inspection.UserID)
	fmt.Fprintf(w, "Matched by: %s\n", inspection.MatchedBy)
	if inspection.Tier != nil {
		fmt.Fprintf(w, "Tier:       %s (%s)\n", inspection.Tier.TierID, inspection.Tier.TierName)
	}
	if inspection.Override != nil {
		fmt.Fprintf(w, "Override:   %s (%s)\n", inspection.Override.OverrideID, inspection.Override.Type)
	}
	fmt.Fprintln(w)

	for _, period := range []quota.PeriodType{quota.PeriodMonthly, quota.PeriodDaily} {
		usage, ok := inspection.Usage[period]
		if !ok {
			continue
		}
		governing := ""
		if period == inspection.Governing {
			governing = "  <- governing"
		}
		fmt.Fprintf(w, "%-8s  $%.4f of $%.2f  (%.1f%%, $%.4f remaining)%s\n",
			period, usage.CurrentUsage, usage.Limit, usage.PercentageUsed,
			usage.Remaining, governing)
	}
}

// RenderEvents writes an audit event listing, newest first as queried, with
// the query's time range echoed when one was set.
func RenderEvents(w io.Writer, events []*audit.Event, query *audit.Query) {
	if query != nil && query.StartTime != nil && query.EndTime != nil {
		fmt.Fprintf(w, "Time range: %s to %s\n",
			query.StartTime.Format(time.RFC3339),
			query.EndTime.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Total events: %d\n\n", len(events))

	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}

	for _, event := range events {
		fmt.Fprintf(w, "%s  %-17s  user=%s  tier=%s  %.2f%% ($%.4f of $%.2f)\n",
			event.Timestamp.Format(time.RFC3339),
			event.Type,
			event.UserID,
			event.TierID,
			event.PercentageUsed,
			event.CurrentUsage,
			event.QuotaLimit,
		)
	}
}
