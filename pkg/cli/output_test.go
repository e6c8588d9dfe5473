package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"solara-hq/quotient/pkg/audit"
	"solara-hq/quotient/pkg/quota"
)

func TestWriteJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	tier := &quota.Tier{TierID: "pro", TierName: "Pro", MonthlyCostLimit: 250}

	if err := WriteJSON(buf, tier); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var decoded quota.Tier
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.TierID != "pro" || decoded.MonthlyCostLimit != 250 {
		t.Errorf("round trip mismatch: %+v", decoded)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("expected indented output")
	}
}

func TestRenderTiers(t *testing.T) {
	buf := &bytes.Buffer{}
	RenderTiers(buf, []*quota.Tier{
		{TierID: "free", TierName: "Free", MonthlyCostLimit: 10, ActionOnLimit: quota.ActionBlock, Enabled: true},
		{TierID: "pro", TierName: "Pro", MonthlyCostLimit: 250, DailyCostLimit: 25, ActionOnLimit: quota.ActionDowngrade},
	})

	out := buf.String()
	if !strings.Contains(out, "free") || !strings.Contains(out, "monthly=$10.00") {
		t.Errorf("missing free tier line: %q", out)
	}
	if !strings.Contains(out, "daily=$25.00") || !strings.Contains(out, "action=downgrade") {
		t.Errorf("missing pro tier fields: %q", out)
	}
	if !strings.Contains(out, "(disabled)") {
		t.Errorf("disabled tier not marked: %q", out)
	}
}

func TestRenderTiers_Empty(t *testing.T) {
	buf := &bytes.Buffer{}
	RenderTiers(buf, nil)
	if !strings.Contains(buf.String(), "No tiers deployed") {
		t.Errorf("expected empty notice, got %q", buf.String())
	}
}

func TestRenderInspection(t *testing.T) {
	buf := &bytes.Buffer{}
	RenderInspection(buf, &quota.Inspection{
		UserID:    "alice",
		MatchedBy: quota.MatchedByDefault,
		Tier:      &quota.Tier{TierID: "free", TierName: "Free"},
		Usage: map[quota.PeriodType]quota.WindowUsage{
			quota.PeriodMonthly: {CurrentUsage: 42, Limit: 100, PercentageUsed: 42, Remaining: 58},
			quota.PeriodDaily:   {CurrentUsage: 9, Limit: 10, PercentageUsed: 90, Remaining: 1},
		},
		Governing: quota.PeriodDaily,
	})

	out := buf.String()
	if !strings.Contains(out, "User:       alice") {
		t.Errorf("missing user line: %q", out)
	}
	if !strings.Contains(out, "Tier:       free (Free)") {
		t.Errorf("missing tier line: %q", out)
	}

	// Monthly renders before daily, and only the daily window is marked.
	monthlyAt := strings.Index(out, "monthly")
	dailyAt := strings.Index(out, "daily")
	if monthlyAt < 0 || dailyAt < 0 || monthlyAt > dailyAt {
		t.Errorf("expected monthly before daily: %q", out)
	}
	if strings.Count(out, "<- governing") != 1 {
		t.Errorf("expected exactly one governing marker: %q", out)
	}
	if !strings.Contains(out, "daily     $9.0000 of $10.00  (90.0%, $1.0000 remaining)  <- governing") {
		t.Errorf("governing marker on wrong window: %q", out)
	}
}

func TestRenderInspection_Override(t *testing.T) {
	buf := &bytes.Buffer{}
	RenderInspection(buf, &quota.Inspection{
		UserID:    "alice",
		MatchedBy: quota.MatchedByOverride,
		Override:  &quota.Override{OverrideID: "hackathon", Type: quota.OverrideUnlimited},
	})

	if !strings.Contains(buf.String(), "Override:   hackathon (unlimited)") {
		t.Errorf("missing override line: %q", buf.String())
	}
}

func TestRenderEvents(t *testing.T) {
	ts := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)
	start := ts.Add(-time.Hour)
	end := ts.Add(time.Hour)

	buf := &bytes.Buffer{}
	RenderEvents(buf, []*audit.Event{
		{
			Timestamp:      ts,
			Type:           quota.EventBlock,
			UserID:         "alice",
			TierID:         "free",
			PercentageUsed: 105,
			CurrentUsage:   10.5,
			QuotaLimit:     10,
		},
	}, &audit.Query{StartTime: &start, EndTime: &end})

	out := buf.String()
	if !strings.Contains(out, "Time range: 2026-08-15T11:00:00Z to 2026-08-15T13:00:00Z") {
		t.Errorf("missing time range header: %q", out)
	}
	if !strings.Contains(out, "Total events: 1") {
		t.Errorf("missing total line: %q", out)
	}
	if !strings.Contains(out, "user=alice") || !strings.Contains(out, "105.00% ($10.5000 of $10.00)") {
		t.Errorf("missing event line fields: %q", out)
	}
}

func TestRenderEvents_Empty(t *testing.T) {
	buf := &bytes.Buffer{}
	RenderEvents(buf, nil, &audit.Query{})
	if !strings.Contains(buf.String(), "No events found") {
		t.Errorf("expected empty notice, got %q", buf.String())
	}
}
