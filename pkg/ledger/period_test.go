package ledger

import (
	"testing"
	"time"
)

func TestPeriodKeys(t *testing.T) {
	instant := time.Date(2026, time.August, 15, 23, 30, 0, 0, time.UTC)

	if got := MonthlyKey(instant); got != "2026-08" {
		t.Errorf("MonthlyKey: expected 2026-08, got %s", got)
	}
	if got := DailyKey(instant); got != "2026-08-15" {
		t.Errorf("DailyKey: expected 2026-08-15, got %s", got)
	}
}

func TestPeriodKeys_NormalizeToUTC(t *testing.T) {
	// 23:30 on Aug 15 in UTC-5 is already Aug 16 in UTC.
	est := time.FixedZone("EST", -5*60*60)
	instant := time.Date(2026, time.August, 15, 23, 30, 0, 0, est)

	if got := DailyKey(instant); got != "2026-08-16" {
		t.Errorf("expected UTC day boundary 2026-08-16, got %s", got)
	}

	// 23:30 on Jul 31 in UTC-5 has already rolled the UTC month.
	instant = time.Date(2026, time.July, 31, 23, 30, 0, 0, est)
	if got := MonthlyKey(instant); got != "2026-08" {
		t.Errorf("expected UTC month boundary 2026-08, got %s", got)
	}
}

func TestIsDailyKey(t *testing.T) {
	if !IsDailyKey("2026-08-15") {
		t.Error("expected 2026-08-15 to be a daily key")
	}
	if IsDailyKey("2026-08") {
		t.Error("expected 2026-08 not to be a daily key")
	}
}
