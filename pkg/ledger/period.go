package ledger

import "time"

// Period key layouts. Keys sort chronologically as strings, which keeps
// per-user period listings in accounting order.
const (
	monthlyLayout = "2006-01"
	dailyLayout   = "2006-01-02"
)

// MonthlyKey returns the monthly period key for an instant, in UTC.
func MonthlyKey(t time.Time) string {
	return t.UTC().Format(monthlyLayout)
}

// DailyKey returns the daily period key for an instant, in UTC.
func DailyKey(t time.Time) string {
	return t.UTC().Format(dailyLayout)
}

// IsDailyKey reports whether key encodes a daily period.
func IsDailyKey(key string) bool {
	return len(key) == len(dailyLayout)
}
