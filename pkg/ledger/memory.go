package ledger

import (
	"context"
	"sort"
	"sync"
)

// MemoryLedger implements Ledger with in-process counters. It is the
// default for tests and single-instance deployments that do not need
// persistence across restarts.
type MemoryLedger struct {
	mu sync.RWMutex

	// usage maps userID -> periodKey -> amount.
	usage map[string]map[string]float64
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		usage: make(map[string]map[string]float64),
	}
}

// Read returns the current usage for a user and period.
func (l *MemoryLedger) Read(ctx context.Context, userID, periodKey string) (float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.usage[userID][periodKey], nil
}

// Increment atomically adds delta and returns the new total.
func (l *MemoryLedger) Increment(ctx context.Context, userID, periodKey string, delta float64) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	periods, ok := l.usage[userID]
	if !ok {
		periods = make(map[string]float64)
		l.usage[userID] = periods
	}

	periods[periodKey] += delta
	return periods[periodKey], nil
}

// ReconcileSet sets the counter to an absolute value.
func (l *MemoryLedger) ReconcileSet(ctx context.Context, userID, periodKey string, amount float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	periods, ok := l.usage[userID]
	if !ok {
		periods = make(map[string]float64)
		l.usage[userID] = periods
	}

	periods[periodKey] = amount
	return nil
}

// Periods returns all period keys with recorded usage for a user, sorted.
func (l *MemoryLedger) Periods(ctx context.Context, userID string) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	periods := make([]string, 0, len(l.usage[userID]))
	for key := range l.usage[userID] {
		periods = append(periods, key)
	}
	sort.Strings(periods)
	return periods, nil
}

// Close is a no-op for the memory ledger.
func (l *MemoryLedger) Close() error {
	return nil
}
