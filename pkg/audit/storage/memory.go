package storage

import (
	"context"
	"sort"
	"sync"

	"solara-hq/quotient/pkg/audit"
)

// MemoryStorage implements audit.Storage with an in-memory slice.
// Intended for tests and ephemeral deployments.
type MemoryStorage struct {
	mu     sync.RWMutex
	events []*audit.Event
}

// NewMemoryStorage creates an empty in-memory audit store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Store appends an event.
func (m *MemoryStorage) Store(ctx context.Context, event *audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *event
	m.events = append(m.events, &copied)
	return nil
}

// Query returns events matching the filters, newest first.
func (m *MemoryStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Event, error) {
	m.mu.RLock()
	matched := m.match(query)
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	offset := 0
	if query != nil && query.Offset > 0 {
		offset = query.Offset
	}
	if offset >= len(matched) {
		return []*audit.Event{}, nil
	}
	matched = matched[offset:]

	limit := 100
	if query != nil && query.Limit > 0 {
		limit = query.Limit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*audit.Event, len(matched))
	for i, e := range matched {
		copied := *e
		out[i] = &copied
	}
	return out, nil
}

// Count returns the number of events matching the filters.
func (m *MemoryStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.match(query))), nil
}

// Delete removes events matching the filters.
func (m *MemoryStorage) Delete(ctx context.Context, query *audit.Query) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.events[:0]
	var deleted int64
	for _, e := range m.events {
		if matches(e, query) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return deleted, nil
}

// Close is a no-op for the in-memory backend.
func (m *MemoryStorage) Close() error {
	return nil
}

// match returns pointers to stored events matching the query filters.
// Caller must hold at least the read lock.
func (m *MemoryStorage) match(query *audit.Query) []*audit.Event {
	var matched []*audit.Event
	for _, e := range m.events {
		if matches(e, query) {
			matched = append(matched, e)
		}
	}
	return matched
}

func matches(e *audit.Event, query *audit.Query) bool {
	if query == nil {
		return true
	}
	if query.UserID != "" && e.UserID != query.UserID {
		return false
	}
	if query.TierID != "" && e.TierID != query.TierID {
		return false
	}
	if query.Type != "" && e.Type != query.Type {
		return false
	}
	if query.StartTime != nil && e.Timestamp.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && e.Timestamp.After(*query.EndTime) {
		return false
	}
	return true
}
