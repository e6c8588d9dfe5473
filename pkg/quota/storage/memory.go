package storage

import (
	"context"
	"sort"
	"sync"

	"solara-hq/quotient/pkg/quota"
)

// MemoryBackend implements quota.Store with in-process maps. All entities
// are copied on the way in and out, so callers can never mutate stored
// state through aliased pointers.
type MemoryBackend struct {
	mu          sync.RWMutex
	tiers       map[string]*quota.Tier
	assignments map[string]*quota.Assignment
	overrides   map[string]*quota.Override
}

// NewMemoryBackend creates an empty in-memory store.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		tiers:       make(map[string]*quota.Tier),
		assignments: make(map[string]*quota.Assignment),
		overrides:   make(map[string]*quota.Override),
	}
}

// GetTier returns the tier with the given ID.
func (m *MemoryBackend) GetTier(ctx context.Context, tierID string) (*quota.Tier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tier, ok := m.tiers[tierID]
	if !ok {
		return nil, &quota.NotFoundError{Entity: "tier", Key: tierID}
	}
	copied := *tier
	return &copied, nil
}

// PutTier creates or replaces a tier.
func (m *MemoryBackend) PutTier(ctx context.Context, tier *quota.Tier) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *tier
	m.tiers[tier.TierID] = &copied
	return nil
}

// DeleteTier removes a tier.
func (m *MemoryBackend) DeleteTier(ctx context.Context, tierID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tiers, tierID)
	return nil
}

// ListTiers returns all tiers ordered by tier ID.
func (m *MemoryBackend) ListTiers(ctx context.Context) ([]*quota.Tier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tiers := make([]*quota.Tier, 0, len(m.tiers))
	for _, tier := range m.tiers {
		copied := *tier
		tiers = append(tiers, &copied)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].TierID < tiers[j].TierID })
	return tiers, nil
}

// GetUserAssignment returns the direct-user assignment for a user, or nil.
func (m *MemoryBackend) GetUserAssignment(ctx context.Context, userID string) (*quota.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.assignments {
		if a.Type == quota.AssignmentDirectUser && a.Subject == userID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

// ListRoleAssignments returns all assignments for a JWT role.
func (m *MemoryBackend) ListRoleAssignments(ctx context.Context, role string) ([]*quota.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []*quota.Assignment
	for _, a := range m.assignments {
		if a.Type == quota.AssignmentJWTRole && a.Subject == role {
			copied := *a
			matches = append(matches, &copied)
		}
	}
	return matches, nil
}

// ListAssignmentsByType returns all assignments of the given type, ordered
// by priority descending.
func (m *MemoryBackend) ListAssignmentsByType(ctx context.Context, typ quota.AssignmentType) ([]*quota.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []*quota.Assignment
	for _, a := range m.assignments {
		if a.Type == typ {
			copied := *a
			matches = append(matches, &copied)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Priority != matches[j].Priority {
			return matches[i].Priority > matches[j].Priority
		}
		return matches[i].AssignmentID < matches[j].AssignmentID
	})
	return matches, nil
}

// PutAssignment creates or replaces an assignment.
func (m *MemoryBackend) PutAssignment(ctx context.Context, a *quota.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *a
	m.assignments[a.AssignmentID] = &copied
	return nil
}

// DeleteAssignment removes an assignment.
func (m *MemoryBackend) DeleteAssignment(ctx context.Context, assignmentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.assignments, assignmentID)
	return nil
}

// ListOverridesForUser returns all overrides for a user.
func (m *MemoryBackend) ListOverridesForUser(ctx context.Context, userID string) ([]*quota.Override, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []*quota.Override
	for _, o := range m.overrides {
		if o.UserID == userID {
			copied := *o
			matches = append(matches, &copied)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].OverrideID < matches[j].OverrideID })
	return matches, nil
}

// PutOverride creates or replaces an override.
func (m *MemoryBackend) PutOverride(ctx context.Context, o *quota.Override) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *o
	m.overrides[o.OverrideID] = &copied
	return nil
}

// DeleteOverride removes an override.
func (m *MemoryBackend) DeleteOverride(ctx context.Context, overrideID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.overrides, overrideID)
	return nil
}

// Close is a no-op for the memory backend.
func (m *MemoryBackend) Close() error {
	return nil
}
