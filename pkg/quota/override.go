package quota

import (
	"context"
	"log/slog"
	"time"
)

// OverrideResolver finds the override, if any, that applies to a user at a
// given instant. It never fails the request path: multiple simultaneously
// active overrides are a data-integrity violation that should have been
// rejected at write time, so the resolver recovers by picking the one with
// the latest ValidFrom and logging a warning.
type OverrideResolver struct {
	store  Store
	logger *slog.Logger
}

// NewOverrideResolver creates a resolver backed by the given store.
func NewOverrideResolver(store Store) *OverrideResolver {
	return &OverrideResolver{
		store:  store,
		logger: slog.Default().With("component", "quota.override"),
	}
}

// Resolve returns the active override for a user at the given instant, or
// nil if none applies. An override is active when it is enabled and
// validFrom <= now <= validUntil.
func (r *OverrideResolver) Resolve(ctx context.Context, userID string, now time.Time) (*Override, error) {
	overrides, err := r.store.ListOverridesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var active *Override
	count := 0
	for _, o := range overrides {
		if !o.Active(now) {
			continue
		}
		count++
		if active == nil || o.ValidFrom.After(active.ValidFrom) {
			active = o
		}
	}

	if count > 1 {
		r.logger.Warn("multiple active overrides for user, using latest valid_from",
			"user_id", userID,
			"active_count", count,
			"selected_override", active.OverrideID,
		)
	}

	return active, nil
}
