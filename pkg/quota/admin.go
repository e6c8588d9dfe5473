package quota

import (
	"context"
	"log/slog"
	"time"
)

// Admin is the validated write path for tiers, assignments, and overrides.
// All admin mutations flow through it so invariants are enforced at write
// time and never discovered mid-request.
type Admin struct {
	store  Store
	logger *slog.Logger
}

// NewAdmin creates an admin surface over the given store.
func NewAdmin(store Store) *Admin {
	return &Admin{
		store:  store,
		logger: slog.Default().With("component", "quota.admin"),
	}
}

// SaveTier validates and writes a tier. A downgrade tier without a budget
// model or with a threshold outside [0, 100) is rejected here.
func (a *Admin) SaveTier(ctx context.Context, tier *Tier) error {
	if err := ValidateTier(tier); err != nil {
		return err
	}

	now := time.Now()
	if tier.CreatedAt.IsZero() {
		tier.CreatedAt = now
	}
	tier.UpdatedAt = now

	if err := a.store.PutTier(ctx, tier); err != nil {
		return err
	}

	a.logger.Info("tier saved",
		"tier_id", tier.TierID,
		"action", string(tier.ActionOnLimit),
		"monthly_limit", tier.MonthlyCostLimit,
	)
	return nil
}

// DeleteTier removes a tier.
func (a *Admin) DeleteTier(ctx context.Context, tierID string) error {
	return a.store.DeleteTier(ctx, tierID)
}

// SaveAssignment validates and writes an assignment. The referenced tier
// must exist.
func (a *Admin) SaveAssignment(ctx context.Context, assignment *Assignment) error {
	if err := ValidateAssignment(assignment); err != nil {
		return err
	}

	if _, err := a.store.GetTier(ctx, assignment.TierID); err != nil {
		return err
	}

	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now()
	}

	if err := a.store.PutAssignment(ctx, assignment); err != nil {
		return err
	}

	a.logger.Info("assignment saved",
		"assignment_id", assignment.AssignmentID,
		"type", string(assignment.Type),
		"tier_id", assignment.TierID,
	)
	return nil
}

// DeleteAssignment removes an assignment.
func (a *Admin) DeleteAssignment(ctx context.Context, assignmentID string) error {
	return a.store.DeleteAssignment(ctx, assignmentID)
}

// SaveOverride validates and writes an override. An enabled override whose
// validity window overlaps another enabled override for the same user is
// rejected with a ConflictError: at most one override may ever be active
// for a user, and that invariant is enforced here rather than resolved by
// precedence at check time.
func (a *Admin) SaveOverride(ctx context.Context, override *Override) error {
	if err := ValidateOverride(override); err != nil {
		return err
	}

	if override.Enabled {
		existing, err := a.store.ListOverridesForUser(ctx, override.UserID)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if other.OverrideID == override.OverrideID || !other.Enabled {
				continue
			}
			if overlaps(override, other) {
				return &ConflictError{
					Entity:  "override",
					Key:     override.OverrideID,
					Message: "validity window overlaps override " + other.OverrideID,
				}
			}
		}
	}

	if override.CreatedAt.IsZero() {
		override.CreatedAt = time.Now()
	}

	if err := a.store.PutOverride(ctx, override); err != nil {
		return err
	}

	a.logger.Info("override saved",
		"override_id", override.OverrideID,
		"user_id", override.UserID,
		"type", string(override.Type),
		"valid_until", override.ValidUntil,
	)
	return nil
}

// DeleteOverride removes an override.
func (a *Admin) DeleteOverride(ctx context.Context, overrideID string) error {
	return a.store.DeleteOverride(ctx, overrideID)
}

// ValidateDeployment checks startup invariants: at least one enabled
// default tier must exist. Returns a NotFoundError otherwise; running
// without a default tier would fail every unassigned user's check.
func (a *Admin) ValidateDeployment(ctx context.Context) error {
	defaults, err := a.store.ListAssignmentsByType(ctx, AssignmentDefault)
	if err != nil {
		return err
	}

	for _, d := range defaults {
		if !d.Enabled {
			continue
		}
		tier, err := a.store.GetTier(ctx, d.TierID)
		if err == nil && tier.Enabled {
			return nil
		}
	}
	return &NotFoundError{Entity: "default_tier"}
}
