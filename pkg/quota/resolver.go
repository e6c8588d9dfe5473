package quota

import (
	"context"
	"log/slog"
	"sort"
)

// assignmentPrecedence is the order in which assignment types are consulted.
// Earlier entries win over later ones regardless of priority values.
var assignmentPrecedence = []AssignmentType{
	AssignmentDirectUser,
	AssignmentJWTRole,
	AssignmentEmailDomain,
	AssignmentDefault,
}

// AssignmentResolver maps a user to a candidate tier by walking the
// assignment precedence chain. It is a pure function of the user and the
// current assignment set; it performs no writes and keeps no state.
type AssignmentResolver struct {
	store  Store
	logger *slog.Logger
}

// NewAssignmentResolver creates a resolver backed by the given store.
func NewAssignmentResolver(store Store) *AssignmentResolver {
	return &AssignmentResolver{
		store:  store,
		logger: slog.Default().With("component", "quota.resolver"),
	}
}

// Resolution is the outcome of assignment resolution.
type Resolution struct {
	Tier       *Tier
	Assignment *Assignment
	MatchedBy  MatchedBy
}

// Resolve finds the effective tier for a user.
//
// Precedence: direct user assignment, then JWT role assignments (highest
// priority wins, ties broken by lexicographically smallest tier ID), then
// email-domain assignments, then the system default tier. Disabled
// assignments and assignments pointing at disabled or missing tiers are
// skipped rather than treated as errors.
//
// Resolve fails with a NotFoundError only when no enabled default tier
// exists, which is a configuration error.
func (r *AssignmentResolver) Resolve(ctx context.Context, user User) (*Resolution, error) {
	// 1. Direct user assignment.
	direct, err := r.store.GetUserAssignment(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if direct != nil && direct.Enabled {
		if tier := r.lookupTier(ctx, direct.TierID); tier != nil {
			return &Resolution{Tier: tier, Assignment: direct, MatchedBy: MatchedByDirectUser}, nil
		}
	}

	// 2. JWT role assignments across all of the user's roles.
	if len(user.Roles) > 0 {
		var candidates []*Assignment
		for _, role := range user.Roles {
			assignments, err := r.store.ListRoleAssignments(ctx, role)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, assignments...)
		}

		sortAssignments(candidates)
		for _, a := range candidates {
			if !a.Enabled {
				continue
			}
			if tier := r.lookupTier(ctx, a.TierID); tier != nil {
				return &Resolution{Tier: tier, Assignment: a, MatchedBy: MatchedByJWTRole}, nil
			}
		}
	}

	// 3. Email-domain assignments.
	if user.EmailDomain != "" {
		domains, err := r.store.ListAssignmentsByType(ctx, AssignmentEmailDomain)
		if err != nil {
			return nil, err
		}

		sortAssignments(domains)
		for _, a := range domains {
			if !a.Enabled || !MatchEmailDomain(user.EmailDomain, a.Subject) {
				continue
			}
			if tier := r.lookupTier(ctx, a.TierID); tier != nil {
				return &Resolution{Tier: tier, Assignment: a, MatchedBy: MatchedByEmailDomain}, nil
			}
		}
	}

	// 4. Default tier.
	defaults, err := r.store.ListAssignmentsByType(ctx, AssignmentDefault)
	if err != nil {
		return nil, err
	}

	sortAssignments(defaults)
	for _, a := range defaults {
		if !a.Enabled {
			continue
		}
		if tier := r.lookupTier(ctx, a.TierID); tier != nil {
			return &Resolution{Tier: tier, Assignment: a, MatchedBy: MatchedByDefault}, nil
		}
	}

	r.logger.Warn("no default tier configured", "user_id", user.ID)
	return nil, &NotFoundError{Entity: "default_tier"}
}

// lookupTier fetches a tier and filters out disabled or missing ones.
// Store failures are propagated as nil here; the caller falls through to
// the next precedence step, and a genuinely broken store will surface on
// the default-tier lookup.
func (r *AssignmentResolver) lookupTier(ctx context.Context, tierID string) *Tier {
	tier, err := r.store.GetTier(ctx, tierID)
	if err != nil {
		if !IsNotFound(err) {
			r.logger.Warn("tier lookup failed", "tier_id", tierID, "error", err)
		}
		return nil
	}
	if !tier.Enabled {
		return nil
	}
	return tier
}

// sortAssignments orders assignments by priority descending, with ties
// broken by lexicographically smallest tier ID for determinism.
func sortAssignments(assignments []*Assignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		if assignments[i].Priority != assignments[j].Priority {
			return assignments[i].Priority > assignments[j].Priority
		}
		return assignments[i].TierID < assignments[j].TierID
	})
}
