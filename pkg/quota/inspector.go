package quota

import (
	"context"
	"time"
)

// Inspection is the fully resolved quota picture for one user, meant for
// support and debugging tooling rather than the request path.
type Inspection struct {
	UserID    string    `json:"user_id"`
	MatchedBy MatchedBy `json:"matched_by"`

	Tier     *Tier     `json:"tier,omitempty"`
	Override *Override `json:"override,omitempty"`

	// Usage per evaluated window, keyed by period type.
	Usage map[PeriodType]WindowUsage `json:"usage"`

	// Governing is the window closest to breach.
	Governing PeriodType `json:"governing"`
}

// WindowUsage is the measured state of one accounting window.
type WindowUsage struct {
	PeriodKey      string  `json:"period_key"`
	Limit          float64 `json:"limit"`
	CurrentUsage   float64 `json:"current_usage"`
	PercentageUsed float64 `json:"percentage_used"`
	Remaining      float64 `json:"remaining"`
}

// Inspector answers diagnostic lookups: which tier a user resolves to,
// through which precedence step, whether an override applies, and how much
// of each window is consumed.
type Inspector struct {
	assignments *AssignmentResolver
	overrides   *OverrideResolver
	usage       UsageReader
}

// NewInspector creates an inspector over the given store and usage reader.
func NewInspector(store Store, usage UsageReader) *Inspector {
	return &Inspector{
		assignments: NewAssignmentResolver(store),
		overrides:   NewOverrideResolver(store),
		usage:       usage,
	}
}

// Inspect resolves the full quota state for a user at the given instant.
// Unlike Check it propagates store errors: diagnostics should see
// failures, not a failure-policy result.
func (i *Inspector) Inspect(ctx context.Context, user User, now time.Time) (*Inspection, error) {
	inspection := &Inspection{
		UserID: user.ID,
		Usage:  make(map[PeriodType]WindowUsage),
	}

	override, err := i.overrides.Resolve(ctx, user.ID, now)
	if err != nil {
		return nil, err
	}
	inspection.Override = override

	res, err := i.assignments.Resolve(ctx, user)
	if err != nil && !IsNotFound(err) {
		return nil, err
	}
	if res != nil {
		inspection.Tier = res.Tier
		inspection.MatchedBy = res.MatchedBy
	}

	var windows []window
	switch {
	case override != nil && override.Type == OverrideUnlimited:
		inspection.MatchedBy = MatchedByOverride
		return inspection, nil
	case override != nil && override.Type == OverrideCustomLimit:
		inspection.MatchedBy = MatchedByOverride
		windows = overrideWindows(override)
	case res != nil:
		windows = tierWindows(res.Tier)
	default:
		return inspection, nil
	}

	for idx := range windows {
		key := periodKey(windows[idx].period, now)
		usage, err := i.usage.Read(ctx, user.ID, key)
		if err != nil {
			return nil, err
		}
		windows[idx].usage = usage

		remaining := windows[idx].limit - usage
		if remaining < 0 {
			remaining = 0
		}
		inspection.Usage[windows[idx].period] = WindowUsage{
			PeriodKey:      key,
			Limit:          windows[idx].limit,
			CurrentUsage:   usage,
			PercentageUsed: windows[idx].percentage(),
			Remaining:      remaining,
		}
	}

	if governing, ok := mostRestrictive(windows); ok {
		inspection.Governing = governing.period
	}
	return inspection, nil
}
