package quota

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"solara-hq/quotient/pkg/ledger"
)

// CheckerConfig configures the quota checker.
type CheckerConfig struct {
	// Disabled turns enforcement off entirely: every check is allowed
	// without resolving policy or reading usage.
	Disabled bool

	// FailurePolicy decides the outcome when the usage store or policy
	// store is unavailable during a check. Default: FailOpen.
	FailurePolicy FailurePolicy

	// Metrics receives check observations. Optional.
	Metrics *Metrics
}

// Checker composes the resolvers, the usage ledger, and the event sink into
// one quota decision per request.
//
// Check is stateless with respect to enforcement: no "currently downgraded"
// flag exists anywhere, every call re-derives the decision from the current
// counters. Repeated checks without an intervening ledger increment return
// identical results.
type Checker struct {
	assignments *AssignmentResolver
	overrides   *OverrideResolver
	usage       UsageReader
	events      EventSink
	config      CheckerConfig
	logger      *slog.Logger

	// overrideSeen dedupes override_applied events: one per override,
	// user, and monthly period.
	overrideSeen sync.Map // map[string]struct{}
}

// NewChecker creates a quota checker over the given policy store, usage
// reader, and event sink. events may be nil, in which case no audit events
// are emitted.
func NewChecker(store Store, usage UsageReader, events EventSink, config CheckerConfig) *Checker {
	if config.FailurePolicy == "" {
		config.FailurePolicy = FailOpen
	}

	return &Checker{
		assignments: NewAssignmentResolver(store),
		overrides:   NewOverrideResolver(store),
		usage:       usage,
		events:      events,
		config:      config,
		logger:      slog.Default().With("component", "quota.checker"),
	}
}

// window is one (accounting period, limit) pair under evaluation.
type window struct {
	period PeriodType
	limit  float64
	usage  float64
}

func (w window) percentage() float64 {
	if w.limit <= 0 {
		return 100
	}
	return w.usage / w.limit * 100
}

// Check evaluates the quota state machine for one request.
//
// modelID is the model the request would use absent any downgrade; it is
// echoed back as OriginalModelID so the chat pipeline can substitute the
// budget model when IsDowngraded is set.
//
// Check returns an error only for configuration failures (no default
// tier). Store unavailability is absorbed by the configured failure
// policy and reported through the result.
func (c *Checker) Check(ctx context.Context, user User, sessionID, modelID string, now time.Time) (*CheckResult, error) {
	start := time.Now()
	defer func() {
		if c.config.Metrics != nil {
			c.config.Metrics.RecordCheckDuration(time.Since(start).Seconds())
		}
	}()

	if c.config.Disabled {
		return &CheckResult{
			Allowed:         true,
			OriginalModelID: modelID,
		}, nil
	}

	// 1. Override short-circuit.
	override, err := c.overrides.Resolve(ctx, user.ID, now)
	if err != nil {
		return c.failurePolicyResult(user, modelID, "override resolution", err), nil
	}

	if override != nil && override.Type == OverrideUnlimited {
		c.recordOverrideApplied(user, sessionID, override, now)
		return &CheckResult{
			Allowed:         true,
			TierID:          override.OverrideID,
			TierName:        "Unlimited Override",
			PercentageUsed:  0,
			MatchedBy:       MatchedByOverride,
			OriginalModelID: modelID,
		}, nil
	}

	// 2. Tier resolution. A custom-limit override replaces the limits but
	// keeps the tier's action semantics, so the tier is resolved either way.
	res, err := c.assignments.Resolve(ctx, user)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return c.failurePolicyResult(user, modelID, "assignment resolution", err), nil
	}
	tier := res.Tier

	matchedBy := res.MatchedBy
	windows := tierWindows(tier)
	if override != nil && override.Type == OverrideCustomLimit {
		matchedBy = MatchedByOverride
		windows = overrideWindows(override)
		c.recordOverrideApplied(user, sessionID, override, now)
	}

	// 3. Read usage for every window; the one closest to breach governs.
	for i := range windows {
		key := periodKey(windows[i].period, now)
		usage, err := c.usage.Read(ctx, user.ID, key)
		if err != nil {
			return c.failurePolicyResult(user, modelID, "usage read", err), nil
		}
		windows[i].usage = usage
	}

	governing, ok := mostRestrictive(windows)
	if !ok || governing.limit <= 0 {
		// A zero or missing limit is a configuration error that should
		// have been rejected at write time; treat as always blocked
		// rather than dividing by zero.
		c.logger.Error("tier has no usable limit, blocking",
			"user_id", user.ID,
			"tier_id", tier.TierID,
		)
		result := c.newResult(tier, governing, matchedBy, modelID)
		result.Allowed = false
		result.Remaining = 0
		result.Message = "quota misconfigured: no usable limit"
		c.observe(tier.ActionOnLimit, result, user)
		return result, nil
	}

	// 4. Apply the tier's action.
	result := c.newResult(tier, governing, matchedBy, modelID)
	switch tier.ActionOnLimit {
	case ActionBlock:
		c.applyBlock(result, tier, governing, user, sessionID)
	case ActionWarn:
		c.applyWarn(result, tier, governing, user, sessionID)
	case ActionDowngrade:
		c.applyDowngrade(result, tier, governing, user, sessionID, modelID)
	default:
		// Unknown actions cannot reach here through the validated write
		// path; block rather than silently allow.
		result.Allowed = false
		result.Remaining = 0
		result.Message = fmt.Sprintf("unknown enforcement action %q", tier.ActionOnLimit)
	}

	c.observe(tier.ActionOnLimit, result, user)
	return result, nil
}

// applyBlock implements the block action: reject at 100%, warn at the soft
// limit, otherwise allow silently.
func (c *Checker) applyBlock(result *CheckResult, tier *Tier, w window, user User, sessionID string) {
	pct := w.percentage()
	switch {
	case pct >= 100:
		result.Allowed = false
		result.Remaining = 0
		result.Message = fmt.Sprintf("%s quota exceeded: $%.2f of $%.2f used", w.period, w.usage, w.limit)
		c.record(user, tier, EventBlock, w, sessionID, nil)

	case pct >= tier.SoftLimitPercentage:
		result.Allowed = true
		result.WarningLevel = formatPercent(tier.SoftLimitPercentage)
		result.Message = fmt.Sprintf("approaching %s quota: %.1f%% used", w.period, pct)
		c.record(user, tier, EventWarning, w, sessionID, map[string]string{
			"soft_limit": result.WarningLevel,
		})

	default:
		result.Allowed = true
	}
}

// applyWarn implements the warn action: enforcement is descriptive only and
// the request is never rejected, even past 100%.
func (c *Checker) applyWarn(result *CheckResult, tier *Tier, w window, user User, sessionID string) {
	result.Allowed = true
	if pct := w.percentage(); pct >= tier.SoftLimitPercentage {
		result.WarningLevel = formatPercent(tier.SoftLimitPercentage)
		result.Message = fmt.Sprintf("approaching %s quota: %.1f%% used", w.period, pct)
		c.record(user, tier, EventWarning, w, sessionID, map[string]string{
			"soft_limit": result.WarningLevel,
		})
	}
}

// applyDowngrade implements the downgrade action. The hard stop overrides
// the downgrade: at 100% the request is blocked, not served by the budget
// model.
func (c *Checker) applyDowngrade(result *CheckResult, tier *Tier, w window, user User, sessionID, modelID string) {
	pct := w.percentage()
	switch {
	case pct >= 100:
		result.Allowed = false
		result.Remaining = 0
		result.IsDowngraded = false
		result.Message = fmt.Sprintf("%s quota exceeded: $%.2f of $%.2f used", w.period, w.usage, w.limit)
		c.record(user, tier, EventBlock, w, sessionID, nil)

	case pct >= tier.DowngradeThreshold:
		result.Allowed = true
		result.IsDowngraded = true
		result.DowngradeModelID = tier.BudgetModelID
		result.Message = fmt.Sprintf("budget model in effect: %.1f%% of %s quota used", pct, w.period)
		c.record(user, tier, EventDowngrade, w, sessionID, map[string]string{
			"budget_model":        tier.BudgetModelID,
			"downgrade_threshold": formatPercent(tier.DowngradeThreshold),
			"original_model":      modelID,
		})

	default:
		result.Allowed = true
	}
}

// newResult seeds a CheckResult with the governing window's measurements.
func (c *Checker) newResult(tier *Tier, w window, matchedBy MatchedBy, modelID string) *CheckResult {
	remaining := w.limit - w.usage
	if remaining < 0 {
		remaining = 0
	}

	return &CheckResult{
		TierID:          tier.TierID,
		TierName:        tier.TierName,
		Limit:           w.limit,
		Period:          w.period,
		CurrentUsage:    w.usage,
		PercentageUsed:  w.percentage(),
		Remaining:       remaining,
		MatchedBy:       matchedBy,
		OriginalModelID: modelID,
	}
}

// failurePolicyResult produces the configured outcome when a store is
// unavailable mid-check. Fail-open admits the request because blocking
// legitimate users on an infrastructure hiccup costs more than a bounded
// temporary overspend; fail-closed rejects it.
func (c *Checker) failurePolicyResult(user User, modelID, operation string, err error) *CheckResult {
	c.logger.Warn("quota store unavailable during check",
		"user_id", user.ID,
		"operation", operation,
		"policy", string(c.config.FailurePolicy),
		"error", err,
	)
	if c.config.Metrics != nil {
		c.config.Metrics.RecordStoreFailure(c.config.FailurePolicy)
	}

	if c.config.FailurePolicy == FailClosed {
		return &CheckResult{
			Allowed:         false,
			Message:         "quota check unavailable, request rejected",
			OriginalModelID: modelID,
		}
	}
	return &CheckResult{
		Allowed:         true,
		Message:         "quota check unavailable, request admitted",
		OriginalModelID: modelID,
	}
}

// record emits a decision event. Recording is fire-and-forget; a nil sink
// disables it.
func (c *Checker) record(user User, tier *Tier, typ EventType, w window, sessionID string, metadata map[string]string) {
	if c.events == nil {
		return
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadata["period"] = string(w.period)

	c.events.Record(&DecisionEvent{
		UserID:         user.ID,
		TierID:         tier.TierID,
		Type:           typ,
		CurrentUsage:   w.usage,
		QuotaLimit:     w.limit,
		PercentageUsed: w.percentage(),
		SessionID:      sessionID,
		Metadata:       metadata,
	})
}

// recordOverrideApplied emits override_applied at most once per override,
// user, and monthly period.
func (c *Checker) recordOverrideApplied(user User, sessionID string, o *Override, now time.Time) {
	if c.events == nil {
		return
	}

	key := user.ID + "|" + o.OverrideID + "|" + ledger.MonthlyKey(now)
	if _, seen := c.overrideSeen.LoadOrStore(key, struct{}{}); seen {
		return
	}

	c.events.Record(&DecisionEvent{
		UserID:    user.ID,
		TierID:    o.OverrideID,
		Type:      EventOverrideApplied,
		SessionID: sessionID,
		Metadata: map[string]string{
			"override_type": string(o.Type),
			"reason":        o.Reason,
		},
	})
}

// observe feeds metrics after a decision.
func (c *Checker) observe(action ActionOnLimit, result *CheckResult, user User) {
	if c.config.Metrics == nil {
		return
	}
	c.config.Metrics.RecordCheck(action, result.Allowed)
	if result.Period != "" {
		c.config.Metrics.UpdateUsage(user.ID, result.Period, result.PercentageUsed)
	}
}

// tierWindows builds the evaluation windows for a tier. The monthly limit
// is always present on a valid tier; the daily limit is optional.
func tierWindows(tier *Tier) []window {
	windows := []window{{period: PeriodMonthly, limit: tier.MonthlyCostLimit}}
	if tier.DailyCostLimit > 0 {
		windows = append(windows, window{period: PeriodDaily, limit: tier.DailyCostLimit})
	}
	return windows
}

// overrideWindows builds the evaluation windows for a custom-limit
// override. Only the limits the override actually sets are evaluated.
func overrideWindows(o *Override) []window {
	var windows []window
	if o.MonthlyCostLimit > 0 {
		windows = append(windows, window{period: PeriodMonthly, limit: o.MonthlyCostLimit})
	}
	if o.DailyCostLimit > 0 {
		windows = append(windows, window{period: PeriodDaily, limit: o.DailyCostLimit})
	}
	return windows
}

// mostRestrictive picks the window closest to breach. Windows are compared
// by usage percentage, never averaged or summed.
func mostRestrictive(windows []window) (window, bool) {
	if len(windows) == 0 {
		return window{}, false
	}

	governing := windows[0]
	for _, w := range windows[1:] {
		if w.percentage() > governing.percentage() {
			governing = w
		}
	}
	return governing, true
}

// periodKey maps a period type to its ledger key at the given instant.
func periodKey(period PeriodType, now time.Time) string {
	if period == PeriodDaily {
		return ledger.DailyKey(now)
	}
	return ledger.MonthlyKey(now)
}

// formatPercent renders a threshold as a compact percentage, e.g. "80%".
func formatPercent(v float64) string {
	return fmt.Sprintf("%g%%", v)
}
