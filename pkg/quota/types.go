package quota

import (
	"context"
	"time"
)

// PeriodType is the accounting window over which usage conceptually resets.
type PeriodType string

const (
	// PeriodMonthly accounts usage per calendar month.
	PeriodMonthly PeriodType = "monthly"

	// PeriodDaily accounts usage per calendar day.
	PeriodDaily PeriodType = "daily"
)

// ActionOnLimit defines what happens when a tier's limit is approached or hit.
type ActionOnLimit string

const (
	// ActionBlock rejects requests once the limit is reached.
	ActionBlock ActionOnLimit = "block"

	// ActionWarn raises warnings but never rejects a request.
	ActionWarn ActionOnLimit = "warn"

	// ActionDowngrade routes requests to the tier's budget model once the
	// downgrade threshold is reached, and blocks at 100%.
	ActionDowngrade ActionOnLimit = "downgrade"
)

// AssignmentType identifies how an assignment binds a tier to users.
type AssignmentType string

const (
	// AssignmentDirectUser binds a tier to a single user ID.
	AssignmentDirectUser AssignmentType = "direct_user"

	// AssignmentJWTRole binds a tier to all users carrying a JWT role.
	AssignmentJWTRole AssignmentType = "jwt_role"

	// AssignmentEmailDomain binds a tier to users by email-domain pattern.
	AssignmentEmailDomain AssignmentType = "email_domain"

	// AssignmentDefault is the system fallback tier.
	AssignmentDefault AssignmentType = "default"
)

// MatchedBy records which step of the precedence chain determined a user's
// effective policy.
type MatchedBy string

const (
	MatchedByOverride    MatchedBy = "override"
	MatchedByDirectUser  MatchedBy = "direct_user"
	MatchedByJWTRole     MatchedBy = "jwt_role"
	MatchedByEmailDomain MatchedBy = "email_domain"
	MatchedByDefault     MatchedBy = "default"
)

// OverrideType distinguishes the two kinds of per-user exception.
type OverrideType string

const (
	// OverrideCustomLimit replaces the tier's limits with the override's own.
	OverrideCustomLimit OverrideType = "custom_limit"

	// OverrideUnlimited exempts the user from quota enforcement entirely.
	OverrideUnlimited OverrideType = "unlimited"
)

// FailurePolicy decides the outcome of a quota check when the usage store is
// unavailable. Fail-open admits the request with a logged warning; fail-closed
// rejects it.
type FailurePolicy string

const (
	FailOpen   FailurePolicy = "fail_open"
	FailClosed FailurePolicy = "fail_closed"
)

// Tier is a named quota policy: spending limits plus the enforcement action
// taken as usage approaches them.
type Tier struct {
	TierID   string `yaml:"tier_id" json:"tier_id"`
	TierName string `yaml:"tier_name" json:"tier_name"`

	// MonthlyCostLimit is the monthly spend limit in USD. Required.
	MonthlyCostLimit float64 `yaml:"monthly_cost_limit" json:"monthly_cost_limit"`

	// DailyCostLimit is an optional daily spend limit in USD. Zero means
	// no daily limit.
	DailyCostLimit float64 `yaml:"daily_cost_limit,omitempty" json:"daily_cost_limit,omitempty"`

	// PeriodType is the tier's primary accounting window.
	PeriodType PeriodType `yaml:"period_type" json:"period_type"`

	// SoftLimitPercentage is the usage percentage (0-100] at which a
	// non-blocking warning is raised.
	SoftLimitPercentage float64 `yaml:"soft_limit_percentage" json:"soft_limit_percentage"`

	// ActionOnLimit selects the enforcement behavior.
	ActionOnLimit ActionOnLimit `yaml:"action_on_limit" json:"action_on_limit"`

	// BudgetModelID is the cheaper model used when ActionOnLimit is
	// downgrade. Required iff ActionOnLimit == downgrade.
	BudgetModelID string `yaml:"budget_model_id,omitempty" json:"budget_model_id,omitempty"`

	// DowngradeThreshold is the usage percentage [0, 100) at which requests
	// are redirected to BudgetModelID. Required iff ActionOnLimit == downgrade.
	DowngradeThreshold float64 `yaml:"downgrade_threshold,omitempty" json:"downgrade_threshold,omitempty"`

	Enabled   bool      `yaml:"enabled" json:"enabled"`
	CreatedAt time.Time `yaml:"created_at,omitempty" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at,omitempty" json:"updated_at"`
}

// Assignment binds a user, JWT role, or email domain to a tier.
//
// Subject holds the user ID, role name, or domain pattern depending on Type;
// it is empty for the default assignment. When several assignments of the
// same type match, the highest Priority wins.
type Assignment struct {
	AssignmentID string         `yaml:"assignment_id" json:"assignment_id"`
	Type         AssignmentType `yaml:"type" json:"type"`
	Subject      string         `yaml:"subject,omitempty" json:"subject,omitempty"`
	TierID       string         `yaml:"tier_id" json:"tier_id"`

	// Priority orders conflicting assignments (0-999, higher wins).
	Priority int `yaml:"priority" json:"priority"`

	Enabled   bool      `yaml:"enabled" json:"enabled"`
	CreatedAt time.Time `yaml:"created_at,omitempty" json:"created_at"`
}

// Override is a time-bounded, user-specific exception that supersedes
// tier-derived limits. At most one override may be active for a user at any
// instant; overlapping validity windows are rejected at write time.
type Override struct {
	OverrideID string       `yaml:"override_id" json:"override_id"`
	UserID     string       `yaml:"user_id" json:"user_id"`
	Type       OverrideType `yaml:"type" json:"type"`

	// MonthlyCostLimit and DailyCostLimit replace the tier's limits when
	// Type is custom_limit. At least one must be set in that case.
	MonthlyCostLimit float64 `yaml:"monthly_cost_limit,omitempty" json:"monthly_cost_limit,omitempty"`
	DailyCostLimit   float64 `yaml:"daily_cost_limit,omitempty" json:"daily_cost_limit,omitempty"`

	ValidFrom  time.Time `yaml:"valid_from" json:"valid_from"`
	ValidUntil time.Time `yaml:"valid_until" json:"valid_until"`

	Reason    string    `yaml:"reason,omitempty" json:"reason,omitempty"`
	Enabled   bool      `yaml:"enabled" json:"enabled"`
	CreatedAt time.Time `yaml:"created_at,omitempty" json:"created_at"`
}

// Active reports whether the override applies at the given instant.
func (o *Override) Active(now time.Time) bool {
	return o.Enabled && !now.Before(o.ValidFrom) && !now.After(o.ValidUntil)
}

// User is the identity supplied by the external auth layer.
type User struct {
	ID          string
	Roles       []string
	EmailDomain string
}

// CheckResult is the outcome of a single quota check. It is ephemeral and
// never persisted; the audit trail is written separately as events.
type CheckResult struct {
	// Allowed indicates whether the request may proceed.
	Allowed bool

	// Message is a human-readable explanation when the request is not
	// simply allowed (warning, downgrade, or block).
	Message string

	// TierID and TierName identify the resolved tier, if any.
	TierID   string
	TierName string

	// Limit is the governing spend limit in USD and Period the window it
	// applies to. When both daily and monthly limits exist, the window
	// closer to breach governs.
	Limit  float64
	Period PeriodType

	// CurrentUsage is the spend measured in the governing window.
	CurrentUsage float64

	// PercentageUsed is CurrentUsage/Limit*100 for the governing window.
	PercentageUsed float64

	// Remaining is the budget left in the governing window, never negative.
	Remaining float64

	// WarningLevel is the soft-limit percentage crossed, e.g. "80%".
	// Empty when no warning applies.
	WarningLevel string

	// IsDowngraded indicates the request should be served by the tier's
	// budget model instead of the requested one.
	IsDowngraded     bool
	DowngradeModelID string
	OriginalModelID  string

	// MatchedBy records which precedence step resolved the policy.
	MatchedBy MatchedBy
}

// Store is the persistence contract for tiers, assignments, and overrides.
// Implementations must be safe for concurrent use: the admin path writes at
// low frequency while the request path reads continuously.
type Store interface {
	// GetTier returns the tier with the given ID, or a NotFoundError.
	GetTier(ctx context.Context, tierID string) (*Tier, error)

	// PutTier creates or replaces a tier.
	PutTier(ctx context.Context, tier *Tier) error

	// DeleteTier removes a tier. No-op if it does not exist.
	DeleteTier(ctx context.Context, tierID string) error

	// ListTiers returns all tiers, ordered by tier ID.
	ListTiers(ctx context.Context) ([]*Tier, error)

	// GetUserAssignment returns the direct-user assignment for a user,
	// or nil if none exists.
	GetUserAssignment(ctx context.Context, userID string) (*Assignment, error)

	// ListRoleAssignments returns all assignments for a JWT role.
	ListRoleAssignments(ctx context.Context, role string) ([]*Assignment, error)

	// ListAssignmentsByType returns all assignments of the given type,
	// ordered by priority descending.
	ListAssignmentsByType(ctx context.Context, typ AssignmentType) ([]*Assignment, error)

	// PutAssignment creates or replaces an assignment.
	PutAssignment(ctx context.Context, a *Assignment) error

	// DeleteAssignment removes an assignment. No-op if it does not exist.
	DeleteAssignment(ctx context.Context, assignmentID string) error

	// ListOverridesForUser returns all overrides for a user, including
	// disabled and expired ones.
	ListOverridesForUser(ctx context.Context, userID string) ([]*Override, error)

	// PutOverride creates or replaces an override.
	PutOverride(ctx context.Context, o *Override) error

	// DeleteOverride removes an override. No-op if it does not exist.
	DeleteOverride(ctx context.Context, overrideID string) error

	// Close releases any resources held by the store.
	Close() error
}

// UsageReader is the slice of the usage ledger the request path needs.
// The full ledger contract (atomic increments, reconciliation) lives in
// package ledger; the checker only ever reads.
type UsageReader interface {
	Read(ctx context.Context, userID, periodKey string) (float64, error)
}

// EventSink receives quota decision events. Recording is fire-and-forget:
// implementations must never block the caller and failures must never
// surface into the check path.
type EventSink interface {
	Record(event *DecisionEvent)
}

// DecisionEvent describes one quota decision for the audit trail.
type DecisionEvent struct {
	UserID         string
	TierID         string
	Type           EventType
	CurrentUsage   float64
	QuotaLimit     float64
	PercentageUsed float64
	SessionID      string
	Metadata       map[string]string
}

// EventType classifies a quota decision event.
type EventType string

const (
	EventWarning         EventType = "warning"
	EventBlock           EventType = "block"
	EventReset           EventType = "reset"
	EventOverrideApplied EventType = "override_applied"
	EventDowngrade       EventType = "downgrade"
)
