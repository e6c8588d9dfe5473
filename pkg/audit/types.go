package audit

import (
	"context"
	"time"

	"solara-hq/quotient/pkg/quota"
)

// Event is one immutable quota decision in the audit trail.
type Event struct {
	// EventID is a UUID assigned when the event is recorded.
	EventID string `json:"event_id"`

	// Timestamp is when the decision was made.
	Timestamp time.Time `json:"timestamp"`

	// UserID is the user the decision applies to.
	UserID string `json:"user_id"`

	// TierID is the tier that governed the decision. Empty when an
	// override governed instead.
	TierID string `json:"tier_id,omitempty"`

	// Type classifies the decision.
	Type quota.EventType `json:"event_type"`

	// CurrentUsage is the spend measured at decision time, in USD.
	CurrentUsage float64 `json:"current_usage"`

	// QuotaLimit is the governing limit at decision time, in USD.
	QuotaLimit float64 `json:"quota_limit"`

	// PercentageUsed is CurrentUsage/QuotaLimit*100.
	PercentageUsed float64 `json:"percentage_used"`

	// SessionID ties the event back to the chat session, when known.
	SessionID string `json:"session_id,omitempty"`

	// Metadata carries decision-specific detail (override ID, governing
	// period, downgrade model).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Query filters audit events. Zero-value fields are ignored.
type Query struct {
	// UserID filters by user.
	UserID string

	// TierID filters by tier.
	TierID string

	// Type filters by event type.
	Type quota.EventType

	// StartTime and EndTime bound the timestamp range (inclusive).
	StartTime *time.Time
	EndTime   *time.Time

	// Limit caps the number of returned events. Default: 100.
	Limit int

	// Offset skips events for pagination.
	Offset int
}

// Storage is the persistence contract for audit events. Query results are
// ordered by timestamp descending unless noted otherwise.
type Storage interface {
	// Store persists a single event.
	Store(ctx context.Context, event *Event) error

	// Query returns events matching the filters.
	Query(ctx context.Context, query *Query) ([]*Event, error)

	// Count returns the number of events matching the filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes events matching the filters and returns the number
	// removed.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}
