package ledger

import (
	"context"
	"fmt"
)

// Ledger is the contract for period-scoped usage counters.
// Implementations must be safe for concurrent use.
type Ledger interface {
	// Read returns the current usage for a user and period. A period with
	// no recorded usage reads as zero.
	Read(ctx context.Context, userID, periodKey string) (float64, error)

	// Increment atomically adds delta to the user's counter for the period
	// and returns the new total. The row is created on first increment.
	//
	// Increment must be called exactly once per completed, cost-finalized
	// request, never at check time, so retried or canceled requests are
	// not double counted.
	Increment(ctx context.Context, userID, periodKey string, delta float64) (float64, error)

	// ReconcileSet sets the counter to an authoritative absolute value.
	// It is idempotent and used only by the Reconciler.
	ReconcileSet(ctx context.Context, userID, periodKey string, amount float64) error

	// Periods returns all period keys with recorded usage for a user.
	Periods(ctx context.Context, userID string) ([]string, error)

	// Close releases any resources held by the ledger.
	Close() error
}

// Error wraps a ledger backend failure.
type Error struct {
	Backend   string
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("ledger error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(backend, operation string, cause error) *Error {
	return &Error{Backend: backend, Operation: operation, Cause: cause}
}
