package quota

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError indicates a referenced entity does not exist. The resolver
// returns it only when no default tier is configured, which is a deployment
// configuration error rather than a runtime condition.
type NotFoundError struct {
	Entity string // "tier", "assignment", "override", "default_tier"
	Key    string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// FieldError describes a single invalid field in a tier, assignment, or
// override submitted through the admin write path.
type FieldError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates all field errors found while validating a
// write. Invalid configurations are rejected here, at write time, so they
// are never discovered mid-request.
type ValidationError struct {
	Entity string
	Errors []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("invalid %s: %s", e.Entity, e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "invalid %s (%d errors):", e.Entity, len(e.Errors))
	for _, fe := range e.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(fe.Error())
	}
	return sb.String()
}

// ConflictError indicates a write would violate a uniqueness invariant,
// such as overlapping override validity windows for the same user.
type ConflictError struct {
	Entity  string
	Key     string
	Message string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s %q: %s", e.Entity, e.Key, e.Message)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// StoreError wraps a failure from a persistence backend. The checker treats
// any StoreError from the usage ledger as transient and applies the
// configured failure policy instead of surfacing it to the chat pipeline.
type StoreError struct {
	Backend   string // "memory", "sqlite"
	Operation string // "get_tier", "read_usage", ...
	Cause     error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewStoreError creates a new StoreError.
func NewStoreError(backend, operation string, cause error) *StoreError {
	return &StoreError{Backend: backend, Operation: operation, Cause: cause}
}
