// Package quota implements spending-policy resolution and per-request quota
// enforcement for chat requests.
//
// # Overview
//
// Every chat request is checked against the spending policy that applies to
// the requesting user. A policy is resolved through a layered precedence
// chain (override > direct user assignment > JWT role > email domain >
// default tier), usage is measured against the policy's limits, and the
// check yields one of four outcomes:
//
//   - allow: usage below all thresholds, request proceeds unchanged
//   - warn: soft limit reached, request proceeds with a warning
//   - downgrade: downgrade threshold reached, request is routed to the
//     tier's budget model
//   - block: limit reached, request is rejected
//
// # Architecture
//
// The package is organized around a small set of collaborators:
//
//   - Checker: orchestrates one decision per request (the state machine)
//   - AssignmentResolver: maps a user to a candidate tier
//   - OverrideResolver: finds a time-bounded per-user exception
//   - Admin: validated write path for tiers, assignments, and overrides
//   - Inspector: diagnostic lookup for support tooling
//   - storage: persistence backends (memory, SQLite)
//
// Usage counters live in package ledger and decision events in package
// audit; the Checker consumes both through narrow interfaces.
//
// # Concurrency
//
// Checks are evaluated fresh on every call and hold no per-user state.
// Two concurrent requests from the same user may both pass a check before
// either increments the ledger; the limit can be exceeded by at most the
// cost of the in-flight requests. This is a deliberate soft-budget
// guarantee, not a hard admission gate.
package quota
