// Package ledger provides atomic, period-scoped usage counters keyed by
// user.
//
// # Overview
//
// The ledger is the single mutable shared resource on the request path.
// Every completed, cost-finalized chat request adds its cost to the
// user's counter for the current accounting period; quota checks read the
// counter; a periodic reconciler corrects drift against an authoritative
// cost source.
//
// Counters are keyed by (userID, periodKey), where the period key encodes
// the accounting window: "2006-01" for monthly, "2006-01-02" for daily.
// A new period starts by rolling over to a fresh key, never by zeroing a
// counter in place. Rows are created lazily on first increment.
//
// # Concurrency
//
// All mutation goes through Increment (atomic add) or ReconcileSet
// (idempotent absolute set). Callers never read-modify-write. N concurrent
// increments of A leave the counter at exactly N*A; there are no lost
// updates.
//
// The reconciler tolerates running concurrently with live increments: an
// increment landing between the reconciler's read of the cost source and
// its ReconcileSet is overwritten and reappears on the next pass, so drift
// is bounded by one reconciliation interval.
package ledger
