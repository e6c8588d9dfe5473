// Package audit provides the persistent trail of quota decisions.
//
// # Overview
//
// Every enforcement-relevant quota decision (warning, block, downgrade,
// override application, reset) is captured as an immutable Event and
// written to a storage backend. Events answer "why was this request
// blocked?" and feed usage reporting.
//
// # Architecture
//
// The package is organized as:
//
//   - audit (this package): Event and Query types, the Storage contract,
//     and the async Recorder
//   - audit/storage: SQLite and in-memory storage backends
//   - audit/export: CSV and JSON exporters
//   - audit/retention: age- and count-based pruning with cron scheduling
//
// # Concurrency
//
// Recording is fire-and-forget. The Recorder enqueues events onto a
// bounded channel drained by a single background worker; when the channel
// is full the event is dropped and counted rather than blocking the
// request path. Close drains the channel before returning.
package audit
