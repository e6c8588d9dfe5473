// Package storage provides audit event storage backends.
//
// Two implementations are available: SQLiteStorage persists events to a
// SQLite database for production deployments, and MemoryStorage keeps
// events in a slice for tests and ephemeral runs. Both satisfy
// audit.Storage and order query results by timestamp descending.
package storage
