// Package storage provides persistence backends for quota tiers,
// assignments, and overrides.
//
// Two backends implement quota.Store:
//
//   - MemoryBackend: in-process maps, for tests and ephemeral deployments
//   - SQLiteBackend: durable single-file storage with WAL mode
//
// Both keep records addressable by (entity type, id) with secondary lookup
// by kind and subject, which is all the resolvers need: a user's direct
// assignment, the assignments for a role, the assignments of a type, and a
// user's overrides.
//
// The admin path is the only writer and is low-frequency; the request path
// reads continuously. Eventual propagation of admin edits to in-flight
// checks is acceptable, so no cross-record transactions are used.
package storage
