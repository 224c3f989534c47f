// Package repositories implements SQLite persistence for the search history.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [SearchRepository] : one row per search attempt (query, status, result count, failure details)
//
// Only outcomes are stored. Books returned by the catalog are never persisted.
//
// Sequence numbers provide stable, human-readable ordering (e.g., search #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
