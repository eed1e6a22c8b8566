// Package repositories implements the playlist document store behind [models.PlaylistStore].
//
// Two drivers are provided:
//   - [PlaylistRepository] : SQLite, tracks kept as a JSON array column, soft deletes via deleted_at
//   - [RedisPlaylistStore] : Redis, one JSON document per playlist plus a sorted-set owner index
//
// Both drivers apply whole-array replaces and additive unions atomically per document.
// Failures from the backing store wrap [shared.ErrPersistence]; missing documents wrap [shared.ErrNotFound].
//
// Sequence numbers give SQLite rows a stable creation order independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
