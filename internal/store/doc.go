// Package store persists annotation sessions in SQLite.
//
// The store enforces two invariants on every write: exactly one session per
// distinct video identity (upserts merge into the existing record), and a
// fixed capacity bound enforced by evicting the least-recently-updated
// session before a new video is inserted. Lazy wraps the handle lifecycle:
// open on first use, cached for reuse, dropped on invalidation.
package store
