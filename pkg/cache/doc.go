// Package cache stores the latest normalized snapshot of every tracked user.
//
// # Overview
//
// The cache is the only point where the fetch pipeline and the /metrics
// renderer meet. Each user has exactly one entry, keyed
// "turfgame_user.<username>", holding a JSON Record:
//
//	{"version":1,"entity":"alice","cycle_id":"...","fetched_at":"...",
//	 "metrics":{"points":120,"zones_owned":2}}
//
// The whole record is written with one backend Set. Metrics are never stored
// under separate keys, so a reader cannot observe half of a fetch cycle.
// Entries never expire; a stale record stays until the next successful fetch
// of that user replaces it.
//
// # Backends
//
//   - Redis: shared store, the production default (redis://)
//   - SQLite: single-file persistence (sqlite://)
//   - Memory: process-local map for development and tests (memory://)
//
// Use Open to pick a backend from a connection URL.
//
// # Errors
//
// Cache.Get returns ErrNotFound for users that were never written and a
// *CorruptError when the stored bytes are not a valid record for the user.
// Backend failures are wrapped and returned as is.
package cache
