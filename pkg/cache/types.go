package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultKeyPrefix is the namespace of cache keys. Keys have the form
// "turfgame_user.<username>".
const DefaultKeyPrefix = "turfgame_user"

// RecordVersion is the current encoding version of cached records.
const RecordVersion = 1

// ErrNotFound is returned by backends and by Cache.Get when a key is absent.
var ErrNotFound = errors.New("cache: key not found")

// Backend is a byte-oriented key-value store.
// Implementations must be safe for concurrent use. Set replaces the value of
// a key as a single operation; readers never observe a partial value.
type Backend interface {
	// Get returns the value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value at key, replacing any previous value. Keys never expire.
	Set(ctx context.Context, key string, value []byte) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the backend.
	Close() error
}

// Snapshot maps exposed metric names to values for one user.
type Snapshot map[string]float64

// Record is the unit stored per user. It is written wholesale on every
// successful fetch of that user.
type Record struct {
	// Version is the encoding version, currently RecordVersion.
	Version int `json:"version"`

	// Entity is the tracked username the record belongs to.
	Entity string `json:"entity"`

	// CycleID identifies the fetch cycle that produced the record.
	CycleID string `json:"cycle_id,omitempty"`

	// FetchedAt is when the upstream response was received.
	FetchedAt time.Time `json:"fetched_at"`

	// Metrics is the normalized snapshot.
	Metrics Snapshot `json:"metrics"`
}

// CorruptError reports a cached value that cannot be decoded into a Record
// for the requested user.
type CorruptError struct {
	Key    string
	Reason string
	Err    error
}

func (e *CorruptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cache: corrupt entry %q: %s: %v", e.Key, e.Reason, e.Err)
	}
	return fmt.Sprintf("cache: corrupt entry %q: %s", e.Key, e.Reason)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}
