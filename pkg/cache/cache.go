package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Cache stores one Record per tracked user on top of a Backend.
type Cache struct {
	backend Backend
	prefix  string
}

// New creates a Cache. An empty prefix selects DefaultKeyPrefix.
func New(backend Backend, prefix string) *Cache {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Cache{
		backend: backend,
		prefix:  prefix,
	}
}

// Key returns the backend key of a user.
func (c *Cache) Key(entity string) string {
	return c.prefix + "." + entity
}

// Put encodes rec and writes it with a single backend Set.
func (c *Cache) Put(ctx context.Context, rec Record) error {
	if rec.Entity == "" {
		return fmt.Errorf("cache: record entity cannot be empty")
	}
	if rec.Version == 0 {
		rec.Version = RecordVersion
	}
	if rec.Metrics == nil {
		rec.Metrics = Snapshot{}
	}

	data, err := Encode(rec)
	if err != nil {
		return err
	}

	if err := c.backend.Set(ctx, c.Key(rec.Entity), data); err != nil {
		return fmt.Errorf("cache: set %q: %w", c.Key(rec.Entity), err)
	}
	return nil
}

// Get reads and decodes the record of a user. It returns ErrNotFound when
// the user has never been written and a *CorruptError when the stored value
// is not a valid record for that user.
func (c *Cache) Get(ctx context.Context, entity string) (Record, error) {
	key := c.Key(entity)

	data, err := c.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("cache: get %q: %w", key, err)
	}

	rec, err := Decode(key, data)
	if err != nil {
		return Record{}, err
	}
	if rec.Entity != entity {
		return Record{}, &CorruptError{
			Key:    key,
			Reason: fmt.Sprintf("record belongs to %q", rec.Entity),
		}
	}
	return rec, nil
}

// Ping checks the backend.
func (c *Cache) Ping(ctx context.Context) error {
	return c.backend.Ping(ctx)
}

// Close closes the backend.
func (c *Cache) Close() error {
	return c.backend.Close()
}

// Encode serializes a record. Map keys are sorted by encoding/json, so equal
// records encode to equal bytes.
func Encode(rec Record) ([]byte, error) {
	for name, v := range rec.Metrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("cache: metric %q has non-finite value", name)
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("cache: encode record: %w", err)
	}
	return data, nil
}

// Decode parses a stored record. key is only used in errors.
func Decode(key string, data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, &CorruptError{Key: key, Reason: "invalid json", Err: err}
	}
	if rec.Version != RecordVersion {
		return Record{}, &CorruptError{Key: key, Reason: fmt.Sprintf("unsupported version %d", rec.Version)}
	}
	if rec.Metrics == nil {
		return Record{}, &CorruptError{Key: key, Reason: "missing metrics"}
	}
	return rec, nil
}
