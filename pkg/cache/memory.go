package cache

import (
	"context"
	"errors"
	"sync"
)

// MemoryBackend keeps values in a map. Values are lost when the process
// exits; use it for development and tests.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
	closed bool
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		values: make(map[string][]byte),
	}
}

var errClosed = errors.New("cache: backend closed")

// Get returns a copy of the value stored at key.
func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errClosed
	}
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores a copy of value at key.
func (m *MemoryBackend) Set(ctx context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errClosed
	}
	m.values[key] = v
	return nil
}

// Ping fails only after Close.
func (m *MemoryBackend) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return errClosed
	}
	return nil
}

// Close drops all values.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.values = nil
	return nil
}

// size returns the number of stored keys.
func (m *MemoryBackend) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
