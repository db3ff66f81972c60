package config

import (
	"fmt"
	"sync/atomic"
)

// current holds the process-wide configuration. Commands load it once at
// startup; the watcher replaces it on reload.
var current atomic.Pointer[Config]

// Initialize loads configuration from path with environment overrides and
// stores it as the current configuration. Calling it again reloads.
func Initialize(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return err
	}
	current.Store(cfg)
	return nil
}

// GetConfig returns the current configuration, or nil before Initialize.
// The returned value must not be modified.
func GetConfig() *Config {
	return current.Load()
}

// SetConfig replaces the current configuration. Intended for tests.
func SetConfig(cfg *Config) {
	current.Store(cfg)
}

// ReloadConfig loads path again and swaps it in only when it is valid. It
// returns the previous and the new configuration so callers can apply the
// difference.
func ReloadConfig(path string) (prev, next *Config, err error) {
	next, err = LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reload configuration: %w", err)
	}
	prev = current.Swap(next)
	return prev, next, nil
}
