package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when no path is given. Its absence is not an
// error: the exporter can be configured from the environment alone.
const DefaultConfigPath = "turfgame-exporter.yaml"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from an optional YAML file
// and applies environment variable overrides. Environment variables always
// take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file (skipped for "" or a missing DefaultConfigPath)
// 2. Apply environment variable overrides
// 3. Apply default values
// 4. Validate final configuration
//
// Defaults are applied after the environment so that derived defaults, such
// as the readiness staleness window, follow CHECK_INTERVAL_SEC.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := readFile(path)
		switch {
		case err == nil:
			cfg = loaded
		case path == DefaultConfigPath && errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}

	envErrs := applyEnvOverrides(cfg)

	ApplyDefaults(cfg)

	errs := append(envErrs, collectErrors(cfg)...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", ValidationError{Errors: errs})
	}

	return cfg, nil
}

// readFile parses a YAML file. Unknown keys are rejected so that typos do not
// silently fall back to defaults.
func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. The previous exporter's variable names are honoured
// alongside TURFGAME_* names. Values that cannot be parsed are reported as
// field errors.
func applyEnvOverrides(cfg *Config) []FieldError {
	var errs []FieldError

	// Turf overrides
	if val := os.Getenv("TURF_USERS"); val != "" {
		cfg.Turf.Users = SplitUsers(val)
	}
	if val := os.Getenv("TURF_API_USERS_URL"); val != "" {
		cfg.Turf.APIURL = val
	}
	if val := os.Getenv("TURFGAME_TURF_TIMEOUT"); val != "" {
		if d, err := parseDuration(val); err == nil {
			cfg.Turf.Timeout = d
		} else {
			errs = append(errs, envError("TURFGAME_TURF_TIMEOUT", "turf.timeout", val))
		}
	}
	if val := os.Getenv("TURFGAME_USER_AGENT"); val != "" {
		cfg.Turf.UserAgent = val
	}

	// Fetch overrides
	if val := os.Getenv("CHECK_INTERVAL_SEC"); val != "" {
		if secs, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			cfg.Fetch.Interval = time.Duration(secs) * time.Second
		} else {
			errs = append(errs, envError("CHECK_INTERVAL_SEC", "fetch.interval", val))
		}
	}
	if val := os.Getenv("TURFGAME_FETCH_SCHEDULE"); val != "" {
		cfg.Fetch.Schedule = val
	}
	if val := os.Getenv("TURFGAME_FETCH_ON_START"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Fetch.OnStart = &b
		} else {
			errs = append(errs, envError("TURFGAME_FETCH_ON_START", "fetch.on_start", val))
		}
	}

	// Cache overrides
	if val := os.Getenv("REDIS_URL"); val != "" {
		cfg.Cache.URL = val
	}
	if val := os.Getenv("TURFGAME_CACHE_URL"); val != "" {
		cfg.Cache.URL = val
	}
	if val := os.Getenv("TURFGAME_CACHE_KEY_PREFIX"); val != "" {
		cfg.Cache.KeyPrefix = val
	}

	// Server overrides
	if val := os.Getenv("TURFGAME_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}

	// Telemetry overrides
	if val := os.Getenv("LOGLEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("TURFGAME_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("TURFGAME_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		} else {
			errs = append(errs, envError("TURFGAME_TRACING_ENABLED", "telemetry.tracing.enabled", val))
		}
	}
	if val := os.Getenv("TURFGAME_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}

	return errs
}

// SplitUsers parses a comma separated user list, trimming whitespace and
// dropping empty entries.
func SplitUsers(val string) []string {
	parts := strings.Split(val, ",")
	users := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			users = append(users, p)
		}
	}
	return users
}

// parseDuration accepts Go durations ("2s", "500ms") and plain seconds ("2").
func parseDuration(val string) (time.Duration, error) {
	val = strings.TrimSpace(val)
	if secs, err := strconv.ParseFloat(val, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(val)
}

func envError(name, field, val string) FieldError {
	return FieldError{
		Field:   field,
		Message: fmt.Sprintf("invalid value %q in %s", val, name),
	}
}
