package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable the loader reads so host settings do not
// leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"TURF_USERS", "TURF_API_USERS_URL", "TURFGAME_TURF_TIMEOUT", "TURFGAME_USER_AGENT",
		"CHECK_INTERVAL_SEC", "TURFGAME_FETCH_SCHEDULE", "TURFGAME_FETCH_ON_START",
		"REDIS_URL", "TURFGAME_CACHE_URL", "TURFGAME_CACHE_KEY_PREFIX",
		"TURFGAME_LISTEN_ADDRESS", "LOGLEVEL", "TURFGAME_LOG_FORMAT",
		"TURFGAME_TRACING_ENABLED", "TURFGAME_TRACING_ENDPOINT",
	} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
turf:
  users: [alice, bob]
  timeout: 5s
fetch:
  interval: 1m
  on_start: false
cache:
  url: "redis://localhost:6379/0"
server:
  listen_address: "0.0.0.0:9100"
telemetry:
  logging:
    level: WARNING
    format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if len(cfg.Turf.Users) != 2 || cfg.Turf.Users[0] != "alice" || cfg.Turf.Users[1] != "bob" {
		t.Errorf("unexpected users %v", cfg.Turf.Users)
	}
	if cfg.Turf.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Turf.Timeout)
	}
	if cfg.Turf.APIURL != DefaultTurfAPIURL {
		t.Errorf("expected default api url, got %q", cfg.Turf.APIURL)
	}
	if cfg.Fetch.Interval != time.Minute {
		t.Errorf("expected interval 1m, got %v", cfg.Fetch.Interval)
	}
	if cfg.Fetch.RunOnStart() {
		t.Error("expected on_start false")
	}
	if cfg.Server.ListenAddress != "0.0.0.0:9100" {
		t.Errorf("unexpected listen address %q", cfg.Server.ListenAddress)
	}
	if cfg.Telemetry.Health.MaxFetchAge != 3*time.Minute {
		t.Errorf("expected max fetch age 3m, got %v", cfg.Telemetry.Health.MaxFetchAge)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "invalid yaml",
			content: "turf: [unclosed",
			wantErr: "failed to parse",
		},
		{
			name:    "unknown key",
			content: "turf:\n  userz: [alice]\n",
			wantErr: "failed to parse",
		},
		{
			name:    "no users",
			content: "cache:\n  url: memory://\n",
			wantErr: "turf.users",
		},
		{
			name:    "no cache url",
			content: "turf:\n  users: [alice]\n",
			wantErr: "cache.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoadConfig_TrimsFileUsers(t *testing.T) {
	path := writeConfig(t, `
turf:
  users: [" alice", "bob "]
cache:
  url: memory://
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(cfg.Turf.Users) != 2 || cfg.Turf.Users[0] != "alice" || cfg.Turf.Users[1] != "bob" {
		t.Errorf("users = %q, want [alice bob]", cfg.Turf.Users)
	}
}

func TestLoadConfigWithEnvOverrides_EnvironmentOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("TURF_USERS", " alice, bob ,,carol ")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("CHECK_INTERVAL_SEC", "60")
	t.Setenv("LOGLEVEL", "DEBUG")
	t.Setenv("TURF_API_USERS_URL", "http://turf.test/v4/users")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	want := []string{"alice", "bob", "carol"}
	if !equalStrings(cfg.Turf.Users, want) {
		t.Errorf("users = %v, want %v", cfg.Turf.Users, want)
	}
	if cfg.Cache.URL != "redis://cache:6379/0" {
		t.Errorf("unexpected cache url %q", cfg.Cache.URL)
	}
	if cfg.Fetch.Interval != time.Minute {
		t.Errorf("expected 60s interval, got %v", cfg.Fetch.Interval)
	}
	if cfg.Telemetry.Logging.Level != "DEBUG" {
		t.Errorf("unexpected log level %q", cfg.Telemetry.Logging.Level)
	}
	if cfg.Turf.APIURL != "http://turf.test/v4/users" {
		t.Errorf("unexpected api url %q", cfg.Turf.APIURL)
	}
	if cfg.Telemetry.Health.MaxFetchAge != 3*time.Minute {
		t.Errorf("max fetch age should follow CHECK_INTERVAL_SEC, got %v", cfg.Telemetry.Health.MaxFetchAge)
	}
	if !cfg.Fetch.RunOnStart() {
		t.Error("fetch on start should default to true")
	}
}

func TestLoadConfigWithEnvOverrides_EnvWinsOverFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
turf:
  users: [alice]
cache:
  url: memory://
server:
  listen_address: ":8000"
`)
	t.Setenv("TURF_USERS", "bob")
	t.Setenv("REDIS_URL", "redis://one:6379")
	t.Setenv("TURFGAME_CACHE_URL", "sqlite:///tmp/turf.db")
	t.Setenv("TURFGAME_LISTEN_ADDRESS", ":9000")
	t.Setenv("TURFGAME_TURF_TIMEOUT", "1.5")
	t.Setenv("TURFGAME_FETCH_ON_START", "false")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !equalStrings(cfg.Turf.Users, []string{"bob"}) {
		t.Errorf("users = %v", cfg.Turf.Users)
	}
	if cfg.Cache.URL != "sqlite:///tmp/turf.db" {
		t.Errorf("TURFGAME_CACHE_URL should win over REDIS_URL, got %q", cfg.Cache.URL)
	}
	if cfg.Server.ListenAddress != ":9000" {
		t.Errorf("unexpected listen address %q", cfg.Server.ListenAddress)
	}
	if cfg.Turf.Timeout != 1500*time.Millisecond {
		t.Errorf("unexpected timeout %v", cfg.Turf.Timeout)
	}
	if cfg.Fetch.RunOnStart() {
		t.Error("expected on_start disabled from environment")
	}
}

func TestLoadConfigWithEnvOverrides_InvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TURF_USERS", "alice")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("CHECK_INTERVAL_SEC", "five minutes")

	_, err := LoadConfigWithEnvOverrides("")

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Errors[0].Field != "fetch.interval" {
		t.Errorf("unexpected field %q", verr.Errors[0].Field)
	}
}

func TestLoadConfigWithEnvOverrides_MissingRequired(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfigWithEnvOverrides("")

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := map[string]bool{}
	for _, fe := range verr.Errors {
		fields[fe.Field] = true
	}
	if !fields["turf.users"] || !fields["cache.url"] {
		t.Errorf("expected turf.users and cache.url errors, got %v", verr.Errors)
	}
}

func TestLoadConfigWithEnvOverrides_DefaultPathOptional(t *testing.T) {
	clearEnv(t)
	t.Setenv("TURF_USERS", "alice")
	t.Setenv("TURFGAME_CACHE_URL", "memory://")

	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	if _, err := LoadConfigWithEnvOverrides(DefaultConfigPath); err != nil {
		t.Errorf("missing default config file should not fail: %v", err)
	}

	if _, err := LoadConfigWithEnvOverrides("other.yaml"); err == nil {
		t.Error("missing explicit config file should fail")
	}
}

func TestSplitUsers(t *testing.T) {
	tests := map[string][]string{
		"alice":             {"alice"},
		"alice,bob":         {"alice", "bob"},
		" alice , bob ":     {"alice", "bob"},
		"alice,,bob,":       {"alice", "bob"},
		",":                 {},
		"Anna Svensson,bob": {"Anna Svensson", "bob"},
	}

	for in, want := range tests {
		if got := SplitUsers(in); !equalStrings(got, want) {
			t.Errorf("SplitUsers(%q) = %v, want %v", in, got, want)
		}
	}
}
