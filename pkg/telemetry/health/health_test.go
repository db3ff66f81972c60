package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

// TestNew tests the creation of a new health checker.
func TestNew(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{name: "default timeout", timeout: 0, expectedTimeout: 5 * time.Second},
		{name: "negative timeout", timeout: -time.Second, expectedTimeout: 5 * time.Second},
		{name: "custom timeout", timeout: 2 * time.Second, expectedTimeout: 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(tt.timeout)
			if checker.checkTimeout != tt.expectedTimeout {
				t.Errorf("expected timeout %v, got %v", tt.expectedTimeout, checker.checkTimeout)
			}
			if checker.CheckCount() != 0 {
				t.Errorf("expected 0 checks, got %d", checker.CheckCount())
			}
		})
	}
}

func TestRegisterCheck(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("fetch", func(ctx context.Context) error { return nil })
	checker.RegisterCheck("cache", func(ctx context.Context) error { return nil })
	checker.RegisterCheck("cache", func(ctx context.Context) error { return errors.New("down") })

	names := checker.ListChecks()
	if len(names) != 2 || names[0] != "cache" || names[1] != "fetch" {
		t.Errorf("unexpected checks %v", names)
	}

	status := checker.CheckReadiness(context.Background())
	if status.Checks["cache"].Status != StatusUnhealthy {
		t.Error("replacement check was not used")
	}
}

func TestCheckReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
	}{
		{
			name:       "no checks",
			checks:     map[string]CheckFunc{},
			wantStatus: StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"cache": CacheCheck(fakePinger{}),
				"fetch": func(ctx context.Context) error { return nil },
			},
			wantStatus: StatusReady,
		},
		{
			name: "cache down",
			checks: map[string]CheckFunc{
				"cache": CacheCheck(fakePinger{err: errors.New("connection refused")}),
				"fetch": func(ctx context.Context) error { return nil },
			},
			wantStatus: StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			for name, check := range tt.checks {
				checker.RegisterCheck(name, check)
			}

			status := checker.CheckReadiness(context.Background())
			if status.Status != tt.wantStatus {
				t.Errorf("expected %q, got %q", tt.wantStatus, status.Status)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("expected %d results, got %d", len(tt.checks), len(status.Checks))
			}
		})
	}
}

func TestCheckReadiness_Timeout(t *testing.T) {
	checker := New(20 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)

	checker.RegisterCheck("slow", func(ctx context.Context) error {
		<-release
		return nil
	})

	start := time.Now()
	status := checker.CheckReadiness(context.Background())

	if time.Since(start) > time.Second {
		t.Error("readiness waited for a check past its timeout")
	}
	if status.Status != StatusDegraded {
		t.Errorf("expected degraded, got %q", status.Status)
	}
	if status.Checks["slow"].Message != ErrCheckTimeout.Error() {
		t.Errorf("unexpected message %q", status.Checks["slow"].Message)
	}
}

func TestCacheCheck(t *testing.T) {
	if err := CacheCheck(fakePinger{})(context.Background()); err != nil {
		t.Errorf("expected healthy cache, got %v", err)
	}

	cause := errors.New("dial tcp: connection refused")
	err := CacheCheck(fakePinger{err: cause})(context.Background())
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
}

func TestFreshnessCheck(t *testing.T) {
	started := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	maxAge := 15 * time.Minute

	tests := []struct {
		name    string
		last    time.Time
		now     time.Time
		maxAge  time.Duration
		wantErr string
	}{
		{
			name: "waiting for first fetch",
			now:  started.Add(time.Minute),
		},
		{
			name:    "first fetch overdue",
			now:     started.Add(20 * time.Minute),
			wantErr: "no successful fetch in 20m0s since start",
		},
		{
			name: "recent fetch",
			last: started.Add(10 * time.Minute),
			now:  started.Add(20 * time.Minute),
		},
		{
			name:    "stale fetch",
			last:    started.Add(time.Minute),
			now:     started.Add(30 * time.Minute),
			wantErr: "last successful fetch 29m0s ago exceeds 15m0s",
		},
		{
			name:   "disabled",
			now:    started.Add(24 * time.Hour),
			maxAge: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			age := maxAge
			if tt.maxAge != 0 {
				age = tt.maxAge
			}
			check := freshnessCheck(started, func() time.Time { return tt.last }, age, func() time.Time { return tt.now })

			err := check(context.Background())
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected healthy, got %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("expected %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLivenessHandler(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("cache", CacheCheck(fakePinger{err: errors.New("down")}))

	rec := httptest.NewRecorder()
	checker.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("liveness must not depend on checks, got %d", rec.Code)
	}
	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if status.Status != StatusOK {
		t.Errorf("expected ok, got %q", status.Status)
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		pingErr  error
		wantCode int
	}{
		{name: "ready", wantCode: http.StatusOK},
		{name: "degraded", pingErr: errors.New("down"), wantCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			checker.RegisterCheck("cache", CacheCheck(fakePinger{err: tt.pingErr}))

			rec := httptest.NewRecorder()
			checker.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("unexpected content type %q", ct)
			}
			var status HealthStatus
			if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if _, ok := status.Checks["cache"]; !ok {
				t.Error("cache check missing from response")
			}
		})
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler("1.2.3", "abc123", "2026-10-18").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if info.Version != "1.2.3" || info.Commit != "abc123" || info.GoVersion == "" {
		t.Errorf("unexpected version info %+v", info)
	}
}

func TestPingHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	PingHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "success" {
		t.Errorf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandlers_MethodNotAllowed(t *testing.T) {
	handlers := New(time.Second).CreateHandlers("1.0.0", "", "")

	for name, h := range map[string]http.HandlerFunc{
		"liveness":  handlers.LivenessHandler,
		"readiness": handlers.ReadinessHandler,
		"version":   handlers.VersionHandler,
		"ping":      handlers.PingHandler,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")))
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("expected 405, got %d", rec.Code)
			}
		})
	}
}

func TestHandlers_Head(t *testing.T) {
	rec := httptest.NewRecorder()
	PingHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/ping", nil))

	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("HEAD should return 200 with no body, got %d %q", rec.Code, rec.Body.String())
	}
}
