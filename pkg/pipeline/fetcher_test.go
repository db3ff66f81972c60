package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"turfgame/exporter/pkg/cache"
	"turfgame/exporter/pkg/turf"
)

// fakeUpstream serves a fixed set of raw records or an error.
type fakeUpstream struct {
	mu      sync.Mutex
	records []json.RawMessage
	err     error
	calls   int
	names   []string
}

func (f *fakeUpstream) FetchUsers(ctx context.Context, names []string) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.names = names
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func rawRecords(items ...string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		out = append(out, json.RawMessage(item))
	}
	return out
}

type recordingMetrics struct {
	mu          sync.Mutex
	outcomes    []string
	written     int
	rejected    int
	writeFailed int
	lastSuccess time.Time
}

func (m *recordingMetrics) RecordFetchCycle(outcome string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *recordingMetrics) RecordEntities(written, rejected, writeFailed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written += written
	m.rejected += rejected
	m.writeFailed += writeFailed
}

func (m *recordingMetrics) SetLastSuccessfulFetch(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSuccess = t
}

// failingBackend refuses every write.
type failingBackend struct {
	*cache.MemoryBackend
}

func (f failingBackend) Set(ctx context.Context, key string, value []byte) error {
	return errors.New("disk full")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFetcher(t *testing.T, upstream Upstream, backend cache.Backend, users ...string) (*Fetcher, *cache.Cache) {
	t.Helper()

	c := cache.New(backend, cache.DefaultKeyPrefix)
	f, err := NewFetcher(Options{
		Upstream: upstream,
		Cache:    c,
		Users:    users,
		Logger:   discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewFetcher failed: %v", err)
	}
	return f, c
}

func TestNewFetcher_Validation(t *testing.T) {
	c := cache.New(cache.NewMemoryBackend(), cache.DefaultKeyPrefix)
	up := &fakeUpstream{}

	tests := []struct {
		name string
		opts Options
	}{
		{name: "no upstream", opts: Options{Cache: c, Users: []string{"alice"}}},
		{name: "no cache", opts: Options{Upstream: up, Users: []string{"alice"}}},
		{name: "no users", opts: Options{Upstream: up, Cache: c}},
		{name: "duplicate users", opts: Options{Upstream: up, Cache: c, Users: []string{"alice", "Alice"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFetcher(tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFetcher_RunCycle_WritesSnapshots(t *testing.T) {
	up := &fakeUpstream{records: rawRecords(
		`{"name":"alice","points":120,"zones":[1,2,3],"country":"se"}`,
	)}
	f, c := newTestFetcher(t, up, cache.NewMemoryBackend(), "alice")

	result := f.RunCycle(context.Background())
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Written != 1 || result.Outcome() != "success" {
		t.Errorf("unexpected result %+v", result)
	}
	if result.ID == "" {
		t.Error("expected cycle id")
	}

	rec, err := c.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.CycleID != result.ID {
		t.Errorf("expected cycle id %q, got %q", result.ID, rec.CycleID)
	}
	if rec.Metrics["zones_owned"] != 3 || rec.Metrics["points"] != 120 {
		t.Errorf("unexpected metrics %v", rec.Metrics)
	}
	if _, ok := rec.Metrics["country"]; ok {
		t.Error("unknown field should not be stored")
	}
	if len(rec.Metrics) != 2 {
		t.Errorf("expected 2 metrics, got %v", rec.Metrics)
	}
}

func TestFetcher_RunCycle_RejectsMalformedEntityOnly(t *testing.T) {
	backend := cache.NewMemoryBackend()
	up := &fakeUpstream{records: rawRecords(
		`{"name":"alice","points":120,"zones":[1,2,3]}`,
		`{"name":"bob","points":7,"zones":"oops"}`,
	)}
	metrics := &recordingMetrics{}
	c := cache.New(backend, cache.DefaultKeyPrefix)
	f, err := NewFetcher(Options{
		Upstream: up,
		Cache:    c,
		Users:    []string{"alice", "bob"},
		Logger:   discardLogger(),
		Metrics:  metrics,
	})
	if err != nil {
		t.Fatalf("NewFetcher failed: %v", err)
	}

	result := f.RunCycle(context.Background())

	if result.Written != 1 || result.Rejected != 1 {
		t.Errorf("expected 1 written and 1 rejected, got %+v", result)
	}
	if _, err := c.Get(context.Background(), "alice"); err != nil {
		t.Errorf("alice should be cached: %v", err)
	}
	if _, err := c.Get(context.Background(), "bob"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("bob should not be cached, got %v", err)
	}
	if len(result.Missing) != 1 || result.Missing[0] != "bob" {
		t.Errorf("expected bob missing, got %v", result.Missing)
	}

	if len(metrics.outcomes) != 1 || metrics.outcomes[0] != "success" {
		t.Errorf("unexpected outcomes %v", metrics.outcomes)
	}
	if metrics.written != 1 || metrics.rejected != 1 {
		t.Errorf("unexpected entity counts %+v", metrics)
	}
	if metrics.lastSuccess.IsZero() {
		t.Error("expected last success to be set")
	}
}

func TestFetcher_RunCycle_KeepsPreviousSnapshotOnRejection(t *testing.T) {
	up := &fakeUpstream{records: rawRecords(`{"name":"bob","points":7}`)}
	f, c := newTestFetcher(t, up, cache.NewMemoryBackend(), "bob")

	f.RunCycle(context.Background())

	up.records = rawRecords(`{"name":"bob","points":"many"}`)
	result := f.RunCycle(context.Background())
	if result.Rejected != 1 {
		t.Fatalf("expected rejection, got %+v", result)
	}

	rec, err := c.Get(context.Background(), "bob")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Metrics["points"] != 7 {
		t.Errorf("expected previous snapshot, got %v", rec.Metrics)
	}
}

func TestFetcher_RunCycle_StaleOnUpstreamFailure(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantKind: "status_error",
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			wantKind: "decode_error",
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(2 * time.Second):
				case <-r.Context().Done():
				}
			},
			wantKind: "transport_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := cache.NewMemoryBackend()
			c := cache.New(backend, cache.DefaultKeyPrefix)

			seed := cache.Record{
				Entity:    "alice",
				CycleID:   "previous",
				FetchedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
				Metrics:   cache.Snapshot{"points": 100},
			}
			if err := c.Put(context.Background(), seed); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			before, _ := backend.Get(context.Background(), c.Key("alice"))

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client, err := turf.NewClient(turf.Config{
				URL:       server.URL,
				Timeout:   100 * time.Millisecond,
				UserAgent: "test",
			})
			if err != nil {
				t.Fatalf("NewClient failed: %v", err)
			}

			f, err := NewFetcher(Options{
				Upstream: client,
				Cache:    c,
				Users:    []string{"alice"},
				Logger:   discardLogger(),
			})
			if err != nil {
				t.Fatalf("NewFetcher failed: %v", err)
			}

			result := f.RunCycle(context.Background())
			if result.Err == nil {
				t.Fatal("expected upstream error")
			}
			if result.Outcome() != tt.wantKind {
				t.Errorf("Outcome() = %q, want %q", result.Outcome(), tt.wantKind)
			}
			if result.Written != 0 {
				t.Errorf("expected no writes, got %d", result.Written)
			}

			after, _ := backend.Get(context.Background(), c.Key("alice"))
			if !bytes.Equal(before, after) {
				t.Errorf("cache changed after failed cycle:\nbefore %s\nafter  %s", before, after)
			}
		})
	}
}

func TestFetcher_RunCycle_EndToEndWithClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var query []map[string]string
		_ = json.NewDecoder(r.Body).Decode(&query)
		if len(query) != 2 {
			t.Errorf("expected 2 names in request, got %v", query)
		}
		_, _ = w.Write([]byte(`[
			{"name":"alice","points":120,"zones":[1,2,3],"rank":4},
			{"name":"bob","points":7,"zones":"oops"}
		]`))
	}))
	defer server.Close()

	client, err := turf.NewClient(turf.Config{URL: server.URL, UserAgent: "test"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	f, c := newTestFetcher(t, client, cache.NewMemoryBackend(), "alice", "bob")

	result := f.RunCycle(context.Background())
	if result.Received != 2 || result.Written != 1 || result.Rejected != 1 {
		t.Fatalf("unexpected result %+v", result)
	}

	rec, err := c.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	want := cache.Snapshot{"points": 120, "zones_owned": 3, "rank": 4}
	if len(rec.Metrics) != len(want) {
		t.Fatalf("expected %v, got %v", want, rec.Metrics)
	}
	for k, v := range want {
		if rec.Metrics[k] != v {
			t.Errorf("%s = %v, want %v", k, rec.Metrics[k], v)
		}
	}
}

func TestFetcher_RunCycle_NameMatching(t *testing.T) {
	up := &fakeUpstream{records: rawRecords(
		`{"name":"ALICE","points":1}`,
		`{"name":"mallory","points":2}`,
		`{"name":"alice","points":3}`,
	)}
	f, c := newTestFetcher(t, up, cache.NewMemoryBackend(), "Alice")

	result := f.RunCycle(context.Background())
	if result.Written != 1 {
		t.Errorf("expected 1 write, got %+v", result)
	}
	if result.Ignored != 2 {
		t.Errorf("expected untracked and duplicate ignored, got %+v", result)
	}

	rec, err := c.Get(context.Background(), "Alice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Metrics["points"] != 1 {
		t.Errorf("expected first record to win, got %v", rec.Metrics)
	}
	if _, err := c.Get(context.Background(), "mallory"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("untracked user should not be cached, got %v", err)
	}
}

func TestFetcher_RunCycle_EmptyResponse(t *testing.T) {
	up := &fakeUpstream{records: rawRecords()}
	f, _ := newTestFetcher(t, up, cache.NewMemoryBackend(), "ghost")

	result := f.RunCycle(context.Background())
	if result.Err != nil {
		t.Fatalf("empty response is not an error: %v", result.Err)
	}
	if result.Written != 0 || len(result.Missing) != 1 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestFetcher_RunCycle_WriteFailure(t *testing.T) {
	up := &fakeUpstream{records: rawRecords(`{"name":"alice","points":1}`)}
	f, _ := newTestFetcher(t, up, failingBackend{cache.NewMemoryBackend()}, "alice")

	result := f.RunCycle(context.Background())
	if result.WriteFailed != 1 || result.Written != 0 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Err != nil {
		t.Errorf("write failures do not abort the cycle: %v", result.Err)
	}
}

func TestFetcher_RunCycle_UpstreamErrorMetrics(t *testing.T) {
	metrics := &recordingMetrics{}
	up := &fakeUpstream{err: &turf.TransportError{URL: "http://x", Err: errors.New("refused")}}
	c := cache.New(cache.NewMemoryBackend(), cache.DefaultKeyPrefix)
	f, err := NewFetcher(Options{
		Upstream: up,
		Cache:    c,
		Users:    []string{"alice"},
		Logger:   discardLogger(),
		Metrics:  metrics,
	})
	if err != nil {
		t.Fatalf("NewFetcher failed: %v", err)
	}

	f.RunCycle(context.Background())

	if len(metrics.outcomes) != 1 || metrics.outcomes[0] != "transport_error" {
		t.Errorf("unexpected outcomes %v", metrics.outcomes)
	}
	if !metrics.lastSuccess.IsZero() {
		t.Error("last success must not move on failure")
	}
}

func TestFetcher_RunCycle_Concurrent(t *testing.T) {
	up := &fakeUpstream{records: rawRecords(
		`{"name":"alice","points":1}`,
		`{"name":"bob","points":2}`,
	)}
	f, c := newTestFetcher(t, up, cache.NewMemoryBackend(), "alice", "bob")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.RunCycle(context.Background())
		}()
	}
	wg.Wait()

	for _, user := range []string{"alice", "bob"} {
		if _, err := c.Get(context.Background(), user); err != nil {
			t.Errorf("%s: %v", user, err)
		}
	}
	if up.calls != 8 {
		t.Errorf("expected 8 upstream calls, got %d", up.calls)
	}
}

func TestFetcher_Users(t *testing.T) {
	f, _ := newTestFetcher(t, &fakeUpstream{}, cache.NewMemoryBackend(), "b", "a")

	users := f.Users()
	users[0] = "changed"

	if got := f.Users(); got[0] != "b" || got[1] != "a" {
		t.Errorf("Users() = %v", got)
	}
}
