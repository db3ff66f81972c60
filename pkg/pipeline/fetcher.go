package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"turfgame/exporter/pkg/cache"
	"turfgame/exporter/pkg/schema"
	"turfgame/exporter/pkg/telemetry/logging"
	"turfgame/exporter/pkg/turf"
)

// Upstream fetches raw user objects for a batch of names.
type Upstream interface {
	FetchUsers(ctx context.Context, names []string) ([]json.RawMessage, error)
}

// MetricsRecorder receives the outcome of every cycle. *metrics.Collector
// implements it.
type MetricsRecorder interface {
	RecordFetchCycle(outcome string, duration time.Duration)
	RecordEntities(written, rejected, writeFailed int)
	SetLastSuccessfulFetch(t time.Time)
}

// Options configures a Fetcher.
type Options struct {
	Upstream Upstream
	Cache    *cache.Cache
	Registry *schema.Registry

	// Users is the tracked user list, in configured order.
	Users []string

	Logger  *slog.Logger
	Metrics MetricsRecorder
}

// Fetcher runs fetch cycles. It holds no mutable state, so RunCycle may be
// called concurrently; writes for one user are last-write-wins.
type Fetcher struct {
	upstream Upstream
	cache    *cache.Cache
	registry *schema.Registry
	users    []string
	byFold   map[string]string
	logger   *slog.Logger
	metrics  MetricsRecorder
	tracer   trace.Tracer
	now      func() time.Time
}

// NewFetcher validates opts and creates a Fetcher.
func NewFetcher(opts Options) (*Fetcher, error) {
	if opts.Upstream == nil {
		return nil, errors.New("upstream is required")
	}
	if opts.Cache == nil {
		return nil, errors.New("cache is required")
	}
	if len(opts.Users) == 0 {
		return nil, errors.New("at least one user must be tracked")
	}
	if opts.Registry == nil {
		opts.Registry = schema.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	byFold := make(map[string]string, len(opts.Users))
	for _, u := range opts.Users {
		key := strings.ToLower(u)
		if _, dup := byFold[key]; dup {
			return nil, fmt.Errorf("user %q is listed twice", u)
		}
		byFold[key] = u
	}

	users := make([]string, len(opts.Users))
	copy(users, opts.Users)

	return &Fetcher{
		upstream: opts.Upstream,
		cache:    opts.Cache,
		registry: opts.Registry,
		users:    users,
		byFold:   byFold,
		logger:   opts.Logger.With("component", "pipeline.fetcher"),
		metrics:  opts.Metrics,
		tracer:   otel.Tracer("turfgame-exporter/pipeline"),
		now:      time.Now,
	}, nil
}

// CycleResult summarizes one fetch cycle.
type CycleResult struct {
	ID       string
	Started  time.Time
	Duration time.Duration

	Requested int
	Received  int
	Written   int
	// Rejected counts user objects that failed to parse or normalize.
	Rejected int
	// Ignored counts user objects for names that are not tracked.
	Ignored int
	// WriteFailed counts snapshots the cache refused.
	WriteFailed int

	// Missing lists tracked users absent from the response.
	Missing []string

	// Err is the upstream failure that aborted the cycle, if any.
	Err error
}

// Outcome is "success" or the kind of upstream failure.
func (r CycleResult) Outcome() string {
	if r.Err == nil {
		return "success"
	}
	return turf.Kind(r.Err)
}

// RunCycle fetches all tracked users and writes one snapshot per valid user
// object. Upstream failures abort the cycle without touching the cache.
// Failures never propagate to the caller; they are logged and reported in
// the result. The next scheduled cycle is the retry.
func (f *Fetcher) RunCycle(ctx context.Context) (result CycleResult) {
	result = CycleResult{
		ID:        uuid.NewString(),
		Started:   f.now(),
		Requested: len(f.users),
	}
	logger := f.logger.With("cycle_id", result.ID)
	ctx = logging.WithCycleID(ctx, result.ID)

	ctx, span := f.tracer.Start(ctx, "pipeline.fetch_cycle",
		trace.WithAttributes(
			attribute.String("cycle.id", result.ID),
			attribute.Int("cycle.users", len(f.users)),
		),
	)
	defer span.End()

	defer func() {
		result.Duration = time.Since(result.Started)
		f.record(result)
		span.SetAttributes(
			attribute.Int("cycle.written", result.Written),
			attribute.Int("cycle.rejected", result.Rejected),
		)
	}()

	logger.Debug("fetch cycle started", "users", len(f.users))

	raws, err := f.upstream.FetchUsers(ctx, f.users)
	if err != nil {
		result.Err = err
		f.logUpstreamError(logger, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, result.Outcome())
		return result
	}
	fetchedAt := f.now()
	result.Received = len(raws)

	if len(raws) == 0 {
		logger.Warn("got empty response from turf api, check that all tracked usernames are valid",
			"users", f.users,
		)
	}

	seen := make(map[string]bool, len(raws))
	for i, raw := range raws {
		entity, snap, err := f.normalize(raw)
		if err != nil {
			var unknown *untrackedError
			if errors.As(err, &unknown) {
				result.Ignored++
				logger.Warn("ignoring user not in tracked list", "user", unknown.name, "index", i)
				continue
			}
			result.Rejected++
			logger.Warn("rejecting malformed user record", "index", i, "error", err)
			continue
		}
		if seen[entity] {
			result.Ignored++
			logger.Warn("ignoring duplicate user record", "user", entity, "index", i)
			continue
		}
		seen[entity] = true

		rec := cache.Record{
			Version:   cache.RecordVersion,
			Entity:    entity,
			CycleID:   result.ID,
			FetchedAt: fetchedAt.UTC(),
			Metrics:   snap,
		}
		if err := f.cache.Put(ctx, rec); err != nil {
			result.WriteFailed++
			logger.Error("failed to write snapshot", "user", entity, "error", err)
			continue
		}
		result.Written++
	}

	for _, u := range f.users {
		if !seen[u] {
			result.Missing = append(result.Missing, u)
		}
	}
	if len(result.Missing) > 0 && len(raws) > 0 {
		logger.Warn("turf api returned no data for some users", "missing", result.Missing)
	}

	span.SetStatus(codes.Ok, "")
	logger.Info("fetch cycle completed",
		"received", result.Received,
		"written", result.Written,
		"rejected", result.Rejected,
		"write_failed", result.WriteFailed,
		"duration_ms", time.Since(result.Started).Milliseconds(),
	)
	return result
}

type untrackedError struct {
	name string
}

func (e *untrackedError) Error() string {
	return fmt.Sprintf("user %q is not tracked", e.name)
}

// normalize turns one raw element into the tracked user name and snapshot.
func (f *Fetcher) normalize(raw json.RawMessage) (string, cache.Snapshot, error) {
	rec, err := ParseRecord(raw)
	if err != nil {
		return "", nil, err
	}
	name, err := rec.Name()
	if err != nil {
		return "", nil, err
	}
	entity, ok := f.byFold[strings.ToLower(name)]
	if !ok {
		return "", nil, &untrackedError{name: name}
	}
	snap, err := Normalize(rec, f.registry)
	if err != nil {
		return "", nil, err
	}
	return entity, snap, nil
}

func (f *Fetcher) logUpstreamError(logger *slog.Logger, err error) {
	var status *turf.StatusError
	if errors.As(err, &status) {
		logger.Warn("got unexpected status code from turf api, keeping cached snapshots",
			"status", status.StatusCode,
			"body", status.Body,
		)
		return
	}
	logger.Error("fetch cycle aborted, keeping cached snapshots",
		"kind", turf.Kind(err),
		"error", err,
	)
}

func (f *Fetcher) record(result CycleResult) {
	if f.metrics == nil {
		return
	}
	f.metrics.RecordFetchCycle(result.Outcome(), result.Duration)
	f.metrics.RecordEntities(result.Written, result.Rejected, result.WriteFailed)
	if result.Err == nil {
		f.metrics.SetLastSuccessfulFetch(result.Started)
	}
}

// Users returns the tracked users in configured order.
func (f *Fetcher) Users() []string {
	out := make([]string, len(f.users))
	copy(out, f.users)
	return out
}
