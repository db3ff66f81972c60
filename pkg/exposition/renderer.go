package exposition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"turfgame/exporter/pkg/cache"
	"turfgame/exporter/pkg/schema"
)

// DefaultPrefix is prepended to every exposed metric name.
const DefaultPrefix = "turfgame_user"

// Cache read results reported to the MetricsRecorder.
const (
	ReadHit     = "hit"
	ReadMiss    = "miss"
	ReadCorrupt = "corrupt"
	ReadError   = "error"
)

// ContentType is the text exposition content type.
var ContentType = string(expfmt.NewFormat(expfmt.TypeTextPlain))

// Reader is the read side of the snapshot cache.
type Reader interface {
	Get(ctx context.Context, entity string) (cache.Record, error)
}

// MetricsRecorder observes renders. *metrics.Collector implements it.
type MetricsRecorder interface {
	RecordCacheRead(result string)
	RecordRender(duration time.Duration, excluded int)
}

// Options configures a Renderer.
type Options struct {
	Cache    Reader
	Registry *schema.Registry

	// Users is the tracked user list. Samples follow this order.
	Users []string

	// Prefix is the metric name prefix. Default: DefaultPrefix
	Prefix string

	Logger  *slog.Logger
	Metrics MetricsRecorder
}

// Renderer builds the exposition document from cached snapshots.
type Renderer struct {
	cache    Reader
	registry *schema.Registry
	users    []string
	prefix   string
	logger   *slog.Logger
	metrics  MetricsRecorder
	tracer   trace.Tracer
}

// New creates a Renderer.
func New(opts Options) (*Renderer, error) {
	if opts.Cache == nil {
		return nil, errors.New("cache is required")
	}
	if opts.Registry == nil {
		opts.Registry = schema.Default()
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if !model.LegacyValidation.IsValidMetricName(opts.Prefix) {
		return nil, fmt.Errorf("prefix %q is not a valid metric name", opts.Prefix)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	users := make([]string, len(opts.Users))
	copy(users, opts.Users)

	return &Renderer{
		cache:    opts.Cache,
		registry: opts.Registry,
		users:    users,
		prefix:   opts.Prefix,
		logger:   opts.Logger.With("component", "exposition.renderer"),
		metrics:  opts.Metrics,
		tracer:   otel.Tracer("turfgame-exporter/exposition"),
	}, nil
}

// Render reads every tracked user from the cache and returns the document.
// Users whose entry is missing or unreadable are left out; every metric still
// gets its HELP and TYPE lines. Render never fails.
func (r *Renderer) Render(ctx context.Context) []byte {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "exposition.render",
		trace.WithAttributes(attribute.Int("render.users", len(r.users))),
	)
	defer span.End()

	snapshots := make([]cache.Snapshot, len(r.users))
	excluded := 0
	for i, user := range r.users {
		snap, ok := r.read(ctx, user)
		if !ok {
			excluded++
			continue
		}
		snapshots[i] = snap
	}

	defs := r.registry.Definitions()
	lines := make([]string, 0, len(defs)*(2+len(r.users)))
	for _, def := range defs {
		name := r.prefix + "_" + def.ExposedName
		lines = append(lines,
			"# HELP "+name+" "+escapeHelp(def.Help),
			"# TYPE "+name+" "+def.Kind.String(),
		)
		for i, user := range r.users {
			snap := snapshots[i]
			if snap == nil {
				continue
			}
			value, ok := snap[def.ExposedName]
			if !ok {
				continue
			}
			lines = append(lines, name+`{user="`+escapeLabel(user)+`"} `+formatValue(value))
		}
	}

	span.SetAttributes(attribute.Int("render.excluded", excluded))
	if r.metrics != nil {
		r.metrics.RecordRender(time.Since(start), excluded)
	}

	return []byte(strings.Join(lines, "\n"))
}

// read fetches one user's snapshot and reports whether it can be rendered.
func (r *Renderer) read(ctx context.Context, user string) (cache.Snapshot, bool) {
	rec, err := r.cache.Get(ctx, user)
	if err == nil {
		r.recordRead(ReadHit)
		return r.filter(user, rec.Metrics), true
	}

	var corrupt *cache.CorruptError
	switch {
	case errors.Is(err, cache.ErrNotFound):
		r.recordRead(ReadMiss)
		r.logger.Error("no cached data for user, it is excluded from this scrape", "user", user)
	case errors.As(err, &corrupt):
		r.recordRead(ReadCorrupt)
		r.logger.Error("cached data for user is unreadable, it is excluded from this scrape",
			"user", user,
			"key", corrupt.Key,
			"reason", corrupt.Reason,
		)
	default:
		r.recordRead(ReadError)
		r.logger.Error("failed to read cached data for user", "user", user, "error", err)
	}
	return nil, false
}

// filter drops names the registry does not know. Such entries can only come
// from a cache written by a different version of the exporter.
func (r *Renderer) filter(user string, snap cache.Snapshot) cache.Snapshot {
	for name := range snap {
		if !r.registry.IsExposed(name) {
			r.logger.Debug("ignoring unknown cached metric", "user", user, "metric", name)
			delete(snap, name)
		}
	}
	return snap
}

func (r *Renderer) recordRead(result string) {
	if r.metrics != nil {
		r.metrics.RecordCacheRead(result)
	}
}

// Handler serves Render over HTTP.
func (r *Renderer) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body := r.Render(req.Context())
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})
}

// formatValue prints v in its shortest exact decimal form, without an
// exponent, so integral values print as integers.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var (
	labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	helpEscaper  = strings.NewReplacer(`\`, `\\`, "\n", `\n`)
)

func escapeLabel(s string) string {
	return labelEscaper.Replace(s)
}

func escapeHelp(s string) string {
	return helpEscaper.Replace(s)
}
