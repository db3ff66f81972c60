package metrics

import (
	"sync/atomic"
	"time"

	"turfgame/exporter/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector owns the exporter's own Prometheus metrics. It satisfies the
// recorder interfaces of the fetch pipeline and the exposition renderer, so
// both can report into it without importing this package.
//
// These metrics describe the exporter itself and are served separately from
// the Turf user metrics.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	fetchMetrics  *FetchMetrics
	renderMetrics *RenderMetrics

	// lastSuccess holds the start of the last successful cycle in unix
	// nanoseconds, zero before the first one.
	lastSuccess atomic.Int64
}

// NewCollector creates a collector and registers its metrics with registry.
// If registry is nil a new one is created together with the Go runtime and
// process collectors.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	fetcher, _ := pipeline.NewFetcher(pipeline.Options{Metrics: collector, ...})
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = &config.MetricsConfig{}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.CycleDurationBuckets) == 0 {
		cfg.CycleDurationBuckets = append([]float64(nil), config.DefaultCycleDurationBuckets...)
	}

	return &Collector{
		config:        cfg,
		registry:      registry,
		fetchMetrics:  NewFetchMetrics(cfg, registry),
		renderMetrics: NewRenderMetrics(cfg, registry),
	}
}

// RecordFetchCycle records one completed fetch cycle.
//
// Parameters:
//   - outcome: "success" or the upstream error kind (e.g. "transport_error")
//   - duration: wall time of the cycle
func (c *Collector) RecordFetchCycle(outcome string, duration time.Duration) {
	if !c.config.IsEnabled() {
		return
	}
	c.fetchMetrics.RecordCycle(outcome, duration)
}

// RecordEntities adds the per-entity results of one cycle.
func (c *Collector) RecordEntities(written, rejected, writeFailed int) {
	if !c.config.IsEnabled() {
		return
	}
	c.fetchMetrics.RecordEntities(written, rejected, writeFailed)
}

// SetLastSuccessfulFetch stores the time of the last successful cycle. The
// value is kept even when self-metrics are disabled because readiness
// depends on it.
func (c *Collector) SetLastSuccessfulFetch(t time.Time) {
	c.lastSuccess.Store(t.UnixNano())
	if !c.config.IsEnabled() {
		return
	}
	c.fetchMetrics.SetLastSuccess(t)
}

// LastSuccessfulFetch returns the time of the last successful cycle, or the
// zero time if none has succeeded yet.
func (c *Collector) LastSuccessfulFetch() time.Time {
	ns := c.lastSuccess.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// RecordCacheRead counts one cache read made while rendering.
//
// Parameters:
//   - result: "hit", "miss", "corrupt" or "error"
func (c *Collector) RecordCacheRead(result string) {
	if !c.config.IsEnabled() {
		return
	}
	c.renderMetrics.RecordRead(result)
}

// RecordRender records one rendered exposition document.
func (c *Collector) RecordRender(duration time.Duration, excluded int) {
	if !c.config.IsEnabled() {
		return
	}
	c.renderMetrics.RecordRender(duration, excluded)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
