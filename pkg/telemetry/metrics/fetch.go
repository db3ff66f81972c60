package metrics

import (
	"time"

	"turfgame/exporter/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Cycle outcomes known in advance. Their series are created at startup so
// that rate() queries work before the first failure.
var cycleOutcomes = []string{"success", "transport_error", "status_error", "decode_error"}

// FetchMetrics tracks fetch cycles.
//
// Metrics:
//   - turfgame_exporter_fetch_cycles_total{outcome}
//   - turfgame_exporter_fetch_cycle_duration_seconds
//   - turfgame_exporter_fetch_entities_written_total
//   - turfgame_exporter_fetch_entities_rejected_total
//   - turfgame_exporter_fetch_entity_write_failures_total
//   - turfgame_exporter_fetch_last_success_timestamp_seconds
type FetchMetrics struct {
	cyclesTotal      *prometheus.CounterVec
	cycleDuration    prometheus.Histogram
	entitiesWritten  prometheus.Counter
	entitiesRejected prometheus.Counter
	writeFailures    prometheus.Counter
	lastSuccess      prometheus.Gauge
}

// NewFetchMetrics creates and registers fetch metrics with the provided registry.
func NewFetchMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *FetchMetrics {
	fm := &FetchMetrics{
		cyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "fetch",
				Name:      "cycles_total",
				Help:      "Total number of fetch cycles by outcome",
			},
			[]string{"outcome"},
		),

		cycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "fetch",
				Name:      "cycle_duration_seconds",
				Help:      "Duration of fetch cycles in seconds",
				Buckets:   cfg.CycleDurationBuckets,
			},
		),

		entitiesWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "fetch",
				Name:      "entities_written_total",
				Help:      "Total number of user snapshots written to the cache",
			},
		),

		entitiesRejected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "fetch",
				Name:      "entities_rejected_total",
				Help:      "Total number of user records rejected as malformed",
			},
		),

		writeFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "fetch",
				Name:      "entity_write_failures_total",
				Help:      "Total number of user snapshots the cache failed to store",
			},
		),

		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "fetch",
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful fetch cycle",
			},
		),
	}

	registry.MustRegister(
		fm.cyclesTotal,
		fm.cycleDuration,
		fm.entitiesWritten,
		fm.entitiesRejected,
		fm.writeFailures,
		fm.lastSuccess,
	)

	for _, outcome := range cycleOutcomes {
		fm.cyclesTotal.WithLabelValues(outcome)
	}

	return fm
}

// RecordCycle counts a cycle and observes its duration.
func (fm *FetchMetrics) RecordCycle(outcome string, duration time.Duration) {
	fm.cyclesTotal.WithLabelValues(outcome).Inc()
	fm.cycleDuration.Observe(duration.Seconds())
}

// RecordEntities adds per-entity counts of one cycle.
func (fm *FetchMetrics) RecordEntities(written, rejected, writeFailed int) {
	fm.entitiesWritten.Add(float64(written))
	fm.entitiesRejected.Add(float64(rejected))
	fm.writeFailures.Add(float64(writeFailed))
}

// SetLastSuccess sets the last success timestamp.
func (fm *FetchMetrics) SetLastSuccess(t time.Time) {
	fm.lastSuccess.Set(float64(t.UnixNano()) / 1e9)
}
