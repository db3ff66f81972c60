package metrics

import (
	"time"

	"turfgame/exporter/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

var readResults = []string{"hit", "miss", "corrupt", "error"}

// RenderMetrics tracks scrapes of the Turf user metrics.
//
// Metrics:
//   - turfgame_exporter_cache_reads_total{result}
//   - turfgame_exporter_render_duration_seconds
//   - turfgame_exporter_render_excluded_entities
type RenderMetrics struct {
	cacheReads     *prometheus.CounterVec
	renderDuration prometheus.Histogram
	excluded       prometheus.Gauge
}

// NewRenderMetrics creates and registers render metrics with the provided registry.
func NewRenderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RenderMetrics {
	rm := &RenderMetrics{
		cacheReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "cache",
				Name:      "reads_total",
				Help:      "Total number of cache reads during rendering by result",
			},
			[]string{"result"},
		),

		renderDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "render",
				Name:      "duration_seconds",
				Help:      "Time spent rendering the exposition document",
				// Rendering only reads the cache, so it is expected to be fast.
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
			},
		),

		excluded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "render",
				Name:      "excluded_entities",
				Help:      "Number of users left out of the last rendered document",
			},
		),
	}

	registry.MustRegister(
		rm.cacheReads,
		rm.renderDuration,
		rm.excluded,
	)

	for _, result := range readResults {
		rm.cacheReads.WithLabelValues(result)
	}

	return rm
}

// RecordRead counts a cache read.
func (rm *RenderMetrics) RecordRead(result string) {
	rm.cacheReads.WithLabelValues(result).Inc()
}

// RecordRender observes a render and the number of users it left out.
func (rm *RenderMetrics) RecordRender(duration time.Duration, excluded int) {
	rm.renderDuration.Observe(duration.Seconds())
	rm.excluded.Set(float64(excluded))
}
