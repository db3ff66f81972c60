package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// createSampler creates a parent-based sampler. Root spans are sampled by
// trace ID ratio; children follow their parent's decision so a trace is
// either recorded whole or not at all.
//
//	telemetry:
//	  tracing:
//	    sample_ratio: 0.1  # Sample 10% of fetch cycles and scrapes
//
// A ratio of 1 samples everything, which suits the exporter's low volume:
// one fetch cycle per interval plus one render per scrape.
func createSampler(ratio float64) (sdktrace.Sampler, error) {
	if ratio < 0.0 || ratio > 1.0 {
		return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
	}

	var base sdktrace.Sampler
	switch ratio {
	case 1.0:
		base = sdktrace.AlwaysSample()
	case 0.0:
		base = sdktrace.NeverSample()
	default:
		base = sdktrace.TraceIDRatioBased(ratio)
	}

	return sdktrace.ParentBased(base), nil
}
