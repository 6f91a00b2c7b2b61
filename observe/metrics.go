package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records fetch metrics for data sources.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordFetch records a source fetch with duration and error status.
	RecordFetch(ctx context.Context, meta FetchMeta, duration time.Duration, err error)

	// RecordFallback records that a source failed and the chain moved on.
	RecordFallback(ctx context.Context, meta FetchMeta)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter         metric.Meter
	totalCount    metric.Int64Counter
	errorCount    metric.Int64Counter
	fallbackCount metric.Int64Counter
	durationHist  metric.Float64Histogram
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"fetch.total",
		metric.WithDescription("Total number of source fetches"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"fetch.errors",
		metric.WithDescription("Total number of source fetch errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	fallbackCount, err := meter.Int64Counter(
		"fetch.fallbacks",
		metric.WithDescription("Total number of fallbacks to a lower-priority source"),
		metric.WithUnit("{fallback}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"fetch.duration_ms",
		metric.WithDescription("Source fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:         meter,
		totalCount:    totalCount,
		errorCount:    errorCount,
		fallbackCount: fallbackCount,
		durationHist:  durationHist,
	}, nil
}

func fetchAttrs(meta FetchMeta) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("source.name", meta.Source),
		attribute.String("fetch.kind", meta.Kind),
	)
}

// RecordFetch records metrics for a source fetch.
func (m *metricsImpl) RecordFetch(ctx context.Context, meta FetchMeta, duration time.Duration, err error) {
	opt := fetchAttrs(meta)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordFallback records that the chain gave up on a source for this pass.
func (m *metricsImpl) RecordFallback(ctx context.Context, meta FetchMeta) {
	m.fallbackCount.Add(ctx, 1, fetchAttrs(meta))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordFetch(ctx context.Context, meta FetchMeta, duration time.Duration, err error) {
}

func (m *noopMetrics) RecordFallback(ctx context.Context, meta FetchMeta) {}
