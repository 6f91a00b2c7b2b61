package observe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*metricsImpl, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) *metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	found := findMetric(rm, name)
	if found == nil {
		return nil
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64] for %s, got %T", name, found.Data)
	}
	return &sum
}

// TestMetrics_TotalCounterIncrements verifies fetch.total is incremented.
func TestMetrics_TotalCounterIncrements(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := FetchMeta{Source: "tushare", Kind: "stock_info"}
	m.RecordFetch(context.Background(), meta, 100*time.Millisecond, nil)

	sum := collectSum(t, reader, "fetch.total")
	if sum == nil {
		t.Fatal("fetch.total metric not found")
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if sum.DataPoints[0].Value != 1 {
		t.Errorf("expected count 1, got %d", sum.DataPoints[0].Value)
	}
}

// TestMetrics_ErrorCounterOnSuccess verifies errors counter NOT incremented on success.
func TestMetrics_ErrorCounterOnSuccess(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := FetchMeta{Source: "tushare", Kind: "stock_info"}
	m.RecordFetch(context.Background(), meta, 50*time.Millisecond, nil)

	sum := collectSum(t, reader, "fetch.errors")
	if sum == nil {
		// Metric absent means no errors recorded, which is acceptable
		return
	}
	if len(sum.DataPoints) > 0 && sum.DataPoints[0].Value != 0 {
		t.Errorf("expected errors count 0, got %d", sum.DataPoints[0].Value)
	}
}

// TestMetrics_ErrorCounterOnFailure verifies errors counter incremented on failure.
func TestMetrics_ErrorCounterOnFailure(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := FetchMeta{Source: "akshare", Kind: "financial_metrics"}
	m.RecordFetch(context.Background(), meta, 50*time.Millisecond, errors.New("upstream down"))

	sum := collectSum(t, reader, "fetch.errors")
	if sum == nil {
		t.Fatal("fetch.errors metric not found")
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if sum.DataPoints[0].Value != 1 {
		t.Errorf("expected errors count 1, got %d", sum.DataPoints[0].Value)
	}
}

// TestMetrics_FallbackCounter verifies fetch.fallbacks is incremented.
func TestMetrics_FallbackCounter(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := FetchMeta{Source: "tushare", Kind: "stock_info"}
	m.RecordFallback(context.Background(), meta)
	m.RecordFallback(context.Background(), meta)

	sum := collectSum(t, reader, "fetch.fallbacks")
	if sum == nil {
		t.Fatal("fetch.fallbacks metric not found")
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if sum.DataPoints[0].Value != 2 {
		t.Errorf("expected fallback count 2, got %d", sum.DataPoints[0].Value)
	}
}

// TestMetrics_DurationHistogramRecords verifies duration is recorded.
func TestMetrics_DurationHistogramRecords(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := FetchMeta{Source: "yfinance", Kind: "historical_price"}
	m.RecordFetch(context.Background(), meta, 50*time.Millisecond, nil)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	found := findMetric(rm, "fetch.duration_ms")
	if found == nil {
		t.Fatal("fetch.duration_ms metric not found")
	}

	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points")
	}

	dp := hist.DataPoints[0]
	if dp.Sum < 40 || dp.Sum > 60 {
		t.Errorf("expected duration ~50ms, got %f", dp.Sum)
	}
}

// TestMetrics_LabelsApplied verifies labels include fetch metadata.
func TestMetrics_LabelsApplied(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := FetchMeta{Source: "tushare", Kind: "industry_info"}
	m.RecordFetch(context.Background(), meta, 10*time.Millisecond, nil)

	sum := collectSum(t, reader, "fetch.total")
	if sum == nil {
		t.Fatal("fetch.total metric not found")
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}

	var foundSource, foundKind bool
	for iter := sum.DataPoints[0].Attributes.Iter(); iter.Next(); {
		kv := iter.Attribute()
		switch string(kv.Key) {
		case "source.name":
			foundSource = true
			if kv.Value.AsString() != "tushare" {
				t.Errorf("expected source.name='tushare', got %q", kv.Value.AsString())
			}
		case "fetch.kind":
			foundKind = true
			if kv.Value.AsString() != "industry_info" {
				t.Errorf("expected fetch.kind='industry_info', got %q", kv.Value.AsString())
			}
		}
	}

	if !foundSource {
		t.Error("source.name attribute not found")
	}
	if !foundKind {
		t.Error("fetch.kind attribute not found")
	}
}

// TestMetrics_ConcurrentRecording verifies thread safety.
func TestMetrics_ConcurrentRecording(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := FetchMeta{Source: "tushare", Kind: "stock_info"}
	const numGoroutines = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			m.RecordFetch(context.Background(), meta, time.Millisecond, nil)
		}()
	}
	wg.Wait()

	sum := collectSum(t, reader, "fetch.total")
	if sum == nil {
		t.Fatal("fetch.total metric not found")
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if sum.DataPoints[0].Value != numGoroutines {
		t.Errorf("expected count %d, got %d", numGoroutines, sum.DataPoints[0].Value)
	}
}

// findMetric searches for a metric by name in ResourceMetrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}
