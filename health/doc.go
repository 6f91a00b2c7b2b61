// Package health provides health checking for the data-access layer.
//
// A Checker is any component that can report its health status: Healthy,
// Degraded, or Unhealthy. The package ships checkers for data source
// probes (ProbeChecker), upstream HTTP APIs (EndpointChecker), and cache
// occupancy (CacheChecker).
//
// Use Aggregator to combine checkers into a single composite check:
//
//	agg := health.NewAggregator()
//	agg.Register("tushare", health.NewProbeChecker("tushare", src.Probe))
//	agg.Register("cache", health.NewCacheChecker("cache", store))
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// HTTP handlers expose the aggregate over the usual endpoints:
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
package health
