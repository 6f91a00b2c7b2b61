package health

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// EndpointCheckerConfig configures the HTTP endpoint checker.
type EndpointCheckerConfig struct {
	// URL is the endpoint to probe. Required.
	URL string

	// Timeout bounds the probe request. Default: 5 seconds.
	Timeout time.Duration

	// Client is the HTTP client to use. Default: a client with the
	// configured timeout.
	Client *http.Client
}

// EndpointChecker probes an upstream HTTP API by issuing a GET to its
// base URL. A 2xx or 3xx response is healthy, a 4xx is degraded (the
// host is reachable but rejecting us), and a 5xx or transport error is
// unhealthy.
type EndpointChecker struct {
	name   string
	config EndpointCheckerConfig
}

// NewEndpointChecker creates a checker for an HTTP endpoint.
func NewEndpointChecker(name string, config EndpointCheckerConfig) *EndpointChecker {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Client == nil {
		config.Client = &http.Client{Timeout: config.Timeout}
	}
	return &EndpointChecker{name: name, config: config}
}

// Name returns the name of this checker.
func (e *EndpointChecker) Name() string {
	return e.name
}

// Check issues the probe request.
func (e *EndpointChecker) Check(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.config.URL, nil)
	if err != nil {
		return Unhealthy("invalid endpoint URL", err)
	}

	start := time.Now()
	resp, err := e.config.Client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return Unhealthy("endpoint unreachable", err).WithDuration(latency)
	}
	defer resp.Body.Close()

	details := map[string]any{
		"url":         e.config.URL,
		"status_code": resp.StatusCode,
		"latency_ms":  float64(latency.Milliseconds()),
	}

	switch {
	case resp.StatusCode < 400:
		return Healthy(fmt.Sprintf("endpoint responded %d", resp.StatusCode)).
			WithDetails(details).WithDuration(latency)
	case resp.StatusCode < 500:
		return Degraded(fmt.Sprintf("endpoint rejected probe: %d", resp.StatusCode)).
			WithDetails(details).WithDuration(latency)
	default:
		return Unhealthy(fmt.Sprintf("endpoint error: %d", resp.StatusCode), ErrCheckFailed).
			WithDetails(details).WithDuration(latency)
	}
}

// Ensure EndpointChecker implements Checker
var _ Checker = (*EndpointChecker)(nil)
