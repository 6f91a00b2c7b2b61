package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestEndpointChecker_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	checker := NewEndpointChecker("api", EndpointCheckerConfig{URL: srv.URL})

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("expected healthy, got %v: %s", result.Status, result.Message)
	}
	if result.Details["status_code"] != http.StatusOK {
		t.Errorf("expected status code detail, got %v", result.Details["status_code"])
	}
}

func TestEndpointChecker_DegradedOn4xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	checker := NewEndpointChecker("api", EndpointCheckerConfig{URL: srv.URL})

	result := checker.Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("expected degraded on 403, got %v", result.Status)
	}
}

func TestEndpointChecker_UnhealthyOn5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	checker := NewEndpointChecker("api", EndpointCheckerConfig{URL: srv.URL})

	result := checker.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy on 500, got %v", result.Status)
	}
}

func TestEndpointChecker_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens now

	checker := NewEndpointChecker("api", EndpointCheckerConfig{
		URL:     srv.URL,
		Timeout: time.Second,
	})

	result := checker.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy for unreachable host, got %v", result.Status)
	}
	if result.Error == nil {
		t.Error("expected transport error carried")
	}
}
