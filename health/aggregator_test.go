package health

import (
	"context"
	"testing"
	"time"
)

func TestNewAggregator(t *testing.T) {
	agg := NewAggregator()

	if agg.config.Timeout != 10*time.Second {
		t.Errorf("Default timeout = %v, want 10s", agg.config.Timeout)
	}
	if !agg.config.Parallel {
		t.Error("Default Parallel should be true")
	}
}

func TestNewAggregator_WithConfig(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{
		Timeout:  5 * time.Second,
		Parallel: false,
	})

	if agg.config.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", agg.config.Timeout)
	}
	if agg.config.Parallel {
		t.Error("Parallel should be false")
	}
}

func TestAggregator_Register(t *testing.T) {
	agg := NewAggregator()

	checker := NewCheckerFunc("tushare", func(ctx context.Context) Result {
		return Healthy("reachable")
	})

	agg.Register("tushare", checker)

	names := agg.CheckerNames()
	if len(names) != 1 {
		t.Fatalf("Expected 1 checker, got %d", len(names))
	}
	if names[0] != "tushare" {
		t.Errorf("Checker name = %v, want 'tushare'", names[0])
	}
}

func TestAggregator_Unregister(t *testing.T) {
	agg := NewAggregator()

	checker := NewCheckerFunc("tushare", func(ctx context.Context) Result {
		return Healthy("reachable")
	})

	agg.Register("tushare", checker)
	agg.Unregister("tushare")

	names := agg.CheckerNames()
	if len(names) != 0 {
		t.Errorf("Expected 0 checkers, got %d", len(names))
	}
}

func TestAggregator_Check(t *testing.T) {
	agg := NewAggregator()

	checker := NewCheckerFunc("tushare", func(ctx context.Context) Result {
		return Healthy("reachable")
	})

	agg.Register("tushare", checker)

	result, err := agg.Check(context.Background(), "tushare")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	if result.Status != StatusHealthy {
		t.Errorf("Result.Status = %v, want StatusHealthy", result.Status)
	}
}

func TestAggregator_CheckNotFound(t *testing.T) {
	agg := NewAggregator()

	_, err := agg.Check(context.Background(), "nonexistent")
	if err != ErrCheckerNotFound {
		t.Errorf("Check() error = %v, want ErrCheckerNotFound", err)
	}
}

func TestAggregator_CheckAll(t *testing.T) {
	agg := NewAggregator()

	agg.Register("tushare", NewCheckerFunc("tushare", func(ctx context.Context) Result {
		return Healthy("reachable")
	}))
	agg.Register("cache", NewCheckerFunc("cache", func(ctx context.Context) Result {
		return Degraded("nearly full")
	}))

	results := agg.CheckAll(context.Background())

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	if results["tushare"].Status != StatusHealthy {
		t.Errorf("tushare status = %v, want StatusHealthy", results["tushare"].Status)
	}
	if results["cache"].Status != StatusDegraded {
		t.Errorf("cache status = %v, want StatusDegraded", results["cache"].Status)
	}
}

func TestAggregator_CheckAllEmpty(t *testing.T) {
	agg := NewAggregator()

	results := agg.CheckAll(context.Background())

	if len(results) != 0 {
		t.Errorf("Expected 0 results, got %d", len(results))
	}
}

func TestAggregator_CheckAllSequential(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{
		Parallel: false,
	})

	agg.Register("primary", NewCheckerFunc("primary", func(ctx context.Context) Result {
		return Healthy("reachable")
	}))
	agg.Register("backup", NewCheckerFunc("backup", func(ctx context.Context) Result {
		return Healthy("reachable")
	}))

	results := agg.CheckAll(context.Background())

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
}

func TestAggregator_CheckAllTimeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{
		Timeout: 50 * time.Millisecond,
	})

	agg.Register("slow-upstream", NewCheckerFunc("slow-upstream", func(ctx context.Context) Result {
		time.Sleep(200 * time.Millisecond)
		return Healthy("reachable")
	}))

	results := agg.CheckAll(context.Background())

	if results["slow-upstream"].Status != StatusUnhealthy {
		t.Errorf("slow-upstream status = %v, want StatusUnhealthy", results["slow-upstream"].Status)
	}
	if results["slow-upstream"].Error != ErrCheckTimeout {
		t.Errorf("slow-upstream error = %v, want ErrCheckTimeout", results["slow-upstream"].Error)
	}
}

func TestAggregator_OverallStatus(t *testing.T) {
	agg := NewAggregator()

	tests := []struct {
		name    string
		results map[string]Result
		want    Status
	}{
		{
			name:    "empty",
			results: map[string]Result{},
			want:    StatusHealthy,
		},
		{
			name: "all healthy",
			results: map[string]Result{
				"sources": Healthy("reachable"),
				"cache":   Healthy("ok"),
			},
			want: StatusHealthy,
		},
		{
			name: "one degraded",
			results: map[string]Result{
				"sources": Healthy("reachable"),
				"cache":   Degraded("nearly full"),
			},
			want: StatusDegraded,
		},
		{
			name: "one unhealthy",
			results: map[string]Result{
				"sources": Healthy("reachable"),
				"cache":   Unhealthy("down", nil),
			},
			want: StatusUnhealthy,
		},
		{
			name: "unhealthy overrides degraded",
			results: map[string]Result{
				"sources": Degraded("slow"),
				"cache":   Unhealthy("down", nil),
			},
			want: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := agg.OverallStatus(tt.results)
			if got != tt.want {
				t.Errorf("OverallStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregator_Checker(t *testing.T) {
	agg := NewAggregator()

	agg.Register("tushare", NewCheckerFunc("tushare", func(ctx context.Context) Result {
		return Healthy("reachable")
	}))

	checker := agg.Checker()

	if checker.Name() != "aggregate" {
		t.Errorf("Name() = %v, want 'aggregate'", checker.Name())
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want StatusHealthy", result.Status)
	}
	if result.Details == nil {
		t.Error("Details should not be nil")
	}
}

func TestAggregator_CheckerWithUnhealthy(t *testing.T) {
	agg := NewAggregator()

	agg.Register("tushare", NewCheckerFunc("tushare", func(ctx context.Context) Result {
		return Unhealthy("down", nil)
	}))

	checker := agg.Checker()
	result := checker.Check(context.Background())

	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want StatusUnhealthy", result.Status)
	}
	if result.Message != "some checks failed" {
		t.Errorf("Message = %v, want 'some checks failed'", result.Message)
	}
}

func TestAggregator_RegisterDuplicate(t *testing.T) {
	agg := NewAggregator()

	checker1 := NewCheckerFunc("tushare", func(ctx context.Context) Result {
		return Healthy("first probe")
	})
	checker2 := NewCheckerFunc("tushare", func(ctx context.Context) Result {
		return Healthy("second probe")
	})

	agg.Register("tushare", checker1)
	agg.Register("tushare", checker2) // Should replace

	names := agg.CheckerNames()
	if len(names) != 1 {
		t.Errorf("Expected 1 checker after duplicate, got %d", len(names))
	}

	result, _ := agg.Check(context.Background(), "tushare")
	if result.Message != "second probe" {
		t.Errorf("Message = %v, want 'second probe' (replacement)", result.Message)
	}
}
