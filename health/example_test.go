package health_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/dataops/cache"
	"github.com/jonwraymond/dataops/health"
)

func ExampleAggregator() {
	agg := health.NewAggregator()

	agg.Register("tushare", health.NewProbeChecker("tushare", func(ctx context.Context) error {
		return nil
	}))

	store := cache.NewLRUStore(100)
	store.Set("stock_info:AAPL", "Apple Inc.", time.Minute, nil)
	agg.Register("cache", health.NewCacheChecker("cache", store))

	results := agg.CheckAll(context.Background())
	fmt.Println(agg.OverallStatus(results))

	// Output:
	// healthy
}
