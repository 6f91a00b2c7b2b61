package observe_test

import (
	"context"
	"fmt"
	"os"

	"github.com/jonwraymond/dataops/observe"
)

func ExampleNewObserver() {
	cfg := observe.Config{
		ServiceName: "dataops",
		Version:     "1.0.0",
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}

	obs, err := observe.NewObserver(context.Background(), cfg)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer obs.Shutdown(context.Background())

	fmt.Println("observer ready")

	// Output:
	// observer ready
}

func ExampleConfig_Validate() {
	cfg := observe.Config{
		ServiceName: "dataops",
		Tracing: observe.TracingConfig{
			Enabled:   true,
			Exporter:  "carrier-pigeon",
			SamplePct: 0.5,
		},
	}

	if err := cfg.Validate(); err != nil {
		fmt.Println("invalid config")
	}

	// Output:
	// invalid config
}

func ExampleFetchMeta_SpanName() {
	meta := observe.FetchMeta{
		Source: "tushare",
		Kind:   "stock_info",
	}
	fmt.Println(meta.SpanName())

	// Output:
	// fetch.tushare.stock_info
}

func ExampleNewLoggerWithWriter() {
	logger := observe.NewLoggerWithWriter("error", os.Stdout)

	// Filtered out at error level; nothing is printed.
	logger.Info(context.Background(), "fetch completed")

	fmt.Println("done")

	// Output:
	// done
}
