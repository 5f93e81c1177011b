package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"csvmerge/internal/metrics"
	"csvmerge/internal/metrics/datadog"
	"csvmerge/internal/metrics/prompush"
)

type metricsOptions struct {
	backend     string
	job         string
	pushgateway string
	dogstatsd   string
}

func addMetricsFlags(f *pflag.FlagSet, o *metricsOptions) {
	f.StringVar(&o.backend, "metrics-backend", envOr(envMetricsBackend, "none"), "metrics backend: none|pushgateway|datadog")
	f.StringVar(&o.job, "metrics-job", envOr(envMetricsJob, prompush.DefaultJob), "Pushgateway job name")
	f.StringVar(&o.pushgateway, "pushgateway-url", envOr(envPushgateway, "http://localhost:9091"), "Pushgateway base URL")
	f.StringVar(&o.dogstatsd, "dogstatsd-addr", envOr(envDogStatsD, "127.0.0.1:8125"), "DogStatsD address")
}

// setupMetrics installs the selected backend and returns a function that
// flushes it at exit.
func setupMetrics(o metricsOptions) (func(), error) {
	var (
		b   metrics.Backend
		err error
	)
	switch o.backend {
	case "", "none":
		return func() {}, nil
	case "pushgateway":
		b, err = prompush.NewBackend(o.job, o.pushgateway)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       o.dogstatsd,
			Namespace:  "csvmerge.",
			GlobalTags: []string{"job:" + o.job},
		})
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", o.backend)
	}
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	slog.Info("metrics: enabled", "backend", o.backend)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			slog.Warn("metrics: flush failed", "backend", o.backend, "err", err)
		}
		metrics.SetBackend(nil)
	}, nil
}
