// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// Runs are short-lived, so collectors are held in a private registry and
// pushed to a Pushgateway on Flush instead of being scraped.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"csvmerge/internal/metrics"
)

// DefaultJob is the Pushgateway grouping job used when none is given.
const DefaultJob = "csvmerge"

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	phaseCounter  *prometheus.CounterVec // phase, status
	phaseDuration *prometheus.SummaryVec // phase, status
	rowCounter    *prometheus.CounterVec // kind
	fileCounter   *prometheus.CounterVec // status
	batchCounter  *prometheus.CounterVec // table
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name.
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = DefaultJob
	}

	reg := prometheus.NewRegistry()

	phaseCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.PhaseTotal,
			Help: "Pipeline phase executions, partitioned by phase and status.",
		},
		[]string{"phase", "status"},
	)
	phaseDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.PhaseDurationSeconds,
			Help:       "Duration of pipeline phases in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"phase", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Row counts per kind (read, filtered, duplicates, written).",
		},
		[]string{"kind"},
	)
	fileCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.FilesTotal,
			Help: "Input files per status (processed, skipped).",
		},
		[]string{"status"},
	)
	batchCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Database load batches flushed per table.",
		},
		[]string{"table"},
	)

	for _, c := range []prometheus.Collector{phaseCounter, phaseDuration, rowCounter, fileCounter, batchCounter} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		phaseCounter:  phaseCounter,
		phaseDuration: phaseDuration,
		rowCounter:    rowCounter,
		fileCounter:   fileCounter,
		batchCounter:  batchCounter,
	}, nil
}

// IncCounter implements metrics.Backend. Unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	var (
		vec    *prometheus.CounterVec
		values []string
	)
	switch name {
	case metrics.PhaseTotal:
		vec, values = b.phaseCounter, []string{labels["phase"], labels["status"]}
	case metrics.RowsTotal:
		vec, values = b.rowCounter, []string{labels["kind"]}
	case metrics.FilesTotal:
		vec, values = b.fileCounter, []string{labels["status"]}
	case metrics.BatchesTotal:
		vec, values = b.batchCounter, []string{labels["table"]}
	default:
		return
	}
	if vec == nil {
		return
	}
	vec.WithLabelValues(values...).Add(delta)
}

// ObserveHistogram implements metrics.Backend for the phase duration summary.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.PhaseDurationSeconds || b.phaseDuration == nil {
		return
	}
	b.phaseDuration.WithLabelValues(labels["phase"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	if b.reg == nil {
		return nil
	}
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
