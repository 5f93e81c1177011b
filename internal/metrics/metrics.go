// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from a consolidation run.
//
// A global, pluggable backend defaults to a no-op implementation, so the
// helpers are always safe to call. Concrete systems live in subpackages
// (prompush, datadog) and are installed with SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by the helpers below.
const (
	PhaseTotal           = "csvmerge_phase_total"
	PhaseDurationSeconds = "csvmerge_phase_duration_seconds"
	RowsTotal            = "csvmerge_rows_total"
	FilesTotal           = "csvmerge_files_total"
	BatchesTotal         = "csvmerge_batches_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// SetBackend installs a concrete backend. Passing nil restores the no-op backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		b = nopBackend{}
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordPhase counts one execution of a pipeline phase and observes its
// duration, labelled with success or failure.
func RecordPhase(phase string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"phase": phase, "status": status}
	b := current()
	b.IncCounter(PhaseTotal, 1, lbls)
	b.ObserveHistogram(PhaseDurationSeconds, d.Seconds(), lbls)
}

// RecordRows increments the row counter for kind.
//
// Kinds mirror the run statistics: "read", "filtered", "duplicates", "written".
func RecordRows(kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{"kind": kind})
}

// RecordFiles increments the file counter for status ("processed" or "skipped").
func RecordFiles(status string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(FilesTotal, float64(delta), Labels{"status": status})
}

// RecordBatches increments the database batch counter for table.
func RecordBatches(table string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{"table": table})
}
