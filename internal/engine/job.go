package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"csvmerge/internal/config"
)

// EventKind distinguishes Event payloads.
type EventKind int

const (
	EventProgress EventKind = iota
	EventLog
)

// Event is one observer callback delivered over a Job's channel.
type Event struct {
	Kind EventKind
	// Percent and Status are set for EventProgress.
	Percent float64
	Status  string
	// Message and Level are set for EventLog.
	Message string
	Level   Level
}

// eventBuffer is the capacity of a Job's event channel.
var eventBuffer = 64

// Job is a run executing on its own worker goroutine.
type Job struct {
	events chan Event
	cancel context.CancelFunc
	g      *errgroup.Group
	stats  *Stats
}

// Start launches Process on a worker goroutine and returns immediately.
// Callers should drain Events until it is closed, then call Wait.
func Start(ctx context.Context, eng *Engine, files []string, out string, cfg config.ProcessingConfig) *Job {
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	j := &Job{
		events: make(chan Event, eventBuffer),
		cancel: cancel,
		g:      g,
	}
	snapshot := cfg.Clone()
	g.Go(func() error {
		defer close(j.events)
		j.stats = eng.Process(gctx, files, out, snapshot, j)
		return nil
	})
	return j
}

// Events returns the channel of observer events. It is closed when the run ends.
func (j *Job) Events() <-chan Event { return j.events }

// Cancel requests that the run stop at its next phase boundary.
func (j *Job) Cancel() { j.cancel() }

// Wait blocks until the run ends and returns its stats. Events not yet
// received are discarded.
func (j *Job) Wait() *Stats {
	for range j.events {
	}
	_ = j.g.Wait()
	j.cancel()
	return j.stats
}

// Progress implements Observer.
func (j *Job) Progress(percent float64, status string) {
	j.events <- Event{Kind: EventProgress, Percent: percent, Status: status}
}

// Log implements Observer.
func (j *Job) Log(message string, level Level) {
	j.events <- Event{Kind: EventLog, Message: message, Level: level}
}
