// Package engine drives a consolidation run: it reads every input file, runs
// the filter, transform, dedupe and sort stages over the merged rows, and
// writes the result to a destination.
//
// Phases execute strictly in order on the caller's goroutine (see Start for
// running them on a worker). Cancellation is cooperative and observed only at
// phase boundaries and between input files.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"csvmerge/internal/config"
	"csvmerge/internal/logging"
	"csvmerge/internal/metrics"
	"csvmerge/internal/parser/csv"
	"csvmerge/internal/records"
	"csvmerge/internal/storage"
	"csvmerge/internal/transformer"
	"csvmerge/internal/transformer/builtin"

	// plain file paths are always a valid destination.
	_ "csvmerge/internal/storage/file"
)

// Progress checkpoints. Reading spans [0, readingSpan).
const (
	readingSpan     = 40
	pctFiltering    = 45
	pctTransforming = 55
	pctDeduping     = 65
	pctSorting      = 80
	pctWriting      = 90
	pctDone         = 100
)

// Engine runs the consolidation pipeline. The zero value is ready to use.
// An Engine holds no state between runs besides the cancellation flag, which
// every run resets on entry.
type Engine struct {
	cancelled atomic.Bool

	// open resolves a destination; nil means storage.Open.
	open func(ctx context.Context, cfg storage.Config) (storage.Sink, error)
}

// New returns an Engine.
func New() *Engine { return &Engine{} }

// Cancel requests that the current run stop at its next phase boundary. It is
// safe to call from any goroutine.
func (e *Engine) Cancel() { e.cancelled.Store(true) }

// DiscoverColumns returns the ordered union of header names across files,
// honouring the input encoding and delimiter overrides in cfg. Unreadable
// files are skipped.
func (e *Engine) DiscoverColumns(ctx context.Context, files []string, cfg config.ProcessingConfig) []string {
	return csv.DiscoverColumns(ctx, files, readerOptions(cfg))
}

// Process runs the pipeline over files and writes the result to out, which is
// a file path or a database URL (see storage.Open). It never panics on bad
// data and reports every problem through obs and Stats.Errors. A nil obs
// discards events.
func (e *Engine) Process(ctx context.Context, files []string, out string, cfg config.ProcessingConfig, obs Observer) *Stats {
	e.cancelled.Store(false)
	if obs == nil {
		obs = ObserverFuncs{}
	}

	st := &Stats{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Phase:     PhaseIdle,
	}
	ctx = logging.WithRunID(ctx, st.RunID)
	r := &run{
		eng:   e,
		ctx:   ctx,
		cfg:   cfg.Clone(),
		obs:   obs,
		stats: st,
		out:   out,
		log:   logging.FromContext(ctx),
		p:     message.NewPrinter(language.English),
	}
	r.execute(files)
	st.Elapsed = time.Since(st.StartedAt)

	metrics.RecordFiles("processed", int64(st.FilesProcessed))
	metrics.RecordFiles("skipped", int64(st.FilesSkipped))
	metrics.RecordRows("read", int64(st.TotalRowsRead))
	metrics.RecordRows("filtered", int64(st.RowsFiltered))
	metrics.RecordRows("duplicates", int64(st.DuplicatesRemoved))
	r.log.Info("engine: run finished",
		"phase", st.Phase,
		"files_processed", st.FilesProcessed,
		"files_skipped", st.FilesSkipped,
		"rows_read", st.TotalRowsRead,
		"final_rows", st.FinalRowCount,
		"errors", len(st.Errors),
		"elapsed", st.Elapsed.Truncate(time.Millisecond),
	)
	return st
}

func readerOptions(cfg config.ProcessingConfig) csv.Options {
	return csv.Options{
		TrimSpace: cfg.TrimWhitespace,
		Encoding:  cfg.InputEncoding,
		Delimiter: cfg.InputDelimiterRune(),
	}
}

// run is the state of one Process call.
type run struct {
	eng   *Engine
	ctx   context.Context
	cfg   config.ProcessingConfig
	obs   Observer
	stats *Stats
	out   string
	log   *slog.Logger
	p     *message.Printer
}

func (r *run) execute(files []string) {
	if len(files) == 0 {
		r.fail("No input files")
		r.stats.Phase = PhaseDone
		return
	}

	if !r.enter(PhaseReading) {
		return
	}
	rows, columns, ok := r.read(files)
	if !ok {
		return
	}
	r.stats.UniqueColumns = len(columns)
	if len(rows) == 0 {
		r.emit("No data to process", LevelWarning)
		r.stats.Phase = PhaseDone
		return
	}

	final := r.cfg.FinalColumns(columns)

	if len(r.cfg.Filters) > 0 {
		if !r.enter(PhaseFiltering) {
			return
		}
		r.obs.Progress(pctFiltering, "Applying filters...")
		r.emit(r.p.Sprintf("Applying %d filter(s)...", len(r.cfg.Filters)), LevelInfo)
		f := builtin.Filter{Predicates: r.cfg.Filters, Logic: r.cfg.FilterLogic}
		rows = r.apply(PhaseFiltering, f, rows, func(before, after int) {
			r.stats.RowsFiltered = before - after
			r.emit(r.p.Sprintf("Filtered out %d rows", r.stats.RowsFiltered), LevelInfo)
		})
	}

	if !r.enter(PhaseTransforming) {
		return
	}
	r.obs.Progress(pctTransforming, "Applying transformations...")
	r.emit("Applying transformations...", LevelInfo)
	norm := builtin.Normalize{
		Columns:    final,
		Mapping:    r.cfg.ColumnMapping,
		Case:       r.cfg.CaseTransform,
		EmptyValue: r.cfg.EmptyValue,
	}
	rows = r.apply(PhaseTransforming, norm, rows, nil)
	outCols := norm.OutputColumns()

	if r.cfg.DedupeEnabled {
		if !r.enter(PhaseDeduping) {
			return
		}
		r.obs.Progress(pctDeduping, "Removing duplicates...")
		r.emit("Removing duplicates...", LevelInfo)
		dd := builtin.DeDup{
			Keys:          r.cfg.DedupeColumns,
			Mapping:       r.cfg.ColumnMapping,
			Policy:        r.cfg.DedupeKeep,
			CaseSensitive: r.cfg.SortCaseSensitive,
		}
		rows = r.apply(PhaseDeduping, dd, rows, func(before, after int) {
			r.stats.DuplicatesRemoved = before - after
			r.emit(r.p.Sprintf("Removed %d duplicates", r.stats.DuplicatesRemoved), LevelInfo)
		})
	}

	if r.cfg.SortEnabled && len(r.cfg.SortColumns) > 0 {
		if !r.enter(PhaseSorting) {
			return
		}
		r.obs.Progress(pctSorting, "Sorting data...")
		r.emit("Sorting data...", LevelInfo)
		s := builtin.Sort{
			Keys:          r.cfg.SortColumns,
			Mapping:       r.cfg.ColumnMapping,
			CaseSensitive: r.cfg.SortCaseSensitive,
			NumericAware:  r.cfg.SortNumericAware,
		}
		rows = r.apply(PhaseSorting, s, rows, func(_, _ int) {
			r.emit(r.p.Sprintf("Sorted by %d column(s)", len(r.cfg.SortColumns)), LevelInfo)
		})
	}

	if !r.enter(PhaseWriting) {
		return
	}
	r.stats.FinalRowCount = len(rows)
	r.obs.Progress(pctWriting, "Writing output...")
	r.emit("Writing output...", LevelInfo)
	r.write(outCols, rows)

	r.stats.Phase = PhaseDone
	r.obs.Progress(pctDone, "Complete!")
}

// enter checks for cancellation and moves the run into phase. It reports
// false when the run has been cancelled.
func (r *run) enter(phase Phase) bool {
	if r.eng.cancelled.Load() || r.ctx.Err() != nil {
		r.cancel()
		return false
	}
	r.stats.Phase = phase
	r.log.Debug("engine: phase", "phase", phase)
	return true
}

func (r *run) cancel() {
	r.stats.Phase = PhaseCancelled
	r.emit("Processing cancelled", LevelWarning)
}

// apply runs stage over rows, records its duration and calls done with the
// row counts before and after.
func (r *run) apply(phase Phase, stage transformer.Transformer, rows []records.Row, done func(before, after int)) []records.Row {
	start := time.Now()
	out := stage.Apply(rows)
	metrics.RecordPhase(string(phase), nil, time.Since(start))
	if done != nil {
		done(len(rows), len(out))
	}
	return out
}

func (r *run) emit(msg string, level Level) {
	r.obs.Log(msg, level)
	switch level {
	case LevelError:
		r.log.Error(msg)
	case LevelWarning:
		r.log.Warn(msg)
	default:
		r.log.Debug(msg, "level", string(level))
	}
}

// fail records msg as a run error and reports it.
func (r *run) fail(msg string) {
	r.stats.Errors = append(r.stats.Errors, msg)
	r.emit(msg, LevelError)
}

// read loads every input in order. It reports false if the run was cancelled
// between files.
func (r *run) read(files []string) ([]records.Row, []string, bool) {
	start := time.Now()
	reader := csv.NewReader(readerOptions(r.cfg))
	r.emit("Reading files...", LevelInfo)

	var (
		rows    []records.Row
		columns records.ColumnSet
	)
	for i, path := range files {
		if r.eng.cancelled.Load() || r.ctx.Err() != nil {
			metrics.RecordPhase(string(PhaseReading), context.Canceled, time.Since(start))
			r.cancel()
			return nil, nil, false
		}
		name := filepath.Base(path)
		r.obs.Progress(float64(i)/float64(len(files))*readingSpan, fmt.Sprintf("Reading %s...", name))

		t, err := reader.ReadFile(r.ctx, path)
		switch {
		case err == nil:
			r.stats.FilesProcessed++
			r.stats.TotalRowsRead += len(t.Rows)
			columns.Add(t.Columns...)
			rows = append(rows, t.Rows...)
			r.emit(r.p.Sprintf("%s (%d rows)", name, len(t.Rows)), LevelSuccess)
			r.log.Debug("engine: file read", "file", path, "encoding", t.Encoding, "delimiter", string(t.Delimiter), "rows", len(t.Rows))
		case errors.Is(err, os.ErrNotExist):
			r.stats.FilesSkipped++
			r.stats.Errors = append(r.stats.Errors, "Not found: "+name)
			r.emit("File not found: "+name, LevelError)
		default:
			r.stats.FilesSkipped++
			r.stats.Errors = append(r.stats.Errors, fmt.Sprintf("%s: %v", name, err))
			r.emit(fmt.Sprintf("Error reading %s: %v", name, err), LevelError)
		}
	}
	metrics.RecordPhase(string(PhaseReading), nil, time.Since(start))
	return rows, columns.Names(), true
}

// write hands rows to the destination. Failures are recorded, not returned.
func (r *run) write(columns []string, rows []records.Row) {
	start := time.Now()
	if len(rows) == 0 {
		r.emit("No data to write", LevelWarning)
		metrics.RecordPhase(string(PhaseWriting), nil, time.Since(start))
		return
	}

	open := r.eng.open
	if open == nil {
		open = storage.Open
	}
	n, err := func() (int64, error) {
		sink, err := open(r.ctx, storage.Config{Target: r.out, Output: r.cfg})
		if err != nil {
			return 0, err
		}
		n, err := sink.Write(r.ctx, columns, rows)
		if cerr := sink.Close(); err == nil {
			err = cerr
		}
		return n, err
	}()
	metrics.RecordPhase(string(PhaseWriting), err, time.Since(start))
	if err != nil {
		r.fail(fmt.Sprintf("Write error: %v", err))
		return
	}
	metrics.RecordRows("written", n)
	r.emit(r.p.Sprintf("Saved: %s (%d rows)", displayName(r.out), n), LevelSuccess)
}

// displayName shortens file destinations to their base name; database URLs
// are shown as their scheme.
func displayName(target string) string {
	if s := storage.Scheme(target); s != "file" {
		return s + " destination"
	}
	return filepath.Base(target)
}
