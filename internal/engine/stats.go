package engine

import "time"

// Phase is a state of the pipeline state machine.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseReading      Phase = "reading"
	PhaseFiltering    Phase = "filtering"
	PhaseTransforming Phase = "transforming"
	PhaseDeduping     Phase = "deduping"
	PhaseSorting      Phase = "sorting"
	PhaseWriting      Phase = "writing"
	PhaseDone         Phase = "done"
	PhaseCancelled    Phase = "cancelled"
)

// Stats accumulates the counters of one run. The engine owns it while the run
// is in progress; callers receive it once the run has ended.
type Stats struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	// Phase is the terminal state: PhaseDone or PhaseCancelled.
	Phase   Phase         `json:"phase"`
	Elapsed time.Duration `json:"elapsed"`

	FilesProcessed    int `json:"files_processed"`
	FilesSkipped      int `json:"files_skipped"`
	TotalRowsRead     int `json:"total_rows_read"`
	RowsFiltered      int `json:"rows_filtered"`
	DuplicatesRemoved int `json:"duplicates_removed"`
	// FinalRowCount is set on entering the writing phase and counts the rows
	// handed to the destination, whether or not the write succeeded.
	FinalRowCount int      `json:"final_row_count"`
	UniqueColumns int      `json:"unique_columns"`
	Errors        []string `json:"errors"`
}

// Cancelled reports whether the run stopped early on request.
func (s *Stats) Cancelled() bool { return s.Phase == PhaseCancelled }
