package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStreamsEvents(t *testing.T) {
	dir, files := scenarioFiles(t)
	out := filepath.Join(dir, "o.csv")

	job := Start(context.Background(), New(), files, out, unixConfig())

	var (
		progress []float64
		logs     []Event
	)
	for ev := range job.Events() {
		switch ev.Kind {
		case EventProgress:
			progress = append(progress, ev.Percent)
		case EventLog:
			logs = append(logs, ev)
		}
	}
	st := job.Wait()

	require.NotNil(t, st)
	assert.Equal(t, PhaseDone, st.Phase)
	assert.Equal(t, 3, st.FinalRowCount)
	assert.Equal(t, 1, st.DuplicatesRemoved)
	require.NotEmpty(t, progress)
	assert.Equal(t, float64(pctDone), progress[len(progress)-1])
	assert.IsNonDecreasing(t, progress)

	var success int
	for _, l := range logs {
		if l.Level == LevelSuccess {
			success++
		}
	}
	assert.Equal(t, 3, success, "two files read plus the saved line")

	_, err := os.Stat(out)
	assert.NoError(t, err)
}

func TestJobCancelBeforeStart(t *testing.T) {
	dir, files := scenarioFiles(t)
	out := filepath.Join(dir, "o.csv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job := Start(ctx, New(), files, out, unixConfig())
	st := job.Wait()

	assert.True(t, st.Cancelled())
	assert.Zero(t, st.FilesProcessed)
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestJobCancel(t *testing.T) {
	// Unbuffered events keep the worker in lock step with this goroutine, so
	// the cancel lands before the next phase boundary.
	prev := eventBuffer
	eventBuffer = 0
	t.Cleanup(func() { eventBuffer = prev })

	dir, files := scenarioFiles(t)
	out := filepath.Join(dir, "o.csv")

	job := Start(context.Background(), New(), files, out, unixConfig())
	for ev := range job.Events() {
		if ev.Kind == EventLog && ev.Level == LevelSuccess {
			job.Cancel()
			break
		}
	}
	st := job.Wait()

	assert.True(t, st.Cancelled())
	assert.Zero(t, st.FinalRowCount)
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}
