package engine

// Level classifies an engine log line.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Observer receives progress and log events from a run. Calls are made from
// the goroutine running the pipeline.
type Observer interface {
	// Progress reports a coarse completion percentage (0-100) and a status line.
	Progress(percent float64, status string)
	// Log reports a discrete, human-readable event.
	Log(message string, level Level)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are ignored.
type ObserverFuncs struct {
	ProgressFunc func(percent float64, status string)
	LogFunc      func(message string, level Level)
}

func (o ObserverFuncs) Progress(percent float64, status string) {
	if o.ProgressFunc != nil {
		o.ProgressFunc(percent, status)
	}
}

func (o ObserverFuncs) Log(message string, level Level) {
	if o.LogFunc != nil {
		o.LogFunc(message, level)
	}
}
