// Package datasource defines how the pipeline obtains raw input bytes.
package datasource

import (
	"context"
	"io"
)

// Source opens one input for reading.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name is a short, human-readable label used in logs and stats.
	Name() string
}
