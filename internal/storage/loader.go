package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultBatchSize is the number of rows per CopyFn call used by the
// database destinations.
const DefaultBatchSize = 5000

// CopyFn abstracts a backend's bulk insert capability. Implementations insert
// the provided rows (aligned to columns) and return the number of rows
// inserted. It should cancel promptly when ctx is done.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches splits rows into batches of batchSize and calls copyFn for each.
// It returns the total reported by copyFn and the first error encountered;
// rows after a failed batch are not attempted.
//
// A progress line is logged after every successful batch.
func LoadBatches(
	ctx context.Context,
	columns []string,
	rows [][]any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total   int64
		batches int
		start   = time.Now()
	)
	for lo := 0; lo < len(rows); lo += batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		hi := min(lo+batchSize, len(rows))
		n, err := copyFn(ctx, columns, rows[lo:hi])
		total += n
		if err != nil {
			slog.Error("loader: copy failed", "batch", batches+1, "inserted", n, "total", total, "err", err)
			return total, err
		}
		batches++
		slog.Debug("loader: batch copied",
			"batch", batches,
			"inserted", n,
			"total", total,
			"elapsed", time.Since(start).Truncate(time.Millisecond),
		)
	}
	return total, nil
}
