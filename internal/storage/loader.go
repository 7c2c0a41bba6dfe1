package storage

import (
	"context"
	"fmt"
	"time"

	"csvmerge/internal/logging"
)

// CopyFn abstracts a backend's bulk insert. It inserts rows aligned to
// columns and returns how many it wrote.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn for each non-empty batch. It returns the running total and the
// first error. onFlush, if set, is called after each successful batch.
//
// A progress line is logged at debug level per batch.
func LoadBatches(
	ctx context.Context,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
	onFlush func(n int64),
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total   int64
		batches int64
		batch   = make([][]any, 0, batchSize)
		last    = time.Now()
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			return fmt.Errorf("batch %d: %w", batches+1, err)
		}

		batches++
		now := time.Now()
		rps := float64(0)
		if d := now.Sub(last); d > 0 {
			rps = float64(n) / d.Seconds()
		}
		logging.FromContext(ctx).Debug("export batch", "batch", batches, "rows", n, "total", total, "rps", int64(rps))
		last = now
		if onFlush != nil {
			onFlush(n)
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
