package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func feed(n int) <-chan []any {
	in := make(chan []any, n)
	for i := 0; i < n; i++ {
		in <- []any{i, "x"}
	}
	close(in)
	return in
}

func countingCopy(sizes *[]int) CopyFn {
	return func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		*sizes = append(*sizes, len(rows))
		return int64(len(rows)), nil
	}
}

func TestLoadBatches_Batching(t *testing.T) {
	t.Parallel()

	var sizes []int
	var flushed []int64
	total, err := LoadBatches(context.Background(), []string{"a", "b"}, feed(7), 3,
		countingCopy(&sizes), func(n int64) { flushed = append(flushed, n) })
	if err != nil {
		t.Fatalf("LoadBatches: %v", err)
	}
	if total != 7 {
		t.Fatalf("total=%d, want 7", total)
	}
	if len(sizes) != 3 || sizes[0] != 3 || sizes[1] != 3 || sizes[2] != 1 {
		t.Fatalf("batch sizes=%v, want [3 3 1]", sizes)
	}
	if len(flushed) != 3 || flushed[2] != 1 {
		t.Fatalf("onFlush calls=%v", flushed)
	}
}

func TestLoadBatches_BadArgs(t *testing.T) {
	t.Parallel()

	var sizes []int
	if _, err := LoadBatches(context.Background(), nil, feed(1), 0, countingCopy(&sizes), nil); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
	if _, err := LoadBatches(context.Background(), nil, feed(1), 1, nil, nil); err == nil {
		t.Fatalf("expected error for nil copyFn")
	}
}

// TestLoadBatches_ErrorStops checks that the first copy error ends the load
// and the rows of earlier batches are still counted.
func TestLoadBatches_ErrorStops(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("copy failed")
	calls := 0
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		calls++
		if calls == 2 {
			return 0, wantErr
		}
		return int64(len(rows)), nil
	}

	total, err := LoadBatches(context.Background(), []string{"c"}, feed(6), 2, copyFn, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err=%v, want %v", err, wantErr)
	}
	if total != 2 || calls != 2 {
		t.Fatalf("total=%d calls=%d, want 2 and 2", total, calls)
	}
}

func TestLoadBatches_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan []any) // never closed
	errCh := make(chan error, 1)
	go func() {
		var sizes []int
		_, err := LoadBatches(ctx, []string{"c"}, in, 2, countingCopy(&sizes), nil)
		errCh <- err
	}()
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err=%v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("LoadBatches did not return after cancel")
	}
}
