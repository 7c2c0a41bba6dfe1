package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrCancelled is returned when the context is cancelled before the output
	// is committed. It wraps context.Canceled.
	ErrCancelled = fmt.Errorf("merge cancelled: %w", context.Canceled)

	// ErrNoInput is returned when no input file could be read.
	ErrNoInput = errors.New("no readable input files")
)

// FileError is a per-file failure. The file is skipped and the run goes on.
type FileError struct {
	Path string
	Op   string // open, sample, parse
	Err  error
}

func (e *FileError) Error() string {
	msg := e.Err.Error()
	if strings.Contains(msg, e.Path) {
		return msg
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, msg)
}

func (e *FileError) Unwrap() error { return e.Err }

const maxWarningSamples = 50

// errAgg counts messages and keeps the first limit of them.
type errAgg struct {
	mu    sync.Mutex
	limit int
	count int
	first []string
}

func newErrAgg(limit int) *errAgg {
	return &errAgg{limit: limit}
}

func (a *errAgg) add(msg string) {
	a.mu.Lock()
	if a.count < a.limit {
		a.first = append(a.first, msg)
	}
	a.count++
	a.mu.Unlock()
}

// snapshot returns the kept samples, followed by a summary line when some
// were dropped.
func (a *errAgg) snapshot() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := append([]string(nil), a.first...)
	if a.count > len(a.first) {
		out = append(out, fmt.Sprintf("... and %d more", a.count-len(a.first)))
	}
	return out
}

func (a *errAgg) total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}
