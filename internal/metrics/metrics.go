// Package metrics is a small, backend-agnostic abstraction for recording
// operational metrics from a merge run.
//
// The default backend is a no-op, so the Record helpers are always safe to
// call. Concrete systems live in subpackages (prompush, datadog) and are
// installed by the binary with SetBackend.
package metrics

import "time"

// Metric names shared by every backend.
const (
	StageTotal    = "csvmerge_stage_total"
	StageDuration = "csvmerge_stage_duration_seconds"
	RowsTotal     = "csvmerge_rows_total"
	BatchesTotal  = "csvmerge_export_batches_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStage counts one stage execution and its latency. run is the run ID.
func RecordStage(run, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"run":    run,
		"stage":  stage,
		"status": status,
	}
	backend.IncCounter(StageTotal, 1, lbls)
	backend.ObserveHistogram(StageDuration, d.Seconds(), lbls)
}

// RecordRows adds delta to the row counter of the given kind. Kinds mirror
// the run statistics: "read", "filtered", "duplicates", "final", "exported".
func RecordRows(run, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"run":  run,
		"kind": kind,
	})
}

// RecordBatches counts export batches flushed to a database.
func RecordBatches(run string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{
		"run": run,
	})
}
