package pipeline

import (
	"time"

	"csvmerge/internal/metrics"
)

// EventKind classifies an Event.
type EventKind string

const (
	EventStageStarted   EventKind = "stage-started"
	EventStageCompleted EventKind = "stage-completed"
	EventWarning        EventKind = "warning"
	EventError          EventKind = "error"
	EventCancelled      EventKind = "cancelled"
)

// Stage names reported in events and metrics.
const (
	StageConfig    = "config"
	StageRead      = "read"
	StageUnify     = "unify"
	StageFilter    = "filter"
	StageDedupe    = "dedupe"
	StageSort      = "sort"
	StageTransform = "transform"
	StageProject   = "project"
	StageWrite     = "write"
	StageExport    = "export"
)

// Event is one progress notification. In and Out are row counts (file counts
// for the read stage) and are only set on stage-completed events, as is
// Elapsed.
type Event struct {
	Kind    EventKind
	RunID   string
	Stage   string
	Message string
	In, Out int
	Elapsed time.Duration
	Time    time.Time
}

// Sink receives events synchronously on the goroutine that called Run. A nil
// Sink discards them.
type Sink func(Event)

// reporter stamps events with the run ID and forwards them, and keeps the
// bounded warning sample for Stats.
type reporter struct {
	runID    string
	sink     Sink
	warnings *errAgg
	now      func() time.Time
}

func newReporter(runID string, sink Sink) *reporter {
	return &reporter{runID: runID, sink: sink, warnings: newErrAgg(maxWarningSamples), now: time.Now}
}

func (r *reporter) emit(e Event) {
	if r.sink == nil {
		return
	}
	e.RunID = r.runID
	e.Time = r.now()
	r.sink(e)
}

func (r *reporter) started(stage string, in int) {
	r.emit(Event{Kind: EventStageStarted, Stage: stage, In: in})
}

func (r *reporter) completed(stage string, in, out int, took time.Duration) {
	metrics.RecordStage(r.runID, stage, nil, took)
	r.emit(Event{Kind: EventStageCompleted, Stage: stage, In: in, Out: out, Elapsed: took})
}

func (r *reporter) warn(stage, msg string) {
	r.warnings.add(msg)
	r.emit(Event{Kind: EventWarning, Stage: stage, Message: msg})
}

func (r *reporter) fail(stage string, err error, took time.Duration) {
	metrics.RecordStage(r.runID, stage, err, took)
	r.emit(Event{Kind: EventError, Stage: stage, Message: err.Error()})
}

func (r *reporter) cancelled(stage string) {
	r.emit(Event{Kind: EventCancelled, Stage: stage, Message: ErrCancelled.Error()})
}
