// Package transformer defines the row-set stages run between unification and
// output, and the Chain that sequences them.
package transformer

import (
	"context"
	"time"

	"csvmerge/internal/records"
)

// Transformer maps one row set to another. Implementations may reuse the
// input's backing arrays; callers must not use the input afterwards.
type Transformer interface {
	Apply(rs records.RowSet) records.RowSet
}

// Func adapts a plain function to Transformer.
type Func func(records.RowSet) records.RowSet

func (f Func) Apply(rs records.RowSet) records.RowSet { return f(rs) }

// Stage is a named step of a Chain.
type Stage struct {
	Name string
	Transformer
}

// Chain applies stages in order.
type Chain []Stage

// Apply runs every stage without observation or cancellation.
func (c Chain) Apply(rs records.RowSet) records.RowSet {
	for _, s := range c {
		rs = s.Apply(rs)
	}
	return rs
}

// Observer receives stage boundaries. Either callback may be nil.
type Observer struct {
	Started   func(stage string, rows int)
	Completed func(stage string, in, out int, took time.Duration)
}

// Run applies the stages in order, checking ctx before each one. On
// cancellation it returns ctx.Err() and the partial row set is dropped.
func (c Chain) Run(ctx context.Context, rs records.RowSet, obs Observer) (records.RowSet, error) {
	for _, s := range c {
		if err := ctx.Err(); err != nil {
			return records.RowSet{}, err
		}
		in := rs.Len()
		if obs.Started != nil {
			obs.Started(s.Name, in)
		}
		start := time.Now()
		rs = s.Apply(rs)
		if obs.Completed != nil {
			obs.Completed(s.Name, in, rs.Len(), time.Since(start))
		}
	}
	if err := ctx.Err(); err != nil {
		return records.RowSet{}, err
	}
	return rs, nil
}
