// Package pipeline runs one merge: it reads the inputs in parallel, unifies
// their columns, applies filter, dedupe, sort, transform and column selection
// in that order, writes the result atomically and optionally exports it to a
// database.
//
// Progress goes to the Sink passed to Run; the package keeps no global state
// apart from the metrics backend.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"csvmerge/internal/config"
	"csvmerge/internal/logging"
	"csvmerge/internal/metrics"
	"csvmerge/internal/output"
	"csvmerge/internal/records"
	"csvmerge/internal/schema"
	"csvmerge/internal/storage"
	"csvmerge/internal/transformer"

	"github.com/google/uuid"
)

// Stats summarises a run. Row counts after a stage equal the previous count
// when the stage is not configured.
type Stats struct {
	RunID           string
	FilesInput      int
	FilesRead       int
	FilesSkipped    int
	RowsRead        int
	RowsAfterFilter int
	RowsAfterDedupe int
	FinalRows       int
	UniqueColumns   int
	OutputColumns   int
	RowsExported    int64
	OutputPath      string
	Elapsed         time.Duration
	// Warnings holds the first warnings of the run; WarningCount counts all.
	Warnings     []string
	WarningCount int
}

// newRunID is swapped in tests.
var newRunID = func() string { return uuid.NewString() }

// Run executes cfg. Configuration errors (wrapping config.ErrInvalid) abort
// before any input is read and nothing is written. Unreadable inputs are
// skipped with a warning; if none can be read Run returns ErrNoInput. If ctx
// is cancelled before the output is committed Run returns ErrCancelled and
// leaves any existing output file untouched.
func Run(ctx context.Context, cfg config.Config, sink Sink) (st Stats, err error) {
	start := time.Now()
	rep := newReporter(newRunID(), sink)
	ctx = logging.WithRunID(ctx, rep.runID)
	st = Stats{RunID: rep.runID, FilesInput: len(cfg.Inputs)}
	defer func() {
		st.Elapsed = time.Since(start)
		st.Warnings = rep.warnings.snapshot()
		st.WarningCount = rep.warnings.total()
	}()

	plan, err := compile(cfg, rep)
	if err != nil {
		return st, err
	}
	st.OutputPath = plan.Output.Path
	rt := resolveRuntime(plan.Runtime)

	// read
	if ctx.Err() != nil {
		rep.cancelled(StageRead)
		return st, ErrCancelled
	}
	rep.started(StageRead, len(plan.Inputs))
	t0 := time.Now()
	results, err := readInputs(ctx, plan.Inputs, rt.readWorkers, readTable(rt.sampleBytes))
	if err != nil {
		rep.cancelled(StageRead)
		return st, ErrCancelled
	}
	tables := make([]records.Table, 0, len(results))
	for i, res := range results {
		if res.err != nil {
			st.FilesSkipped++
			rep.warn(StageRead, "skipped "+res.err.Error())
			continue
		}
		if msg := sniffWarning(plan.Inputs[i], res.sniff); msg != "" {
			rep.warn(StageRead, msg)
		}
		if res.warning != "" {
			rep.warn(StageRead, res.warning)
		}
		tables = append(tables, res.table)
		st.RowsRead += len(res.table.Rows)
	}
	st.FilesRead = len(tables)
	if len(tables) == 0 {
		rep.fail(StageRead, ErrNoInput, time.Since(t0))
		return st, ErrNoInput
	}
	rep.completed(StageRead, len(plan.Inputs), len(tables), time.Since(t0))
	metrics.RecordRows(rep.runID, "read", int64(st.RowsRead))

	// unify
	rep.started(StageUnify, st.RowsRead)
	t0 = time.Now()
	rs := schema.Unify(tables)
	st.UniqueColumns = len(rs.Columns)
	rep.completed(StageUnify, st.RowsRead, rs.Len(), time.Since(t0))
	checkColumns(plan, rs.Columns, rep)

	// filter, dedupe, sort, transform, project
	st.RowsAfterFilter, st.RowsAfterDedupe = rs.Len(), rs.Len()
	current := StageFilter
	obs := transformer.Observer{
		Started: func(stage string, rows int) {
			current = stage
			rep.started(stage, rows)
		},
		Completed: func(stage string, in, out int, took time.Duration) {
			switch stage {
			case StageFilter:
				st.RowsAfterFilter, st.RowsAfterDedupe = out, out
				metrics.RecordRows(rep.runID, "filtered", int64(in-out))
			case StageDedupe:
				st.RowsAfterDedupe = out
				metrics.RecordRows(rep.runID, "duplicates", int64(in-out))
			}
			rep.completed(stage, in, out, took)
		},
	}
	rs, err = stages(plan).Run(ctx, rs, obs)
	if err != nil {
		rep.cancelled(current)
		return st, ErrCancelled
	}
	st.FinalRows = rs.Len()
	st.OutputColumns = len(rs.Columns)
	metrics.RecordRows(rep.runID, "final", int64(st.FinalRows))

	// write
	if ctx.Err() != nil {
		rep.cancelled(StageWrite)
		return st, ErrCancelled
	}
	rep.started(StageWrite, rs.Len())
	t0 = time.Now()
	err = output.WriteFile(ctx, plan.Output.Path, rs, output.Options{Dialect: plan.Output.Dialect, Header: plan.Output.Header})
	if err != nil {
		if ctx.Err() != nil {
			rep.cancelled(StageWrite)
			return st, ErrCancelled
		}
		err = fmt.Errorf("write %s: %w", plan.Output.Path, err)
		rep.fail(StageWrite, err, time.Since(t0))
		return st, err
	}
	rep.completed(StageWrite, rs.Len(), rs.Len(), time.Since(t0))

	// export
	if plan.Export.Kind == "" {
		return st, nil
	}
	rep.started(StageExport, rs.Len())
	t0 = time.Now()
	res, err := storage.Export(ctx, storage.Config{
		Kind:    plan.Export.Kind,
		DSN:     plan.Export.Options.String("dsn", ""),
		Table:   plan.Export.Options.String("table", ""),
		Columns: rs.Columns,
	}, rs.Rows, plan.Export.Options.Int("batch_size", storage.DefaultBatchSize))
	st.RowsExported = res.Rows
	metrics.RecordBatches(rep.runID, res.Batches)
	metrics.RecordRows(rep.runID, "exported", res.Rows)
	if err != nil {
		err = fmt.Errorf("export: %w", err)
		rep.fail(StageExport, err, time.Since(t0))
		return st, err
	}
	rep.completed(StageExport, rs.Len(), int(res.Rows), time.Since(t0))
	return st, nil
}

// compile validates cfg, reports its warnings and returns the plan.
func compile(cfg config.Config, rep *reporter) (config.Plan, error) {
	plan, issues := config.Build(cfg)
	for _, iss := range issues {
		if iss.Severity == config.SeverityWarning {
			rep.warn(StageConfig, iss.Error())
		}
	}
	if plan.Export.Kind != "" && !storage.Registered(plan.Export.Kind) {
		issues = append(issues, config.Issue{
			Severity: config.SeverityError,
			Path:     "export.kind",
			Message:  fmt.Sprintf("unknown export kind %q; available: %v", plan.Export.Kind, storage.ListKinds()),
		})
	}
	if err := config.Err(issues); err != nil {
		rep.fail(StageConfig, err, 0)
		return plan, err
	}
	if len(plan.Inputs) == 0 {
		rep.fail(StageConfig, ErrNoInput, 0)
		return plan, ErrNoInput
	}
	return plan, nil
}

// stages builds the fixed stage order.
func stages(p config.Plan) transformer.Chain {
	identity := transformer.Func(func(rs records.RowSet) records.RowSet { return rs })
	var filter, dedupe transformer.Transformer = identity, identity
	if p.Filter != nil {
		filter = p.Filter
	}
	if p.DeDup != nil {
		dedupe = *p.DeDup
	}
	return transformer.Chain{
		{Name: StageFilter, Transformer: filter},
		{Name: StageDedupe, Transformer: dedupe},
		{Name: StageSort, Transformer: p.Sort},
		{Name: StageTransform, Transformer: p.Normalize},
		{Name: StageProject, Transformer: p.Project},
	}
}

// checkColumns warns about column references the unified columns lack. Such
// references are ignored by their stages.
func checkColumns(p config.Plan, columns []string, rep *reporter) {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	missing := func(path, name string) {
		if !have[name] {
			rep.warn(StageUnify, fmt.Sprintf("%s: column %q is not in any input; ignored", path, name))
		}
	}
	if p.Filter != nil {
		for i, r := range p.Filter.Rules() {
			if !have[r.Column] {
				rep.warn(StageUnify, fmt.Sprintf("filter.rules[%d]: column %q is not in any input; compared as empty", i, r.Column))
			}
		}
	}
	if p.DeDup != nil {
		for i, c := range p.DeDup.Columns {
			missing(fmt.Sprintf("dedupe.columns[%d]", i), c)
		}
	}
	for i, k := range p.Sort.Keys {
		missing(fmt.Sprintf("sort.keys[%d]", i), k.Column)
	}
	for i, c := range p.Project.Selected {
		missing(fmt.Sprintf("columns.selected[%d]", i), c)
	}
	for i, c := range p.Project.Order {
		missing(fmt.Sprintf("columns.order[%d]", i), c)
	}
	for from := range p.Project.Rename {
		missing(fmt.Sprintf("columns.rename[%q]", from), from)
	}

	idx, names := p.Project.Plan(columns)
	seen := make(map[string]int, len(names))
	for k, name := range names {
		if prev, dup := seen[name]; dup {
			rep.warn(StageUnify, fmt.Sprintf("columns.rename: %q and %q are both written as %q; the header will repeat it",
				columns[idx[prev]], columns[idx[k]], name))
			continue
		}
		seen[name] = k
	}
}

// Discover reads only the header of each input and returns the unified
// column list in first-seen order, the list a column selection is made
// from. Unreadable inputs are skipped with a warning.
func Discover(ctx context.Context, cfg config.Config, sink Sink) ([]string, error) {
	rep := newReporter(newRunID(), sink)
	plan, err := compile(cfg, rep)
	if err != nil {
		return nil, err
	}
	rt := resolveRuntime(plan.Runtime)

	rep.started(StageRead, len(plan.Inputs))
	t0 := time.Now()
	results, err := readInputs(ctx, plan.Inputs, rt.readWorkers, readHeader(rt.sampleBytes))
	if err != nil {
		rep.cancelled(StageRead)
		return nil, ErrCancelled
	}
	headers := make([][]string, 0, len(results))
	for _, res := range results {
		if res.err != nil {
			rep.warn(StageRead, "skipped "+res.err.Error())
			continue
		}
		headers = append(headers, res.header)
	}
	if len(headers) == 0 {
		rep.fail(StageRead, ErrNoInput, time.Since(t0))
		return nil, ErrNoInput
	}
	cols := schema.Columns(headers)
	rep.completed(StageRead, len(plan.Inputs), len(headers), time.Since(t0))
	return cols, nil
}

// IsCancelled reports whether err is a cancellation outcome.
func IsCancelled(err error) bool { return errors.Is(err, ErrCancelled) }
