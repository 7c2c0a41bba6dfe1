package config

import (
	"errors"
	"fmt"
	"strings"

	"csvmerge/internal/dialect"
	"csvmerge/internal/numeric"
	"csvmerge/internal/output"
	"csvmerge/internal/transformer/builtin"
)

// ErrInvalid wraps every configuration error returned by Err.
var ErrInvalid = errors.New("invalid configuration")

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is a dotted path into the
// document, e.g. "filter.rules[1].value".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Err joins the error-severity issues into one error wrapping ErrInvalid, or
// returns nil when there are none.
func Err(issues []Issue) error {
	var errs []error
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			errs = append(errs, iss)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// InputPlan is an input with its dialect overrides parsed. Zero Delimiter and
// empty Encoding mean "detect".
type InputPlan struct {
	Path      string
	Delimiter dialect.Delimiter
	Encoding  dialect.Encoding
}

// OutputPlan is the resolved output target.
type OutputPlan struct {
	Path    string
	Dialect dialect.Dialect
	Header  bool
}

// Plan is a validated Config turned into runnable stages.
type Plan struct {
	Inputs    []InputPlan
	Filter    *builtin.Filter
	DeDup     *builtin.DeDup // nil when dedupe is disabled
	Sort      builtin.Sort
	Normalize builtin.Normalize
	Project   builtin.Project
	Output    OutputPlan
	Export    Export
	Runtime   Runtime
}

// Validate returns every issue found in cfg. It does not mutate cfg.
func Validate(cfg Config) []Issue {
	_, issues := Build(cfg)
	return issues
}

// Build parses cfg into a Plan. The Plan is only usable when Err(issues) is
// nil.
func Build(cfg Config) (Plan, []Issue) {
	var (
		p      Plan
		issues []Issue
	)
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	for i, in := range cfg.Inputs {
		ip := InputPlan{Path: in.Path}
		if strings.TrimSpace(in.Path) == "" {
			add(SeverityError, fmt.Sprintf("inputs[%d].path", i), "input path must not be empty")
		}
		if !isAuto(in.Delimiter) {
			d, err := dialect.ParseDelimiter(in.Delimiter)
			if err != nil {
				add(SeverityError, fmt.Sprintf("inputs[%d].delimiter", i), "%v", err)
			}
			ip.Delimiter = d
		}
		if !isAuto(in.Encoding) {
			e, err := dialect.ParseEncoding(in.Encoding)
			if err != nil {
				add(SeverityError, fmt.Sprintf("inputs[%d].encoding", i), "%v", err)
			}
			ip.Encoding = e
		}
		p.Inputs = append(p.Inputs, ip)
	}

	// columns
	mode, err := builtin.ParseColumnMode(cfg.Columns.Mode)
	if err != nil {
		add(SeverityError, "columns.mode", "%v", err)
	}
	if mode == builtin.ColumnsInclude && len(cfg.Columns.Selected) == 0 {
		add(SeverityError, "columns.selected", "include mode requires at least one selected column")
	}
	if mode == builtin.ColumnsAll && len(cfg.Columns.Selected) > 0 {
		add(SeverityWarning, "columns.selected", "selected columns are ignored in mode all")
	}
	targets := map[string]string{}
	for from, to := range cfg.Columns.Rename {
		path := fmt.Sprintf("columns.rename[%q]", from)
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			add(SeverityError, path, "rename source and target must not be empty")
			continue
		}
		if prev, dup := targets[to]; dup {
			add(SeverityWarning, path, "columns %q and %q are both renamed to %q", prev, from, to)
		}
		targets[to] = from
	}
	p.Project = builtin.Project{
		Mode:     mode,
		Selected: cfg.Columns.Selected,
		Order:    cfg.Columns.Order,
		Rename:   cfg.Columns.Rename,
	}

	// filter
	logic, err := builtin.ParseLogic(cfg.Filter.Logic)
	if err != nil {
		add(SeverityError, "filter.logic", "%v", err)
	}
	rules := make([]builtin.Rule, 0, len(cfg.Filter.Rules))
	for i, fr := range cfg.Filter.Rules {
		base := fmt.Sprintf("filter.rules[%d]", i)
		if strings.TrimSpace(fr.Column) == "" {
			add(SeverityError, base+".column", "filter column must not be empty")
		}
		op, err := builtin.ParseOp(fr.Operator)
		if err != nil {
			add(SeverityError, base+".operator", "%v", err)
			continue
		}
		r := builtin.Rule{Column: fr.Column, Op: op, Value: fr.Value, CaseSensitive: fr.CaseSensitive}
		if _, err := builtin.NewFilter([]builtin.Rule{r}, logic); err != nil {
			add(SeverityError, base+".value", "%v", err)
			continue
		}
		if (op == builtin.OpGreaterThan || op == builtin.OpLessThan) && !numeric.Is(fr.Value) {
			add(SeverityWarning, base+".value", "%q is not a number; %s will match no rows", fr.Value, op)
		}
		rules = append(rules, r)
	}
	if f, err := builtin.NewFilter(rules, logic); err == nil {
		p.Filter = f
	}

	// dedupe
	keep, err := builtin.ParseKeep(cfg.Dedupe.Keep)
	if err != nil {
		add(SeverityError, "dedupe.keep", "%v", err)
	}
	for i, c := range cfg.Dedupe.Columns {
		if strings.TrimSpace(c) == "" {
			add(SeverityError, fmt.Sprintf("dedupe.columns[%d]", i), "dedupe column must not be empty")
		}
	}
	if cfg.Dedupe.Enabled {
		p.DeDup = &builtin.DeDup{Columns: cfg.Dedupe.Columns, Keep: keep}
	}

	// sort
	keys := make([]builtin.SortKey, 0, len(cfg.Sort.Keys))
	for i, k := range cfg.Sort.Keys {
		if strings.TrimSpace(k.Column) == "" {
			add(SeverityError, fmt.Sprintf("sort.keys[%d].column", i), "sort column must not be empty")
			continue
		}
		keys = append(keys, builtin.SortKey{Column: k.Column, Descending: k.Descending, CaseSensitive: k.CaseSensitive})
	}
	p.Sort = builtin.Sort{Keys: keys, NumericAware: cfg.Sort.NumericAware}

	// transform
	cm, err := builtin.ParseCase(cfg.Transform.Case)
	if err != nil {
		add(SeverityError, "transform.case", "%v", err)
	}
	p.Normalize = builtin.Normalize{Trim: cfg.Transform.Trim, Case: cm, EmptyValue: cfg.Transform.EmptyValue}

	// output
	out := cfg.Output
	p.Output = OutputPlan{Path: out.Path, Dialect: dialect.Default(), Header: out.Header}
	if strings.TrimSpace(p.Output.Path) == "" {
		p.Output.Path = DefaultOutputPath
	}
	if err := output.CheckPath(p.Output.Path); err != nil {
		add(SeverityError, "output.path", "%v", err)
	}
	if out.Delimiter != "" {
		if d, err := dialect.ParseDelimiter(out.Delimiter); err != nil {
			add(SeverityError, "output.delimiter", "%v", err)
		} else {
			p.Output.Dialect.Delimiter = d
		}
	}
	if out.Encoding != "" {
		if e, err := dialect.ParseEncoding(out.Encoding); err != nil {
			add(SeverityError, "output.encoding", "%v", err)
		} else {
			p.Output.Dialect.Encoding = e
		}
	}
	if out.Quoting != "" {
		if q, err := dialect.ParseQuoting(out.Quoting); err != nil {
			add(SeverityError, "output.quoting", "%v", err)
		} else {
			p.Output.Dialect.Quoting = q
		}
	}
	if le, err := dialect.ParseLineEnding(out.LineEnding); err != nil {
		add(SeverityError, "output.line_ending", "%v", err)
	} else {
		p.Output.Dialect.LineEnding = le
	}

	// export
	p.Export = cfg.Export
	if cfg.Export.Kind != "" {
		if cfg.Export.Options.String("dsn", "") == "" {
			add(SeverityError, "export.options.dsn", "export requires a dsn")
		}
		if cfg.Export.Options.String("table", "") == "" {
			add(SeverityError, "export.options.table", "export requires a table")
		}
	}

	// runtime
	if cfg.Runtime.ReadWorkers < 0 {
		add(SeverityError, "runtime.read_workers", "read_workers must not be negative")
	}
	if cfg.Runtime.SampleBytes < 0 {
		add(SeverityError, "runtime.sample_bytes", "sample_bytes must not be negative")
	}
	p.Runtime = cfg.Runtime

	return p, issues
}

func isAuto(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "auto")
}
