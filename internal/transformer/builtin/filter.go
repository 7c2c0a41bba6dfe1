// Package builtin holds the concrete row-set stages: filter, dedupe, sort,
// normalize and column projection.
package builtin

import (
	"fmt"
	"regexp"
	"strings"

	"csvmerge/internal/numeric"
	"csvmerge/internal/records"

	"github.com/shopspring/decimal"
)

// Op is a filter operator.
type Op int

const (
	OpEquals Op = iota
	OpNotEquals
	OpContains
	OpNotContains
	OpStartsWith
	OpEndsWith
	OpIsEmpty
	OpIsNotEmpty
	OpGreaterThan
	OpLessThan
	OpRegex
)

var opNames = [...]string{
	OpEquals:      "equals",
	OpNotEquals:   "not_equals",
	OpContains:    "contains",
	OpNotContains: "not_contains",
	OpStartsWith:  "starts_with",
	OpEndsWith:    "ends_with",
	OpIsEmpty:     "is_empty",
	OpIsNotEmpty:  "is_not_empty",
	OpGreaterThan: "greater_than",
	OpLessThan:    "less_than",
	OpRegex:       "regex",
}

func (o Op) String() string {
	if o >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// ParseOp accepts "not_equals", "not-equals", "Not Equals" and, for regex,
// "Regex Match".
func ParseOp(s string) (Op, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.NewReplacer(" ", "_", "-", "_").Replace(k)
	if k == "regex_match" || k == "matches" {
		k = "regex"
	}
	for i, n := range opNames {
		if n == k {
			return Op(i), nil
		}
	}
	return 0, fmt.Errorf("unknown filter operator %q", s)
}

// Logic combines rule results.
type Logic int

const (
	And Logic = iota
	Or
)

func (l Logic) String() string {
	if l == Or {
		return "or"
	}
	return "and"
}

// ParseLogic accepts "and"/"or" in any case; empty means and.
func ParseLogic(s string) (Logic, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "and", "all":
		return And, nil
	case "or", "any":
		return Or, nil
	}
	return And, fmt.Errorf("unknown filter logic %q", s)
}

// Rule is one filter condition.
type Rule struct {
	Column        string
	Op            Op
	Value         string
	CaseSensitive bool
}

// rule is a Rule with its comparison operands prepared once.
type rule struct {
	Rule
	cmp   string
	num   decimal.Decimal
	numOK bool
	re    *regexp.Regexp
}

// Filter keeps the rows that satisfy its rules under its Logic. A Filter
// with no rules keeps every row.
type Filter struct {
	Logic Logic
	rules []rule
}

// NewFilter validates and prepares rules. A regex that does not compile is
// reported here, so it surfaces before any input is read.
func NewFilter(rules []Rule, logic Logic) (*Filter, error) {
	f := &Filter{Logic: logic, rules: make([]rule, len(rules))}
	for i, r := range rules {
		if r.Op < OpEquals || r.Op > OpRegex {
			return nil, fmt.Errorf("rule %d: unknown operator %v", i, r.Op)
		}
		cr := rule{Rule: r, cmp: r.Value}
		if !r.CaseSensitive {
			cr.cmp = strings.ToLower(r.Value)
		}
		switch r.Op {
		case OpGreaterThan, OpLessThan:
			cr.num, cr.numOK = numeric.Parse(r.Value)
		case OpRegex:
			pat := r.Value
			if !r.CaseSensitive {
				pat = "(?i)" + pat
			}
			re, err := regexp.Compile(pat)
			if err != nil {
				return nil, fmt.Errorf("rule %d: invalid pattern %q: %w", i, r.Value, err)
			}
			cr.re = re
		}
		f.rules[i] = cr
	}
	return f, nil
}

// Rules returns the configured rules.
func (f *Filter) Rules() []Rule {
	out := make([]Rule, len(f.rules))
	for i, r := range f.rules {
		out[i] = r.Rule
	}
	return out
}

// Apply implements transformer.Transformer. Rules naming a column the row set
// lacks compare against the empty string.
func (f *Filter) Apply(rs records.RowSet) records.RowSet {
	if len(f.rules) == 0 {
		return rs
	}
	names := make([]string, len(f.rules))
	for i, r := range f.rules {
		names[i] = r.Column
	}
	idx := rs.Indexes(names)

	kept := rs.Rows[:0:0]
	for _, row := range rs.Rows {
		if f.keep(row, idx) {
			kept = append(kept, row)
		}
	}
	return records.RowSet{Columns: rs.Columns, Rows: kept}
}

func (f *Filter) keep(row []string, idx []int) bool {
	if f.Logic == Or {
		for i := range f.rules {
			if f.rules[i].eval(records.Value(row, idx[i])) {
				return true
			}
		}
		return false
	}
	for i := range f.rules {
		if !f.rules[i].eval(records.Value(row, idx[i])) {
			return false
		}
	}
	return true
}

// eval is the single dispatch point for operators. Negated operators invert
// the positive result, so a number/non-number mismatch only ever affects
// greater_than and less_than, which are simply false.
func (r *rule) eval(v string) bool {
	switch r.Op {
	case OpEquals:
		return r.fold(v) == r.cmp
	case OpNotEquals:
		return r.fold(v) != r.cmp
	case OpContains:
		return strings.Contains(r.fold(v), r.cmp)
	case OpNotContains:
		return !strings.Contains(r.fold(v), r.cmp)
	case OpStartsWith:
		return strings.HasPrefix(r.fold(v), r.cmp)
	case OpEndsWith:
		return strings.HasSuffix(r.fold(v), r.cmp)
	case OpIsEmpty:
		return strings.TrimSpace(v) == ""
	case OpIsNotEmpty:
		return strings.TrimSpace(v) != ""
	case OpGreaterThan:
		n, ok := numeric.Parse(v)
		return ok && r.numOK && n.GreaterThan(r.num)
	case OpLessThan:
		n, ok := numeric.Parse(v)
		return ok && r.numOK && n.LessThan(r.num)
	case OpRegex:
		return r.re.MatchString(v)
	}
	return false
}

func (r *rule) fold(v string) string {
	if r.CaseSensitive {
		return v
	}
	return strings.ToLower(v)
}
