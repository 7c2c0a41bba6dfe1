package builtin

import (
	"fmt"
	"strings"

	"csvmerge/internal/records"
)

// ColumnMode selects which unified columns reach the output.
type ColumnMode int

const (
	ColumnsAll ColumnMode = iota
	ColumnsInclude
	ColumnsExclude
)

func (m ColumnMode) String() string {
	switch m {
	case ColumnsInclude:
		return "include"
	case ColumnsExclude:
		return "exclude"
	}
	return "all"
}

// ParseColumnMode accepts all/include/exclude and the "select" alias.
func ParseColumnMode(s string) (ColumnMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ColumnsAll, nil
	case "include", "select", "selected":
		return ColumnsInclude, nil
	case "exclude", "excluded":
		return ColumnsExclude, nil
	}
	return ColumnsAll, fmt.Errorf("unknown columns mode %q", s)
}

// Project narrows, reorders and renames columns.
//
// Selection keeps unified order. Order then moves the listed columns to the
// front in the listed sequence; the rest follow in their current order.
// Rename is applied last and maps old names to new ones.
type Project struct {
	Mode     ColumnMode
	Selected []string
	Order    []string
	Rename   map[string]string
}

// Enabled reports whether Apply would change the row set.
func (p Project) Enabled() bool {
	return p.Mode != ColumnsAll || len(p.Order) > 0 || len(p.Rename) > 0
}

// Plan returns the source indexes and output names for columns.
func (p Project) Plan(columns []string) (idx []int, names []string) {
	selected := make(map[string]bool, len(p.Selected))
	for _, c := range p.Selected {
		selected[c] = true
	}
	for i, c := range columns {
		switch p.Mode {
		case ColumnsInclude:
			if !selected[c] {
				continue
			}
		case ColumnsExclude:
			if selected[c] {
				continue
			}
		}
		idx = append(idx, i)
	}

	if len(p.Order) > 0 {
		rank := make(map[string]int, len(p.Order))
		for i, c := range p.Order {
			if _, dup := rank[c]; !dup {
				rank[c] = i
			}
		}
		front := make([]int, len(p.Order))
		for i := range front {
			front[i] = -1
		}
		var rest []int
		for _, i := range idx {
			if r, ok := rank[columns[i]]; ok {
				front[r] = i
			} else {
				rest = append(rest, i)
			}
		}
		ordered := make([]int, 0, len(idx))
		for _, i := range front {
			if i >= 0 {
				ordered = append(ordered, i)
			}
		}
		idx = append(ordered, rest...)
	}

	names = make([]string, len(idx))
	for k, i := range idx {
		names[k] = columns[i]
		if to, ok := p.Rename[columns[i]]; ok && to != "" {
			names[k] = to
		}
	}
	return idx, names
}

// Apply implements transformer.Transformer.
func (p Project) Apply(rs records.RowSet) records.RowSet {
	if !p.Enabled() {
		return rs
	}
	idx, names := p.Plan(rs.Columns)
	rows := make([][]string, len(rs.Rows))
	for r, row := range rs.Rows {
		out := make([]string, len(idx))
		for k, i := range idx {
			out[k] = records.Value(row, i)
		}
		rows[r] = out
	}
	return records.RowSet{Columns: names, Rows: rows}
}
