package builtin

import (
	"sort"
	"strings"

	"csvmerge/internal/numeric"
	"csvmerge/internal/records"

	"github.com/shopspring/decimal"
)

// SortKey orders by one column.
type SortKey struct {
	Column        string
	Descending    bool
	CaseSensitive bool
}

// Sort is a stable multi-key sort. Keys are applied in priority order and a
// Descending key reverses only its own comparison.
//
// With NumericAware set, cells that parse as numbers sort before all other
// cells and compare by value ("2" < "10"); the rest compare as strings,
// folded to lower case unless the key is case-sensitive.
type Sort struct {
	Keys         []SortKey
	NumericAware bool
}

// sortCell caches the comparable forms of one cell.
type sortCell struct {
	str   string
	num   decimal.Decimal
	isNum bool
}

type sortRow struct {
	row   []string
	cells []sortCell
}

// Apply implements transformer.Transformer. Keys naming unknown columns are
// skipped.
func (s Sort) Apply(rs records.RowSet) records.RowSet {
	var keys []SortKey
	var idx []int
	for _, k := range s.Keys {
		if i := rs.Index(k.Column); i >= 0 {
			keys = append(keys, k)
			idx = append(idx, i)
		}
	}
	if len(keys) == 0 || len(rs.Rows) < 2 {
		return rs
	}

	wrapped := make([]sortRow, len(rs.Rows))
	for r, row := range rs.Rows {
		cells := make([]sortCell, len(keys))
		for k, key := range keys {
			v := records.Value(row, idx[k])
			c := sortCell{str: v}
			if !key.CaseSensitive {
				c.str = strings.ToLower(v)
			}
			if s.NumericAware {
				c.num, c.isNum = numeric.Parse(v)
			}
			cells[k] = c
		}
		wrapped[r] = sortRow{row: row, cells: cells}
	}

	sort.SliceStable(wrapped, func(a, b int) bool {
		ca, cb := wrapped[a].cells, wrapped[b].cells
		for k, key := range keys {
			c := compareCells(ca[k], cb[k])
			if c == 0 {
				continue
			}
			if key.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	out := make([][]string, len(wrapped))
	for i, w := range wrapped {
		out[i] = w.row
	}
	return records.RowSet{Columns: rs.Columns, Rows: out}
}

// compareCells orders numbers before text, numbers by value and text as
// strings, so a mixed column still has a total order.
func compareCells(a, b sortCell) int {
	switch {
	case a.isNum && b.isNum:
		return a.num.Cmp(b.num)
	case a.isNum:
		return -1
	case b.isNum:
		return 1
	}
	return strings.Compare(a.str, b.str)
}
