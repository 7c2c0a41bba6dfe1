// Package records defines the in-memory row containers that flow between the
// reader, the unifier and the transformation stages.
package records

// Table is the content of a single input file: its (deduplicated) header and
// the rows aligned to it. Every row has exactly len(Header) cells.
type Table struct {
	Source string
	Header []string
	Rows   [][]string
}

// RowSet is the unified working set. Rows are positional; Rows[i][j] is the
// value of Columns[j].
type RowSet struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of rows.
func (rs RowSet) Len() int { return len(rs.Rows) }

// Index returns the position of the named column or -1.
func (rs RowSet) Index(name string) int {
	for i, c := range rs.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Indexes resolves names to positions. Unknown names map to -1.
func (rs RowSet) Indexes(names []string) []int {
	out := make([]int, len(names))
	for i, n := range names {
		out[i] = rs.Index(n)
	}
	return out
}

// Value returns row[idx], or "" for a negative or out-of-range index.
func Value(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
