package builtin

import (
	"reflect"
	"testing"

	"csvmerge/internal/records"
)

func rowSet(cols []string, rows ...[]string) records.RowSet {
	return records.RowSet{Columns: cols, Rows: rows}
}

// column extracts one column's values in row order.
func column(t *testing.T, rs records.RowSet, name string) []string {
	t.Helper()
	i := rs.Index(name)
	if i < 0 {
		t.Fatalf("column %q not in %q", name, rs.Columns)
	}
	out := make([]string, len(rs.Rows))
	for r, row := range rs.Rows {
		out[r] = row[i]
	}
	return out
}

func assertRows(t *testing.T, got records.RowSet, want [][]string) {
	t.Helper()
	if len(got.Rows) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Fatalf("rows=%q, want %q", got.Rows, want)
	}
}
