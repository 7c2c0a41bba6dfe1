package schema

import (
	"reflect"
	"testing"

	"csvmerge/internal/records"
)

func TestUnify(t *testing.T) {
	t.Parallel()

	a := records.Table{Source: "a.csv", Header: []string{"x", "y"}, Rows: [][]string{{"1", "2"}}}
	b := records.Table{Source: "b.csv", Header: []string{"y", "z"}, Rows: [][]string{{"3", "4"}, {"5", "6"}}}

	got := Unify([]records.Table{a, b})

	if want := []string{"x", "y", "z"}; !reflect.DeepEqual(got.Columns, want) {
		t.Fatalf("columns=%q, want %q", got.Columns, want)
	}
	want := [][]string{
		{"1", "2", ""},
		{"", "3", "4"},
		{"", "5", "6"},
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Fatalf("rows=%q, want %q", got.Rows, want)
	}
}

// TestUnify_OrderStable verifies that column order depends only on file
// order, never on row content.
func TestUnify_OrderStable(t *testing.T) {
	t.Parallel()

	a := records.Table{Header: []string{"x", "y"}}
	b := records.Table{Header: []string{"y", "z"}, Rows: [][]string{{"big", "rows"}}}

	first := Unify([]records.Table{a, b}).Columns
	second := Unify([]records.Table{a, b}).Columns
	if !reflect.DeepEqual(first, second) || !reflect.DeepEqual(first, []string{"x", "y", "z"}) {
		t.Fatalf("unstable columns: %q vs %q", first, second)
	}

	swapped := Unify([]records.Table{b, a}).Columns
	if want := []string{"y", "z", "x"}; !reflect.DeepEqual(swapped, want) {
		t.Fatalf("swapped=%q, want %q", swapped, want)
	}
}

func TestUnify_Empty(t *testing.T) {
	t.Parallel()

	got := Unify(nil)
	if len(got.Columns) != 0 || len(got.Rows) != 0 {
		t.Fatalf("Unify(nil)=%+v", got)
	}
}

func TestColumns(t *testing.T) {
	t.Parallel()

	got := Columns([][]string{{"b", "a"}, {"c", "a"}, {}, {"d", "b"}})
	if want := []string{"b", "a", "c", "d"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Columns=%q, want %q", got, want)
	}
}
