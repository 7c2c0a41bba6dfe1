package builtin

import (
	"reflect"
	"strconv"
	"testing"
)

func TestSort_NumericAware(t *testing.T) {
	t.Parallel()

	in := rowSet([]string{"n"}, []string{"10"}, []string{"2"}, []string{"1"})
	got := Sort{Keys: []SortKey{{Column: "n"}}, NumericAware: true}.Apply(in)
	if want := []string{"1", "2", "10"}; !reflect.DeepEqual(column(t, got, "n"), want) {
		t.Fatalf("numeric sort=%q, want %q", column(t, got, "n"), want)
	}

	in = rowSet([]string{"n"}, []string{"10"}, []string{"2"}, []string{"1"})
	got = Sort{Keys: []SortKey{{Column: "n"}}}.Apply(in)
	if want := []string{"1", "10", "2"}; !reflect.DeepEqual(column(t, got, "n"), want) {
		t.Fatalf("lexical sort=%q, want %q", column(t, got, "n"), want)
	}
}

func TestSort_Cases(t *testing.T) {
	t.Parallel()

	cols := []string{"name", "score", "id"}
	rows := func() [][]string {
		return [][]string{
			{"bob", "5", "1"},
			{"Alice", "7", "2"},
			{"alice", "5", "3"},
			{"Bob", "7", "4"},
			{"carl", "n/a", "5"},
		}
	}

	tests := []struct {
		name string
		keys []SortKey
		want []string // ids
	}{
		{
			name: "case_insensitive_is_stable",
			keys: []SortKey{{Column: "name"}},
			want: []string{"2", "3", "1", "4", "5"},
		},
		{
			name: "case_sensitive_upper_first",
			keys: []SortKey{{Column: "name", CaseSensitive: true}},
			want: []string{"2", "4", "3", "1", "5"},
		},
		{
			// Descending on score only; name ascending still breaks ties.
			name: "mixed_directions",
			keys: []SortKey{{Column: "score", Descending: true}, {Column: "name"}},
			want: []string{"5", "2", "4", "3", "1"},
		},
		{
			name: "unknown_key_skipped",
			keys: []SortKey{{Column: "missing"}, {Column: "id", Descending: true}},
			want: []string{"5", "4", "3", "2", "1"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Sort{Keys: tc.keys, NumericAware: true}.Apply(rowSet(cols, rows()...))
			if ids := column(t, got, "id"); !reflect.DeepEqual(ids, tc.want) {
				t.Fatalf("ids=%q, want %q", ids, tc.want)
			}
		})
	}
}

// TestSort_MixedColumnOrderIndependent sorts every permutation of a column
// mixing numbers and text; the result must not depend on the input order.
func TestSort_MixedColumnOrderIndependent(t *testing.T) {
	t.Parallel()

	values := []string{"2", "10", "1a", "b"}
	tests := []struct {
		desc bool
		want []string
	}{
		{false, []string{"2", "10", "1a", "b"}},
		{true, []string{"b", "1a", "10", "2"}},
	}
	for _, tc := range tests {
		for _, perm := range permutations(values) {
			rows := make([][]string, len(perm))
			for i, v := range perm {
				rows[i] = []string{v}
			}
			got := Sort{Keys: []SortKey{{Column: "v", Descending: tc.desc}}, NumericAware: true}.Apply(rowSet([]string{"v"}, rows...))
			if col := column(t, got, "v"); !reflect.DeepEqual(col, tc.want) {
				t.Fatalf("desc=%v input %q: got %q, want %q", tc.desc, perm, col, tc.want)
			}
		}
	}
}

func permutations(in []string) [][]string {
	if len(in) <= 1 {
		return [][]string{append([]string(nil), in...)}
	}
	var out [][]string
	for i := range in {
		rest := make([]string, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]string{in[i]}, p...))
		}
	}
	return out
}

func TestSort_NoKeysNoop(t *testing.T) {
	t.Parallel()

	in := rowSet([]string{"a"}, []string{"b"}, []string{"a"})
	assertRows(t, Sort{}.Apply(in), [][]string{{"b"}, {"a"}})
}

func BenchmarkSort(b *testing.B) {
	base := make([][]string, 10000)
	for i := range base {
		base[i] = []string{strconv.Itoa((i * 7919) % 10000), "x"}
	}
	s := Sort{Keys: []SortKey{{Column: "n"}}, NumericAware: true}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rows := append([][]string(nil), base...)
		_ = s.Apply(rowSet([]string{"n", "v"}, rows...))
	}
}
