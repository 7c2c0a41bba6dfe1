package builtin

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"csvmerge/internal/records"

	"github.com/zeebo/xxh3"
)

// Keep selects which duplicate survives.
type Keep int

const (
	KeepFirst Keep = iota
	KeepLast
)

func (k Keep) String() string {
	if k == KeepLast {
		return "last"
	}
	return "first"
}

// ParseKeep accepts "first"/"last" and the "keep-first" spelling.
func ParseKeep(s string) (Keep, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "keep-") {
	case "", "first":
		return KeepFirst, nil
	case "last":
		return KeepLast, nil
	}
	return KeepFirst, fmt.Errorf("unknown dedupe keep policy %q", s)
}

// DeDup drops rows whose key columns repeat an earlier (KeepFirst) or later
// (KeepLast) row. An empty Columns list keys on every column. Values compare
// as exact, case-sensitive strings.
//
// Survivors stay in their original relative order: the policy decides which
// occurrence survives, never where it sits.
type DeDup struct {
	Columns []string
	Keep    Keep
}

// Apply implements transformer.Transformer. Key columns missing from the row
// set are ignored; if none remain the row set is returned unchanged.
func (d DeDup) Apply(rs records.RowSet) records.RowSet {
	if len(rs.Rows) < 2 {
		return rs
	}
	keyIdx := d.keyIndexes(rs)
	if len(keyIdx) == 0 {
		return rs
	}

	n := len(rs.Rows)
	order := func(i int) int { return i }
	if d.Keep == KeepLast {
		order = func(i int) int { return n - 1 - i }
	}

	// Buckets are keyed by a 128-bit hash of the key cells; candidates in a
	// bucket are still compared cell by cell.
	buckets := make(map[xxh3.Uint128][]int, n)
	var buf []byte
	winners := make([]int, 0, n)
	for i := 0; i < n; i++ {
		ri := order(i)
		row := rs.Rows[ri]
		buf = appendKey(buf[:0], row, keyIdx)
		h := xxh3.Hash128(buf)

		dup := false
		for _, wj := range buckets[h] {
			if sameKey(row, rs.Rows[wj], keyIdx) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		buckets[h] = append(buckets[h], ri)
		winners = append(winners, ri)
	}

	if d.Keep == KeepLast {
		sort.Ints(winners)
	}
	out := make([][]string, len(winners))
	for i, ri := range winners {
		out[i] = rs.Rows[ri]
	}
	return records.RowSet{Columns: rs.Columns, Rows: out}
}

func (d DeDup) keyIndexes(rs records.RowSet) []int {
	if len(d.Columns) == 0 {
		idx := make([]int, len(rs.Columns))
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, 0, len(d.Columns))
	for _, c := range d.Columns {
		if i := rs.Index(c); i >= 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

// appendKey writes each key cell length-prefixed so ("ab","c") and
// ("a","bc") hash differently.
func appendKey(buf []byte, row []string, keyIdx []int) []byte {
	for _, i := range keyIdx {
		v := records.Value(row, i)
		buf = binary.AppendUvarint(buf, uint64(len(v)))
		buf = append(buf, v...)
	}
	return buf
}

func sameKey(a, b []string, keyIdx []int) bool {
	for _, i := range keyIdx {
		if records.Value(a, i) != records.Value(b, i) {
			return false
		}
	}
	return true
}
