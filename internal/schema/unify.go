// Package schema merges the headers of several inputs into one column list and
// reshapes every table's rows onto it.
package schema

import "csvmerge/internal/records"

// Columns returns the union of headers in first-seen order: all columns of
// the first header, then any new columns of the second, and so on.
func Columns(headers [][]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, h := range headers {
		for _, c := range h {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// Unify builds the working row set from tables in input order. Each row is
// remapped to the unified columns; columns a table lacks are empty strings.
func Unify(tables []records.Table) records.RowSet {
	headers := make([][]string, len(tables))
	total := 0
	for i, t := range tables {
		headers[i] = t.Header
		total += len(t.Rows)
	}
	cols := Columns(headers)

	pos := make(map[string]int, len(cols))
	for i, c := range cols {
		pos[c] = i
	}

	rows := make([][]string, 0, total)
	for _, t := range tables {
		// target[j] is where source column j lands.
		target := make([]int, len(t.Header))
		identity := len(t.Header) == len(cols)
		for j, c := range t.Header {
			target[j] = pos[c]
			if target[j] != j {
				identity = false
			}
		}
		for _, src := range t.Rows {
			if identity {
				rows = append(rows, src)
				continue
			}
			dst := make([]string, len(cols))
			for j, v := range src {
				if j < len(target) {
					dst[target[j]] = v
				}
			}
			rows = append(rows, dst)
		}
	}
	return records.RowSet{Columns: cols, Rows: rows}
}
