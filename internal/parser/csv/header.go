package csv

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// placeholderName names a column that has no usable header text. n is the
// 1-based field position.
func placeholderName(n int) string { return fmt.Sprintf("column_%d", n) }

// normalizeHeader NFC-normalises each name, names blank cells by position and
// makes duplicates unique with a _2, _3, ... suffix, so every column of a
// file can be addressed by name.
func normalizeHeader(raw []string) []string {
	out := make([]string, len(raw))
	for i, h := range raw {
		h = norm.NFC.String(h)
		if strings.TrimSpace(h) == "" {
			h = placeholderName(i + 1)
		}
		out[i] = h
	}
	return uniqueNames(out)
}

func uniqueNames(names []string) []string {
	seen := make(map[string]int, len(names))
	for _, n := range names {
		seen[n] = 0
	}
	for i, n := range names {
		if seen[n] == 0 {
			seen[n] = 1
			continue
		}
		k := seen[n] + 1
		cand := fmt.Sprintf("%s_%d", n, k)
		for {
			if _, taken := seen[cand]; !taken {
				break
			}
			k++
			cand = fmt.Sprintf("%s_%d", n, k)
		}
		seen[n] = k
		seen[cand] = 1
		names[i] = cand
	}
	return names
}

// extendHeader appends placeholder names until header has width entries.
func extendHeader(header []string, width int) []string {
	for len(header) < width {
		name := placeholderName(len(header) + 1)
		for contains(header, name) {
			name += "_extra"
		}
		header = append(header, name)
	}
	return header
}

func contains(names []string, s string) bool {
	for _, n := range names {
		if n == s {
			return true
		}
	}
	return false
}
