package probe

import (
	"strings"

	"csvmerge/internal/dialect"
)

// DetectDelimiter counts each candidate delimiter outside quotes over the
// first maxRecords records of text and returns the candidate with the highest
// total count among those giving every record the same field count. Ties go
// to the earlier candidate in dialect.Delimiters, so comma wins. With no
// consistent candidate it returns comma and ok=false.
func DetectDelimiter(text string, truncated bool, maxRecords int) (d dialect.Delimiter, fields int, ok bool) {
	text = strings.TrimPrefix(text, "\uFEFF")
	recs := splitRecords(text, truncated)
	if maxRecords > 0 && len(recs) > maxRecords {
		recs = recs[:maxRecords]
	}
	if len(recs) == 0 {
		return dialect.Comma, 0, false
	}

	best, bestTotal := dialect.Comma, 0
	for _, cand := range dialect.Delimiters {
		total, perRecord, consistent := countDelimiter(recs, rune(cand))
		if !consistent || perRecord == 0 {
			continue
		}
		if total > bestTotal {
			best, bestTotal, fields = cand, total, perRecord+1
		}
	}
	if bestTotal == 0 {
		return dialect.Comma, 0, false
	}
	return best, fields, true
}

// countDelimiter reports the total occurrences of d outside quotes and whether
// every record has the same count.
func countDelimiter(recs []string, d rune) (total, perRecord int, consistent bool) {
	perRecord = -1
	for _, rec := range recs {
		n := 0
		inQuotes := false
		for _, r := range rec {
			switch {
			case r == '"':
				inQuotes = !inQuotes
			case r == d && !inQuotes:
				n++
			}
		}
		if perRecord == -1 {
			perRecord = n
		} else if n != perRecord {
			return total, 0, false
		}
		total += n
	}
	return total, perRecord, true
}

// splitRecords splits text on line breaks that are not inside quotes. Blank
// records are dropped; a truncated sample loses its last, partial record.
func splitRecords(text string, truncated bool) []string {
	var (
		recs     []string
		start    int
		inQuotes bool
	)
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '"':
			inQuotes = !inQuotes
		case '\n':
			if inQuotes {
				continue
			}
			if rec := strings.TrimRight(text[start:i], "\r"); rec != "" {
				recs = append(recs, rec)
			}
			start = i + 1
		}
	}
	if start < len(text) && !truncated {
		if rec := strings.TrimRight(text[start:], "\r"); rec != "" {
			recs = append(recs, rec)
		}
	}
	return recs
}
