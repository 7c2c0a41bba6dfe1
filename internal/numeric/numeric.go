// Package numeric parses cell values as exact decimals for numeric-aware
// filtering, sorting and quoting.
package numeric

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Parse reports whether s is a number and returns its value. Surrounding
// whitespace is ignored and comma thousands separators are dropped, so
// "1,234.50" parses as 1234.5.
func Parse(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	if strings.IndexByte(s, ',') >= 0 {
		s = strings.ReplaceAll(s, ",", "")
		if s == "" {
			return decimal.Zero, false
		}
	}
	// decimal accepts a lone sign or dot as zero in some versions.
	if !hasDigit(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Is reports whether s parses as a number.
func Is(s string) bool {
	_, ok := Parse(s)
	return ok
}

// Compare parses both sides and compares them. ok is false when either side
// is not a number.
func Compare(a, b string) (cmp int, ok bool) {
	da, ok := Parse(a)
	if !ok {
		return 0, false
	}
	db, ok := Parse(b)
	if !ok {
		return 0, false
	}
	return da.Cmp(db), true
}

func hasDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}
