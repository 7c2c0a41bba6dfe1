package builtin

import (
	"fmt"
	"strings"

	"csvmerge/internal/records"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CaseMode is the case transform applied to every cell.
type CaseMode int

const (
	CaseNone CaseMode = iota
	CaseUpper
	CaseLower
	CaseTitle
)

func (c CaseMode) String() string {
	switch c {
	case CaseUpper:
		return "upper"
	case CaseLower:
		return "lower"
	case CaseTitle:
		return "title"
	}
	return "none"
}

// ParseCase accepts none/upper/lower/title and the "UPPERCASE", "lowercase",
// "Title Case" display names.
func ParseCase(s string) (CaseMode, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "", "none":
		return CaseNone, nil
	case "upper", "uppercase":
		return CaseUpper, nil
	case "lower", "lowercase":
		return CaseLower, nil
	case "title", "titlecase":
		return CaseTitle, nil
	}
	return CaseNone, fmt.Errorf("unknown case transform %q", s)
}

// Normalize rewrites every cell: trim, then case, then empty substitution.
// EmptyValue nil disables substitution; a pointer to "" is also a no-op.
type Normalize struct {
	Trim       bool
	Case       CaseMode
	EmptyValue *string
}

// Enabled reports whether Apply would change anything.
func (n Normalize) Enabled() bool {
	return n.Trim || n.Case != CaseNone || (n.EmptyValue != nil && *n.EmptyValue != "")
}

// Apply implements transformer.Transformer. Rows are rewritten in place.
func (n Normalize) Apply(rs records.RowSet) records.RowSet {
	if !n.Enabled() {
		return rs
	}
	var caser cases.Caser
	switch n.Case {
	case CaseUpper:
		caser = cases.Upper(language.Und)
	case CaseLower:
		caser = cases.Lower(language.Und)
	case CaseTitle:
		caser = cases.Title(language.Und)
	}

	for _, row := range rs.Rows {
		for j, v := range row {
			row[j] = n.cell(v, caser)
		}
	}
	return rs
}

func (n Normalize) cell(v string, caser cases.Caser) string {
	if n.Trim {
		v = strings.TrimSpace(v)
	}
	if n.Case != CaseNone && v != "" {
		v = caser.String(v)
	}
	if v == "" && n.EmptyValue != nil {
		v = *n.EmptyValue
	}
	return v
}
