package sqlite

import (
	"fmt"
	"strings"
)

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS with one TEXT column per
// name, in order.
func CreateTableSQL(table string, columns []string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("sqlite ddl: table name must not be empty")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("sqlite ddl: at least one column is required")
	}
	defs := make([]string, len(columns))
	for i, c := range columns {
		if c == "" {
			return "", fmt.Errorf("sqlite ddl: column %d has an empty name", i+1)
		}
		defs[i] = quoteIdent(c) + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", quoteFQN(table), strings.Join(defs, ",\n  ")), nil
}

// quoteIdent double-quotes one identifier, doubling embedded quotes.
func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func quoteAll(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = quoteIdent(id)
	}
	return out
}

// quoteFQN quotes "main.rows" as "main"."rows". Empty segments are dropped.
func quoteFQN(name string) string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, quoteIdent(p))
		}
	}
	return strings.Join(out, ".")
}
