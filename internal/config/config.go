// Package config defines the JSON configuration document for a merge run.
//
// A document is decoded into Config, checked by Validate and turned into
// ready-to-run stages by Build. Every key is optional; Default supplies the
// values a missing key falls back to.
//
// Example (trimmed):
//
//	{
//	  "inputs":  [{ "path": "jan.csv" }, { "path": "feb.csv", "delimiter": ";" }],
//	  "filter":  { "logic": "and", "rules": [{ "column": "age", "operator": "greater_than", "value": "18" }] },
//	  "sort":    { "keys": [{ "column": "age", "descending": true }] },
//	  "output":  { "path": "merged.csv", "quoting": "all" }
//	}
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Config is the top-level document.
type Config struct {
	Inputs    []Input   `json:"inputs"`
	Columns   Columns   `json:"columns"`
	Filter    Filter    `json:"filter"`
	Dedupe    Dedupe    `json:"dedupe"`
	Sort      Sort      `json:"sort"`
	Transform Transform `json:"transform"`
	Output    Output    `json:"output"`
	Export    Export    `json:"export"`
	Runtime   Runtime   `json:"runtime"`
}

// Input is one file to merge. Empty or "auto" Delimiter and Encoding are
// detected from the file's leading bytes.
type Input struct {
	Path      string `json:"path"`
	Delimiter string `json:"delimiter,omitempty"`
	Encoding  string `json:"encoding,omitempty"`
}

// Columns selects, orders and renames output columns.
type Columns struct {
	// Mode is all, include or exclude; Selected is the list it applies to.
	Mode     string            `json:"mode"`
	Selected []string          `json:"selected"`
	Rename   map[string]string `json:"rename"`
	Order    []string          `json:"order"`
}

type Filter struct {
	Logic string       `json:"logic"`
	Rules []FilterRule `json:"rules"`
}

type FilterRule struct {
	Column        string `json:"column"`
	Operator      string `json:"operator"`
	Value         string `json:"value"`
	CaseSensitive bool   `json:"case_sensitive"`
}

type Dedupe struct {
	Enabled bool `json:"enabled"`
	// Columns is the key subset; empty keys on every column.
	Columns []string `json:"columns"`
	Keep    string   `json:"keep"`
}

type Sort struct {
	Keys         []SortKey `json:"keys"`
	NumericAware bool      `json:"numeric_aware"`
}

type SortKey struct {
	Column        string `json:"column"`
	Descending    bool   `json:"descending"`
	CaseSensitive bool   `json:"case_sensitive"`
}

// Transform is the per-cell cleanup. A null EmptyValue disables empty
// substitution.
type Transform struct {
	Trim       bool    `json:"trim"`
	Case       string  `json:"case"`
	EmptyValue *string `json:"empty_value"`
}

type Output struct {
	Path       string `json:"path"`
	Delimiter  string `json:"delimiter"`
	Encoding   string `json:"encoding"`
	Quoting    string `json:"quoting"`
	LineEnding string `json:"line_ending"`
	Header     bool   `json:"header"`
}

// Export optionally loads the final rows into a database table after the
// output file is written. Kind selects a registered storage backend; Options
// carries backend settings such as "dsn" and "table".
type Export struct {
	Kind    string  `json:"kind"`
	Options Options `json:"options"`
}

// Runtime knobs. Zero means "use the environment or the built-in default".
type Runtime struct {
	ReadWorkers int `json:"read_workers"`
	SampleBytes int `json:"sample_bytes"`
}

// DefaultOutputPath is used when output.path is empty.
const DefaultOutputPath = "merged.csv"

// Default returns a Config with every default filled in.
func Default() Config {
	return Config{
		Columns:   Columns{Mode: "all"},
		Filter:    Filter{Logic: "and"},
		Dedupe:    Dedupe{Keep: "first"},
		Sort:      Sort{NumericAware: true},
		Transform: Transform{Case: "none"},
		Output: Output{
			Path:       DefaultOutputPath,
			Delimiter:  "comma",
			Encoding:   "utf-8",
			Quoting:    "minimal",
			LineEnding: "auto",
			Header:     true,
		},
		Export: Export{Options: Options{}},
	}
}

// Decode reads one JSON document from r on top of Default. Unknown keys are
// rejected so a misspelt option fails loudly instead of being ignored.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Load decodes the document at path.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Decode(bytes.NewReader(b))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Options is a loosely typed settings bag for backend-specific blocks. The
// accessors perform minimal coercion and return def when a key is missing or
// of an unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Int returns the int value for key or def. encoding/json decodes numbers as
// float64, so both float64 and int are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// UnmarshalJSON decodes a missing or null object to an empty, non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
