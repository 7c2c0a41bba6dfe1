// Package dialect describes how delimited text is laid out on disk: the field
// delimiter, the character encoding, the quoting rule and the line ending.
//
// Each setting is a small closed enumeration with a parser that accepts both
// the canonical config value ("semicolon", "cp1252") and the display names
// used by saved presets ("Semicolon (;)", "CP1252").
package dialect

import (
	"fmt"
	"runtime"
	"strings"
)

// Delimiter is the field separator.
type Delimiter rune

const (
	Comma     Delimiter = ','
	Semicolon Delimiter = ';'
	Tab       Delimiter = '\t'
	Pipe      Delimiter = '|'
)

// Delimiters lists the supported delimiters in detection tie-break order.
var Delimiters = []Delimiter{Comma, Semicolon, Tab, Pipe}

func (d Delimiter) String() string {
	switch d {
	case Comma:
		return "comma"
	case Semicolon:
		return "semicolon"
	case Tab:
		return "tab"
	case Pipe:
		return "pipe"
	}
	return fmt.Sprintf("delimiter(%q)", rune(d))
}

// ParseDelimiter accepts a name ("tab"), a display name ("Tab (\t)") or the
// literal character.
func ParseDelimiter(s string) (Delimiter, error) {
	switch s {
	case ",":
		return Comma, nil
	case ";":
		return Semicolon, nil
	case "\t", `\t`:
		return Tab, nil
	case "|":
		return Pipe, nil
	}
	switch key(s) {
	case "comma", "csv":
		return Comma, nil
	case "semicolon":
		return Semicolon, nil
	case "tab", "tsv":
		return Tab, nil
	case "pipe":
		return Pipe, nil
	}
	return 0, fmt.Errorf("unknown delimiter %q", s)
}

// Encoding is a supported text encoding.
type Encoding string

const (
	UTF8    Encoding = "utf-8"
	UTF16   Encoding = "utf-16"   // little-endian unless a BOM says otherwise
	UTF16BE Encoding = "utf-16be" // BOM-less big-endian input
	Latin1  Encoding = "latin-1"
	CP1252  Encoding = "cp1252"
)

func (e Encoding) String() string { return string(e) }

// ParseEncoding accepts the usual spellings ("UTF-8", "utf8", "ISO-8859-1",
// "windows-1252").
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ReplaceAll(key(s), "_", "-") {
	case "utf-8", "utf8", "utf-8-sig":
		return UTF8, nil
	case "utf-16", "utf16", "utf-16le", "utf16le":
		return UTF16, nil
	case "utf-16be", "utf16be":
		return UTF16BE, nil
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return Latin1, nil
	case "cp1252", "windows-1252", "windows1252":
		return CP1252, nil
	}
	return "", fmt.Errorf("unknown encoding %q", s)
}

// Quoting selects which output fields are wrapped in quotes.
type Quoting string

const (
	QuoteMinimal    Quoting = "minimal"
	QuoteAll        Quoting = "all"
	QuoteNonNumeric Quoting = "non-numeric"
	QuoteNone       Quoting = "none"
)

func (q Quoting) String() string { return string(q) }

// ParseQuoting accepts "minimal", "All", "Non-numeric", "non_numeric", "None".
func ParseQuoting(s string) (Quoting, error) {
	switch strings.ReplaceAll(key(s), "_", "-") {
	case "minimal":
		return QuoteMinimal, nil
	case "all":
		return QuoteAll, nil
	case "non-numeric", "nonnumeric":
		return QuoteNonNumeric, nil
	case "none":
		return QuoteNone, nil
	}
	return "", fmt.Errorf("unknown quoting %q", s)
}

// LineEnding is the record terminator used on output.
type LineEnding string

const (
	LineAuto LineEnding = "auto"
	LineLF   LineEnding = "lf"
	LineCRLF LineEnding = "crlf"
)

// ParseLineEnding accepts "auto", "LF", "CRLF" and the preset display names
// ("LF (Unix/Mac)", "CRLF (Windows)").
func ParseLineEnding(s string) (LineEnding, error) {
	switch key(s) {
	case "auto", "":
		return LineAuto, nil
	case "lf", "unix", `\n`:
		return LineLF, nil
	case "crlf", "windows", `\r\n`:
		return LineCRLF, nil
	}
	return "", fmt.Errorf("unknown line ending %q", s)
}

// hostOS is swapped in tests.
var hostOS = runtime.GOOS

// Terminator resolves the line ending to the bytes written after each record.
// Auto is resolved against the host platform at call time.
func (l LineEnding) Terminator() string {
	switch l {
	case LineCRLF:
		return "\r\n"
	case LineLF:
		return "\n"
	}
	if hostOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// Dialect bundles the four layout choices for one read or write.
type Dialect struct {
	Delimiter  Delimiter
	Encoding   Encoding
	Quoting    Quoting
	LineEnding LineEnding
}

// Default is comma, UTF-8, minimal quoting, platform line ending.
func Default() Dialect {
	return Dialect{
		Delimiter:  Comma,
		Encoding:   UTF8,
		Quoting:    QuoteMinimal,
		LineEnding: LineAuto,
	}
}

// key lowercases s and drops a trailing "(...)" hint, so "Tab (\t)" and
// "LF (Unix/Mac)" reduce to "tab" and "lf".
func key(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '('); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	return strings.ToLower(s)
}
