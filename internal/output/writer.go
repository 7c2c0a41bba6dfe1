// Package output serializes the final row set in the configured dialect and
// commits it to disk atomically.
package output

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"csvmerge/internal/dialect"
	"csvmerge/internal/numeric"
	"csvmerge/internal/records"
)

// Options control serialization.
type Options struct {
	Dialect dialect.Dialect
	Header  bool
}

// cancelCheckEvery is how many rows are written between context checks.
const cancelCheckEvery = 4096

// Write serializes rs to w. The encoding transform is flushed before Write
// returns; w itself is not closed.
func Write(ctx context.Context, w io.Writer, rs records.RowSet, opt Options) error {
	d := opt.Dialect
	if d.Delimiter == 0 {
		d.Delimiter = dialect.Comma
	}
	if d.Encoding == "" {
		d.Encoding = dialect.UTF8
	}
	if d.Quoting == "" {
		d.Quoting = dialect.QuoteMinimal
	}

	enc, err := dialect.NewWriter(w, d.Encoding)
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64<<10)
	fw := fieldWriter{w: bw, delim: rune(d.Delimiter), quoting: d.Quoting, eol: d.LineEnding.Terminator()}

	if opt.Header {
		if err := fw.record(rs.Columns); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for i, row := range rs.Rows {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := fw.record(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode %s: %w", d.Encoding, err)
	}
	return nil
}

type fieldWriter struct {
	w       *bufio.Writer
	delim   rune
	quoting dialect.Quoting
	eol     string
}

func (f fieldWriter) record(fields []string) error {
	for i, v := range fields {
		if i > 0 {
			if _, err := f.w.WriteRune(f.delim); err != nil {
				return err
			}
		}
		// A lone empty field would serialize as a blank line, which
		// readers skip; quote it so the row survives a round trip.
		lone := len(fields) == 1 && v == ""
		if f.quote(v) || (lone && f.quoting != dialect.QuoteNone) {
			if err := f.writeQuoted(v); err != nil {
				return err
			}
			continue
		}
		if _, err := f.w.WriteString(v); err != nil {
			return err
		}
	}
	_, err := f.w.WriteString(f.eol)
	return err
}

// quote applies the quoting rule to one value. non-numeric also quotes a
// number that needs quoting to stay one field, such as "1,234" with a comma
// delimiter.
func (f fieldWriter) quote(v string) bool {
	switch f.quoting {
	case dialect.QuoteAll:
		return true
	case dialect.QuoteNone:
		return false
	case dialect.QuoteNonNumeric:
		return !numeric.Is(v) || f.needsQuotes(v)
	}
	return f.needsQuotes(v)
}

func (f fieldWriter) needsQuotes(v string) bool {
	return strings.ContainsRune(v, f.delim) || strings.ContainsAny(v, "\"\r\n")
}

func (f fieldWriter) writeQuoted(v string) error {
	if err := f.w.WriteByte('"'); err != nil {
		return err
	}
	if _, err := f.w.WriteString(strings.ReplaceAll(v, `"`, `""`)); err != nil {
		return err
	}
	return f.w.WriteByte('"')
}
