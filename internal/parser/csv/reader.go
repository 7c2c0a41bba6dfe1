// Package csv reads one delimited text file into a records.Table.
//
// The reader is strict about quoting (a malformed quote is a read error for
// the whole file) and lenient about shape: short rows are padded with empty
// cells and fields past the header width become extra, positionally named
// columns, so no data is dropped.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"csvmerge/internal/dialect"
	"csvmerge/internal/records"
)

var (
	// ErrEmpty is returned for an input with no header record.
	ErrEmpty = errors.New("file has no header row")

	// ErrInvalidUTF8 is returned when an input read as UTF-8 holds a byte
	// sequence that is not UTF-8. Callers that only guessed the encoding can
	// retry with a single-byte one.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
)

// Options is the resolved dialect for one input.
type Options struct {
	Delimiter dialect.Delimiter
	Encoding  dialect.Encoding
}

func (o Options) reader(r io.Reader) (*csv.Reader, error) {
	enc := o.Encoding
	if enc == "" {
		enc = dialect.UTF8
	}
	dr, err := dialect.NewReader(r, enc)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(dr)
	cr.Comma = rune(o.Delimiter)
	if cr.Comma == 0 {
		cr.Comma = ','
	}
	cr.FieldsPerRecord = -1
	return cr, nil
}

// ReadTable parses r completely. source names the input in errors and in the
// returned Table.
//
// Cancellation is checked before every record.
func ReadTable(ctx context.Context, source string, r io.Reader, opt Options) (records.Table, error) {
	cr, err := opt.reader(r)
	if err != nil {
		return records.Table{}, fmt.Errorf("%s: %w", source, err)
	}
	strictUTF8 := opt.Encoding == "" || opt.Encoding == dialect.UTF8

	raw, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return records.Table{}, fmt.Errorf("%s: %w", source, ErrEmpty)
	}
	if err != nil {
		return records.Table{}, fmt.Errorf("%s: read header: %w", source, err)
	}
	if strictUTF8 {
		if err := checkUTF8(raw, 1); err != nil {
			return records.Table{}, fmt.Errorf("%s: %w", source, err)
		}
	}
	header := normalizeHeader(stripHeaderBOM(append([]string(nil), raw...)))

	var rows [][]string
	width := len(header)
	for {
		select {
		case <-ctx.Done():
			return records.Table{}, ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return records.Table{}, fmt.Errorf("%s: %w", source, err)
		}
		if strictUTF8 {
			line, _ := cr.FieldPos(0)
			if err := checkUTF8(rec, line); err != nil {
				return records.Table{}, fmt.Errorf("%s: %w", source, err)
			}
		}
		if len(rec) > width {
			width = len(rec)
		}
		rows = append(rows, rec)
	}

	if width > len(header) {
		header = extendHeader(header, width)
	}
	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		}
	}
	return records.Table{Source: source, Header: header, Rows: rows}, nil
}

// ReadHeader returns the normalised header of r without reading further.
func ReadHeader(source string, r io.Reader, opt Options) ([]string, error) {
	cr, err := opt.reader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	raw, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", source, ErrEmpty)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", source, err)
	}
	return normalizeHeader(stripHeaderBOM(append([]string(nil), raw...))), nil
}

func checkUTF8(rec []string, line int) error {
	for i, v := range rec {
		if !utf8.ValidString(v) {
			return fmt.Errorf("line %d, field %d: %w", line, i+1, ErrInvalidUTF8)
		}
	}
	return nil
}
