// Package probe sniffs the layout of a delimited text file from a sample of
// its first bytes: which encoding the bytes are in and which of the supported
// delimiters separates the fields.
//
// Sniffing never fails hard. When no delimiter produces a consistent field
// count the result falls back to comma and reports Consistent=false so the
// caller can surface a warning.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"

	"csvmerge/internal/datasource"
	"csvmerge/internal/dialect"
)

const (
	// DefaultSampleBytes is how much of each file is inspected.
	DefaultSampleBytes = 64 << 10
	// DefaultSampleLines is how many records delimiter detection looks at.
	DefaultSampleLines = 20
)

// Options tune sniffing. Zero values select the defaults.
type Options struct {
	SampleBytes int
	SampleLines int

	// Delimiter and Encoding, when set, are taken as given and the matching
	// detection step is skipped.
	Delimiter dialect.Delimiter
	Encoding  dialect.Encoding
}

// Result is the best guess for one file.
type Result struct {
	Delimiter dialect.Delimiter
	Encoding  dialect.Encoding
	// BOM reports whether the sample starts with a byte order mark.
	BOM bool
	// Fields is the field count the chosen delimiter produced on every
	// sampled record; zero when Consistent is false.
	Fields int
	// Consistent is false when delimiter detection fell back to comma.
	Consistent bool
}

// Sniff inspects sample. truncated reports whether the sample was cut from a
// longer file, in which case the final partial record is ignored.
func Sniff(sample []byte, truncated bool, opt Options) Result {
	opt = withDefaults(opt)

	res := Result{Encoding: opt.Encoding}
	if res.Encoding == "" {
		res.Encoding, res.BOM = DetectEncoding(sample, truncated)
	} else {
		_, res.BOM = bomEncoding(sample)
	}

	if opt.Delimiter != 0 {
		res.Delimiter = opt.Delimiter
		res.Consistent = true
		return res
	}

	text, err := dialect.Decode(trimForDecode(sample, res.Encoding, truncated), res.Encoding)
	if err != nil {
		res.Delimiter = dialect.Comma
		return res
	}
	res.Delimiter, res.Fields, res.Consistent = DetectDelimiter(text, truncated, opt.SampleLines)
	return res
}

// SniffSource reads a sample from src and sniffs it.
func SniffSource(ctx context.Context, src datasource.Source, opt Options) (Result, error) {
	opt = withDefaults(opt)

	rc, err := src.Open(ctx)
	if err != nil {
		return Result{}, err
	}
	defer rc.Close()

	sample, truncated, err := ReadSample(rc, opt.SampleBytes)
	if err != nil {
		return Result{}, fmt.Errorf("sample %s: %w", src.Name(), err)
	}
	return Sniff(sample, truncated, opt), nil
}

// ReadSample reads up to n bytes from r. truncated is true when r has more
// data than was returned.
func ReadSample(r io.Reader, n int) (sample []byte, truncated bool, err error) {
	buf := make([]byte, n+1)
	got, err := io.ReadFull(r, buf)
	switch {
	case err == nil:
		return buf[:n], true, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return buf[:got], false, nil
	default:
		return nil, false, err
	}
}

func withDefaults(opt Options) Options {
	if opt.SampleBytes <= 0 {
		opt.SampleBytes = DefaultSampleBytes
	}
	if opt.SampleLines <= 0 {
		opt.SampleLines = DefaultSampleLines
	}
	return opt
}
