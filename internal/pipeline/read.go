package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"csvmerge/internal/config"
	"csvmerge/internal/datasource/file"
	"csvmerge/internal/dialect"
	csvparser "csvmerge/internal/parser/csv"
	"csvmerge/internal/probe"
	"csvmerge/internal/records"

	"golang.org/x/sync/errgroup"
)

// fileResult is the outcome of reading one input.
type fileResult struct {
	table   records.Table
	header  []string // header-only reads
	sniff   probe.Result
	warning string // set when the file was read with a fallback encoding
	err     error
}

// readInputs runs fn for every input on at most workers goroutines and
// returns the results in input order. Per-file errors are kept in the
// results; only cancellation stops the pool.
func readInputs(
	ctx context.Context,
	inputs []config.InputPlan,
	workers int,
	fn func(context.Context, config.InputPlan) fileResult,
) ([]fileResult, error) {
	results := make([]fileResult, len(inputs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = fn(ctx, in)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// openSniffed opens the input, sniffs its leading bytes and returns a reader
// that replays the sample followed by the rest of the file.
func openSniffed(ctx context.Context, in config.InputPlan, sampleBytes int) (io.Reader, io.Closer, probe.Result, error) {
	src := file.NewLocal(in.Path)
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, nil, probe.Result{}, &FileError{Path: in.Path, Op: "open", Err: err}
	}
	sample, truncated, err := probe.ReadSample(rc, sampleBytes)
	if err != nil {
		rc.Close()
		if ctx.Err() != nil {
			return nil, nil, probe.Result{}, ctx.Err()
		}
		return nil, nil, probe.Result{}, &FileError{Path: in.Path, Op: "sample", Err: err}
	}
	res := probe.Sniff(sample, truncated, probe.Options{
		SampleBytes: sampleBytes,
		Delimiter:   in.Delimiter,
		Encoding:    in.Encoding,
	})
	return io.MultiReader(bytes.NewReader(sample), rc), rc, res, nil
}

// readTable sniffs and fully parses one input.
func readTable(sampleBytes int) func(context.Context, config.InputPlan) fileResult {
	return func(ctx context.Context, in config.InputPlan) fileResult {
		r, c, res, err := openSniffed(ctx, in, sampleBytes)
		if err != nil {
			return fileResult{err: err}
		}
		defer c.Close()

		tbl, err := csvparser.ReadTable(ctx, in.Path, r, csvparser.Options{Delimiter: res.Delimiter, Encoding: res.Encoding})
		if err == nil {
			return fileResult{table: tbl, sniff: res}
		}
		if ctx.Err() != nil {
			return fileResult{err: ctx.Err()}
		}
		if in.Encoding == "" && errors.Is(err, csvparser.ErrInvalidUTF8) {
			return rereadWithFallback(ctx, in, res, err)
		}
		return fileResult{sniff: res, err: &FileError{Path: in.Path, Op: "parse", Err: err}}
	}
}

// fallbackEncodings are tried in order when a file sniffed as UTF-8 turns
// out to hold non-UTF-8 bytes past the sample.
var fallbackEncodings = []dialect.Encoding{dialect.CP1252, dialect.Latin1}

// rereadWithFallback parses the whole file again with each fallback
// encoding. cause is the UTF-8 error; it is reported if every fallback fails.
func rereadWithFallback(ctx context.Context, in config.InputPlan, res probe.Result, cause error) fileResult {
	for _, enc := range fallbackEncodings {
		tbl, err := readWithEncoding(ctx, in.Path, res, enc)
		if ctx.Err() != nil {
			return fileResult{err: ctx.Err()}
		}
		if err != nil {
			cause = err
			continue
		}
		warning := fmt.Sprintf("%s: not valid UTF-8 past the sample; read as %s", in.Path, enc)
		res.Encoding = enc
		return fileResult{table: tbl, sniff: res, warning: warning}
	}
	return fileResult{sniff: res, err: &FileError{Path: in.Path, Op: "parse", Err: cause}}
}

func readWithEncoding(ctx context.Context, path string, res probe.Result, enc dialect.Encoding) (records.Table, error) {
	rc, err := file.NewLocal(path).Open(ctx)
	if err != nil {
		return records.Table{}, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if res.BOM && res.Encoding == dialect.UTF8 {
		// A UTF-8 BOM would decode to "ï»¿" in a single-byte encoding.
		if _, err := io.CopyN(io.Discard, rc, 3); err != nil {
			return records.Table{}, err
		}
	}
	return csvparser.ReadTable(ctx, path, r, csvparser.Options{Delimiter: res.Delimiter, Encoding: enc})
}

// readHeader sniffs one input and parses only its header row.
func readHeader(sampleBytes int) func(context.Context, config.InputPlan) fileResult {
	return func(ctx context.Context, in config.InputPlan) fileResult {
		r, c, res, err := openSniffed(ctx, in, sampleBytes)
		if err != nil {
			return fileResult{err: err}
		}
		defer c.Close()

		h, err := csvparser.ReadHeader(in.Path, r, csvparser.Options{Delimiter: res.Delimiter, Encoding: res.Encoding})
		if err != nil {
			return fileResult{sniff: res, err: &FileError{Path: in.Path, Op: "parse", Err: err}}
		}
		return fileResult{header: h, sniff: res}
	}
}

// sniffWarning describes a delimiter guess that no candidate backed with a
// consistent field count, or "" when the guess is sound or was configured.
// Single-column files land here too.
func sniffWarning(in config.InputPlan, res probe.Result) string {
	if in.Delimiter != 0 || res.Consistent {
		return ""
	}
	return fmt.Sprintf("%s: no delimiter gave a consistent field count in the sample; reading as %s, %s",
		in.Path, res.Delimiter, res.Encoding)
}
