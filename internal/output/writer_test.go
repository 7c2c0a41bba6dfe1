package output

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	csvparser "csvmerge/internal/parser/csv"
	"csvmerge/internal/dialect"
	"csvmerge/internal/records"
)

func sampleRows() records.RowSet {
	return records.RowSet{
		Columns: []string{"id", "name", "note"},
		Rows: [][]string{
			{"1", "Ann", "plain"},
			{"2", "Doe, Jane", "said \"hi\""},
			{"3.5", "", "line1\nline2"},
		},
	}
}

func write(t *testing.T, rs records.RowSet, opt Options) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(context.Background(), &buf, rs, opt); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return buf.String()
}

func TestWrite_Quoting(t *testing.T) {
	t.Parallel()

	rs := records.RowSet{
		Columns: []string{"n", "s"},
		Rows:    [][]string{{"10", "a,b"}, {"x", "q\"y"}},
	}
	tests := []struct {
		quoting dialect.Quoting
		want    string
	}{
		{dialect.QuoteMinimal, "n,s\n10,\"a,b\"\nx,\"q\"\"y\"\n"},
		{dialect.QuoteAll, "\"n\",\"s\"\n\"10\",\"a,b\"\n\"x\",\"q\"\"y\"\n"},
		{dialect.QuoteNonNumeric, "\"n\",\"s\"\n10,\"a,b\"\n\"x\",\"q\"\"y\"\n"},
		{dialect.QuoteNone, "n,s\n10,a,b\nx,q\"y\n"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(string(tc.quoting), func(t *testing.T) {
			t.Parallel()
			got := write(t, rs, Options{
				Header:  true,
				Dialect: dialect.Dialect{Delimiter: dialect.Comma, Quoting: tc.quoting, LineEnding: dialect.LineLF},
			})
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWrite_NonNumericQuotesSeparatedNumber(t *testing.T) {
	t.Parallel()

	rs := records.RowSet{Columns: []string{"amount"}, Rows: [][]string{{"1,234"}, {"5"}}}
	got := write(t, rs, Options{Dialect: dialect.Dialect{Quoting: dialect.QuoteNonNumeric, LineEnding: dialect.LineLF}})
	if want := "\"1,234\"\n5\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWrite_DelimiterLineEndingHeader(t *testing.T) {
	t.Parallel()

	rs := records.RowSet{Columns: []string{"a", "b"}, Rows: [][]string{{"1", "x;y"}}}
	got := write(t, rs, Options{
		Header:  false,
		Dialect: dialect.Dialect{Delimiter: dialect.Semicolon, LineEnding: dialect.LineCRLF},
	})
	if want := "1;\"x;y\"\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	got = write(t, rs, Options{Header: true, Dialect: dialect.Dialect{Delimiter: dialect.Pipe, LineEnding: dialect.LineLF}})
	if want := "a|b\n1|x;y\n"; got != want {
		t.Fatalf("pipe got %q, want %q", got, want)
	}
}

func TestWrite_LoneEmptyFieldQuoted(t *testing.T) {
	t.Parallel()

	rs := records.RowSet{Columns: []string{"a"}, Rows: [][]string{{""}, {"x"}}}
	got := write(t, rs, Options{Header: true, Dialect: dialect.Dialect{LineEnding: dialect.LineLF}})
	if want := "a\n\"\"\nx\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// TestWrite_RoundTrip writes with quoting=all and reads the bytes back with
// the same dialect.
func TestWrite_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, d := range []dialect.Dialect{
		{Delimiter: dialect.Comma, Encoding: dialect.UTF8, Quoting: dialect.QuoteAll, LineEnding: dialect.LineLF},
		{Delimiter: dialect.Semicolon, Encoding: dialect.UTF16, Quoting: dialect.QuoteAll, LineEnding: dialect.LineCRLF},
		{Delimiter: dialect.Tab, Encoding: dialect.CP1252, Quoting: dialect.QuoteMinimal, LineEnding: dialect.LineLF},
	} {
		d := d
		t.Run(d.Delimiter.String()+"_"+string(d.Encoding), func(t *testing.T) {
			t.Parallel()
			rs := sampleRows()
			var buf bytes.Buffer
			if err := Write(context.Background(), &buf, rs, Options{Header: true, Dialect: d}); err != nil {
				t.Fatalf("Write: %v", err)
			}
			tbl, err := csvparser.ReadTable(context.Background(), "rt", &buf,
				csvparser.Options{Delimiter: d.Delimiter, Encoding: d.Encoding})
			if err != nil {
				t.Fatalf("ReadTable: %v", err)
			}
			if !reflect.DeepEqual(tbl.Header, rs.Columns) {
				t.Fatalf("header=%q, want %q", tbl.Header, rs.Columns)
			}
			if !reflect.DeepEqual(tbl.Rows, rs.Rows) {
				t.Fatalf("rows=%q, want %q", tbl.Rows, rs.Rows)
			}
		})
	}
}

func TestWrite_UnencodableRune(t *testing.T) {
	t.Parallel()

	rs := records.RowSet{Columns: []string{"v"}, Rows: [][]string{{"€"}}}
	var buf bytes.Buffer
	err := Write(context.Background(), &buf, rs, Options{Dialect: dialect.Dialect{Encoding: dialect.Latin1}})
	if err == nil {
		t.Fatalf("expected encode error")
	}
}

func TestWrite_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := Write(ctx, &buf, sampleRows(), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
	if strings.Contains(buf.String(), "Ann") {
		t.Fatalf("rows written after cancellation: %q", buf.String())
	}
}
