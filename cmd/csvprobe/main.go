// Command csvprobe prints the detected layout of delimited text files: the
// delimiter, the encoding, whether a BOM is present and the field count of
// the sampled records.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"csvmerge/internal/datasource/file"
	"csvmerge/internal/dialect"
	"csvmerge/internal/probe"
)

var (
	flagBytes     = flag.Int("bytes", probe.DefaultSampleBytes, "Number of bytes to sample from the start of each file")
	flagDelimiter = flag.String("delimiter", "", "Force a delimiter (comma, semicolon, tab, pipe) instead of detecting it")
	flagEncoding  = flag.String("encoding", "", "Force an encoding (utf-8, utf-16le, windows-1252, ...) instead of detecting it")
	flagJSON      = flag.Bool("json", false, "Print one JSON array instead of a table")
)

type report struct {
	Path       string `json:"path"`
	Delimiter  string `json:"delimiter,omitempty"`
	Encoding   string `json:"encoding,omitempty"`
	BOM        bool   `json:"bom"`
	Fields     int    `json:"fields"`
	Consistent bool   `json:"consistent"`
	Error      string `json:"error,omitempty"`
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: csvprobe [flags] file...")
		os.Exit(2)
	}

	opt := probe.Options{SampleBytes: *flagBytes}
	if *flagDelimiter != "" {
		d, err := dialect.ParseDelimiter(*flagDelimiter)
		if err != nil {
			fatalf("%v", err)
		}
		opt.Delimiter = d
	}
	if *flagEncoding != "" {
		e, err := dialect.ParseEncoding(*flagEncoding)
		if err != nil {
			fatalf("%v", err)
		}
		opt.Encoding = e
	}

	ctx := context.Background()
	reports := make([]report, 0, flag.NArg())
	failed := false
	for _, p := range flag.Args() {
		rep := report{Path: p}
		res, err := probe.SniffSource(ctx, file.NewLocal(p), opt)
		if err != nil {
			rep.Error = err.Error()
			failed = true
		} else {
			rep.Delimiter = res.Delimiter.String()
			rep.Encoding = res.Encoding.String()
			rep.BOM = res.BOM
			rep.Fields = res.Fields
			rep.Consistent = res.Consistent
		}
		reports = append(reports, rep)
	}

	if *flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			fatalf("encode: %v", err)
		}
	} else {
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PATH\tDELIMITER\tENCODING\tBOM\tFIELDS\tCONSISTENT")
		for _, r := range reports {
			if r.Error != "" {
				fmt.Fprintf(tw, "%s\terror: %s\n", r.Path, r.Error)
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\t%t\n", r.Path, r.Delimiter, r.Encoding, r.BOM, r.Fields, r.Consistent)
		}
		tw.Flush()
	}
	if failed {
		os.Exit(1)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(2)
}
