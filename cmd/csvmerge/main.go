// Command csvmerge merges delimited text files into one CSV.
//
// Inputs come from the config document, -input flags and -inputs-file, in
// that order. Flags override the matching config keys.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"csvmerge/internal/config"
	"csvmerge/internal/datasource/file"
	"csvmerge/internal/logging"
	"csvmerge/internal/metrics"
	"csvmerge/internal/metrics/datadog"
	"csvmerge/internal/metrics/prompush"
	"csvmerge/internal/pipeline"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	// register all export backends with the storage factory.
	_ "csvmerge/internal/storage/all"
)

// Exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitInvalid   = 2
	exitCancelled = 130
)

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

type options struct {
	cfgPath        string
	inputs         stringList
	inputsFile     string
	output         string
	envFile        string
	validate       bool
	discover       bool
	logLevel       string
	logFormat      string
	metricsBackend string
	pushGatewayURL string
	datadogAddr    string
}

func main() {
	var o options
	fs := flag.NewFlagSet("csvmerge", flag.ExitOnError)
	fs.StringVar(&o.cfgPath, "config", "", "merge config JSON path")
	fs.Var(&o.inputs, "input", "input file (repeatable)")
	fs.StringVar(&o.inputsFile, "inputs-file", "", "file listing one input per line: path[<TAB>delimiter[<TAB>encoding]]")
	fs.StringVar(&o.output, "output", "", "output CSV path (overrides output.path)")
	fs.StringVar(&o.envFile, "env-file", ".env", "dotenv file loaded before anything else; missing is fine")
	fs.BoolVar(&o.validate, "validate", false, "validate the configuration and exit")
	fs.BoolVar(&o.discover, "discover", false, "print the unified column list and exit")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	fs.StringVar(&o.logFormat, "log-format", "", "text or json (env LOG_FORMAT)")
	fs.StringVar(&o.metricsBackend, "metrics-backend", "", "none, pushgateway or datadog (env METRICS_BACKEND)")
	fs.StringVar(&o.pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (env PUSHGATEWAY_URL)")
	fs.StringVar(&o.datadogAddr, "datadog-addr", "", "DogStatsD address (env DD_DOGSTATSD_ADDR)")
	_ = fs.Parse(os.Args[1:])

	// Overload so a project .env wins over a stale shell export.
	if o.envFile != "" {
		_ = godotenv.Overload(o.envFile)
	}
	logging.Setup(firstNonEmpty(o.logLevel, os.Getenv("LOG_LEVEL")), firstNonEmpty(o.logFormat, os.Getenv("LOG_FORMAT")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, o, os.Stdout)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code. Results go
// to stdout; diagnostics go to the default slog logger.
func run(ctx context.Context, o options, stdout io.Writer) int {
	cfg, err := loadConfig(o)
	if err != nil {
		slog.Error("load config", "err", err)
		return exitInvalid
	}

	if o.validate {
		issues := config.Validate(cfg)
		for _, iss := range issues {
			fmt.Fprintf(stdout, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		}
		if config.Err(issues) != nil {
			slog.Error("configuration is invalid", "config", o.cfgPath)
			return exitInvalid
		}
		slog.Info("configuration is valid", "config", o.cfgPath, "inputs", len(cfg.Inputs))
		return exitOK
	}

	if o.discover {
		cols, err := pipeline.Discover(ctx, cfg, logEvent)
		if err != nil {
			return exitCode(err)
		}
		for _, c := range cols {
			fmt.Fprintln(stdout, c)
		}
		return exitOK
	}

	flush := setupMetrics(o)
	defer flush()

	st, err := pipeline.Run(ctx, cfg, logEvent)
	if err != nil {
		return exitCode(err)
	}
	printSummary(stdout, st)
	return exitOK
}

// loadConfig reads the config document, or starts from defaults when none is
// given, and applies the input and output flags.
func loadConfig(o options) (config.Config, error) {
	cfg := config.Default()
	if o.cfgPath != "" {
		var err error
		if cfg, err = config.Load(o.cfgPath); err != nil {
			return config.Config{}, err
		}
	}
	for _, p := range o.inputs {
		cfg.Inputs = append(cfg.Inputs, config.Input{Path: p})
	}
	if o.inputsFile != "" {
		entries, err := file.ReadList(o.inputsFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("inputs file: %w", err)
		}
		for _, e := range entries {
			cfg.Inputs = append(cfg.Inputs, config.Input{Path: e.Path, Delimiter: e.Delimiter, Encoding: e.Encoding})
		}
	}
	if o.output != "" {
		cfg.Output.Path = o.output
	}
	return cfg, nil
}

// setupMetrics installs the selected backend and returns the flush to run at
// exit. Backend failures only disable metrics.
func setupMetrics(o options) func() {
	name := firstNonEmpty(o.metricsBackend, os.Getenv("METRICS_BACKEND"))
	var b metrics.Backend
	switch name {
	case "pushgateway":
		gwURL := firstNonEmpty(o.pushGatewayURL, os.Getenv("PUSHGATEWAY_URL"), "http://localhost:9091")
		pb, err := prompush.NewBackend("csvmerge", gwURL)
		if err != nil {
			slog.Warn("metrics: pushgateway backend unavailable; disabled", "err", err)
			return func() {}
		}
		if host, err := os.Hostname(); err == nil {
			pb.SetInstance(host)
		}
		slog.Debug("metrics", "backend", name, "url", gwURL)
		b = pb
	case "datadog":
		addr := firstNonEmpty(o.datadogAddr, os.Getenv("DD_DOGSTATSD_ADDR"), "127.0.0.1:8125")
		db, err := datadog.NewBackend(datadog.Config{Addr: addr, Namespace: "csvmerge."})
		if err != nil {
			slog.Warn("metrics: datadog backend unavailable; disabled", "err", err)
			return func() {}
		}
		slog.Debug("metrics", "backend", name, "addr", addr)
		b = db
	case "", "none":
		return func() {}
	default:
		slog.Warn("metrics: unknown backend; disabled", "backend", name)
		return func() {}
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			slog.Warn("metrics: flush", "err", err)
		}
	}
}

// logEvent is the pipeline sink for the command line.
func logEvent(e pipeline.Event) {
	log := slog.With("run_id", e.RunID, "stage", e.Stage)
	switch e.Kind {
	case pipeline.EventStageStarted:
		log.Debug("stage started", "in", e.In)
	case pipeline.EventStageCompleted:
		log.Info("stage completed", "in", e.In, "out", e.Out, "took", e.Elapsed.Truncate(time.Microsecond))
	case pipeline.EventWarning:
		log.Warn(e.Message)
	case pipeline.EventError:
		log.Error(e.Message)
	case pipeline.EventCancelled:
		log.Warn("cancelled; output left untouched")
	}
}

func printSummary(w io.Writer, st pipeline.Stats) {
	fmt.Fprintf(w, "merged %s of %s files into %s\n",
		humanize.Comma(int64(st.FilesRead)), humanize.Comma(int64(st.FilesInput)), st.OutputPath)
	fmt.Fprintf(w, "rows: read=%s filtered=%s deduped=%s written=%s\n",
		humanize.Comma(int64(st.RowsRead)),
		humanize.Comma(int64(st.RowsAfterFilter)),
		humanize.Comma(int64(st.RowsAfterDedupe)),
		humanize.Comma(int64(st.FinalRows)))
	fmt.Fprintf(w, "columns: unified=%d written=%d\n", st.UniqueColumns, st.OutputColumns)
	if st.RowsExported > 0 {
		fmt.Fprintf(w, "exported %s rows\n", humanize.Comma(st.RowsExported))
	}
	if st.FilesSkipped > 0 || st.WarningCount > 0 {
		fmt.Fprintf(w, "skipped files=%d warnings=%d\n", st.FilesSkipped, st.WarningCount)
	}
	fmt.Fprintf(w, "run %s finished in %s\n", st.RunID, st.Elapsed.Truncate(time.Millisecond))
}

func exitCode(err error) int {
	switch {
	case pipeline.IsCancelled(err):
		return exitCancelled
	case errors.Is(err, config.ErrInvalid):
		slog.Error("configuration is invalid", "err", err)
		return exitInvalid
	default:
		slog.Error("merge failed", "err", err)
		return exitFailure
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
