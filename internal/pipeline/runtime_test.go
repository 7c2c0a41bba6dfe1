package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"csvmerge/internal/config"
	"csvmerge/internal/probe"
)

func TestPickInt(t *testing.T) {
	t.Parallel()
	tests := []struct{ a, b, want int }{
		{3, 7, 3},
		{0, 7, 7},
		{-1, 7, 7},
	}
	for _, tt := range tests {
		if got := pickInt(tt.a, tt.b); got != tt.want {
			t.Errorf("pickInt(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestGetenvInt(t *testing.T) {
	// t.Setenv forbids t.Parallel.
	const key = "CSVMERGE_TEST_INT"
	tests := []struct {
		val  string
		want int
	}{
		{"", 5},
		{"12", 12},
		{"0", 5},
		{"-3", 5},
		{"abc", 5},
	}
	for _, tt := range tests {
		t.Setenv(key, tt.val)
		if got := getenvInt(key, 5); got != tt.want {
			t.Errorf("getenvInt(%q) = %d, want %d", tt.val, got, tt.want)
		}
	}
}

func TestResolveRuntime(t *testing.T) {
	t.Setenv(EnvReadWorkers, "6")
	t.Setenv(EnvSampleBytes, "")

	rt := resolveRuntime(config.Runtime{})
	if rt.readWorkers != 6 || rt.sampleBytes != probe.DefaultSampleBytes {
		t.Fatalf("env fallback: %+v", rt)
	}
	rt = resolveRuntime(config.Runtime{ReadWorkers: 2, SampleBytes: 1024})
	if rt.readWorkers != 2 || rt.sampleBytes != 1024 {
		t.Fatalf("config should win: %+v", rt)
	}
}

func TestErrAgg(t *testing.T) {
	t.Parallel()
	a := newErrAgg(2)
	for _, m := range []string{"one", "two", "three", "four"} {
		a.add(m)
	}
	got := a.snapshot()
	want := []string{"one", "two", "... and 2 more"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("snapshot = %v, want %v", got, want)
	}
	if a.total() != 4 {
		t.Fatalf("total = %d", a.total())
	}
}

func TestFileError(t *testing.T) {
	t.Parallel()
	base := errors.New("boom")
	e := &FileError{Path: "a.csv", Op: "parse", Err: base}
	if e.Error() != "parse a.csv: boom" {
		t.Fatalf("Error() = %q", e.Error())
	}
	if !errors.Is(e, base) {
		t.Fatalf("Unwrap lost the cause")
	}
	e = &FileError{Path: "a.csv", Op: "open", Err: errors.New("open a.csv: denied")}
	if e.Error() != "open a.csv: denied" {
		t.Fatalf("path repeated: %q", e.Error())
	}
}

func TestReadInputs_KeepsOrderAndLimit(t *testing.T) {
	t.Parallel()
	inputs := make([]config.InputPlan, 10)
	for i := range inputs {
		inputs[i].Path = string(rune('a' + i))
	}
	var running, peak atomic.Int32
	res, err := readInputs(context.Background(), inputs, 3, func(_ context.Context, in config.InputPlan) fileResult {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		defer running.Add(-1)
		return fileResult{header: []string{in.Path}}
	})
	if err != nil {
		t.Fatalf("readInputs: %v", err)
	}
	for i, r := range res {
		if r.header[0] != inputs[i].Path {
			t.Fatalf("result %d out of order: %v", i, r.header)
		}
	}
	if peak.Load() > 3 {
		t.Fatalf("peak concurrency %d exceeds limit", peak.Load())
	}
}

func TestReadInputs_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := readInputs(ctx, []config.InputPlan{{Path: "a"}}, 1, func(context.Context, config.InputPlan) fileResult {
		t.Error("fn called after cancellation")
		return fileResult{}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
