package pipeline

import (
	"os"
	"runtime"
	"strconv"

	"csvmerge/internal/config"
	"csvmerge/internal/probe"
)

// Environment overrides for runtime knobs left at zero in the config.
const (
	EnvReadWorkers = "CSVMERGE_READ_WORKERS"
	EnvSampleBytes = "CSVMERGE_SAMPLE_BYTES"
)

// runtimeConfig is the resolved concurrency and sampling configuration.
type runtimeConfig struct {
	readWorkers int
	sampleBytes int
}

// resolveRuntime picks each knob from the config, then the environment, then
// the default.
func resolveRuntime(rc config.Runtime) runtimeConfig {
	defWorkers := runtime.GOMAXPROCS(0)
	if defWorkers > 4 {
		defWorkers = 4
	}
	return runtimeConfig{
		readWorkers: pickInt(rc.ReadWorkers, getenvInt(EnvReadWorkers, defWorkers)),
		sampleBytes: pickInt(rc.SampleBytes, getenvInt(EnvSampleBytes, probe.DefaultSampleBytes)),
	}
}

// getenvInt returns the positive integer in env var k, or def.
func getenvInt(k string, def int) int {
	if s := os.Getenv(k); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// pickInt chooses the first positive value a, otherwise returns b.
func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}
