// Package config centralizes environment-variable driven configuration
// for both the compile-time tooling (catalog, instrumentation CLI) and
// the runtime library. It follows the GetConfig/Valid shape the teacher
// uses for its releaser config, generalized to the env vars spec.md §6
// names.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Clock source modes, mirrored from spec.md §4.5.
const (
	ModeTime = "time"
	ModeCycle = "cycle"
	ModeInsn  = "insn"
	ModeNone  = "none"
)

const (
	// EnvDatabaseDir is read at compile time by the catalog store.
	EnvDatabaseDir = "TREC_DATABASE_DIR"

	// EnvPerfDir, EnvPerfMode, EnvPerfInterval are read at runtime init.
	EnvPerfDir      = "TREC_PERF_DIR"
	EnvPerfMode     = "TREC_PERF_MODE"
	EnvPerfInterval = "TREC_PERF_INTERVAL"

	// EnvReleaseURL is consulted by the optional catalog release manifest.
	EnvReleaseURL = "TREC_RELEASE_URL"

	// EnvReportBrokers enables the optional Kafka flush-summary reporter.
	EnvReportBrokers = "TREC_REPORT_BROKERS"
)

// DefaultBucketInterval is the default histogram bucket width in clock
// units, per spec.md §3.
const DefaultBucketInterval = 5000

// BucketCount is the fixed histogram length, per spec.md §3.
const BucketCount = 1024

// CompileConfig holds the parameters the instrumentation engine and
// catalog store need at compile time.
type CompileConfig struct {
	DatabaseDir string
}

// GetCompileConfig reads CompileConfig from the environment. Absence of
// TREC_DATABASE_DIR is fatal per spec.md §7 (CatalogIO is fatal, and the
// engine cannot run without a catalog directory).
func GetCompileConfig() (CompileConfig, error) {
	dir := os.Getenv(EnvDatabaseDir)
	if dir == "" {
		return CompileConfig{}, errors.Errorf("%s is not set", EnvDatabaseDir)
	}
	return CompileConfig{DatabaseDir: dir}, nil
}

// Valid reports whether c has no empty fields.
func (c CompileConfig) Valid() bool {
	return c.DatabaseDir != ""
}

// RuntimeConfig holds the parameters __trec_init reads once at process
// startup, per spec.md §4.9.
type RuntimeConfig struct {
	Mode     string
	DataDir  string
	Interval int
}

// GetRuntimeConfig reads RuntimeConfig from the environment. An unset or
// "none" mode disables all probes; any other unrecognized mode is an
// error the caller should treat as fatal.
func GetRuntimeConfig() (RuntimeConfig, error) {
	mode := os.Getenv(EnvPerfMode)
	if mode == "" {
		mode = ModeNone
	}
	switch mode {
	case ModeTime, ModeCycle, ModeInsn, ModeNone:
	default:
		return RuntimeConfig{}, errors.Errorf("unknown %s value %q, want one of time|cycle|insn|none", EnvPerfMode, mode)
	}

	rc := RuntimeConfig{Mode: mode, Interval: DefaultBucketInterval}
	if mode == ModeNone {
		return rc, nil
	}

	dir := os.Getenv(EnvPerfDir)
	if dir == "" {
		return RuntimeConfig{}, errors.Errorf("%s is not set", EnvPerfDir)
	}
	rc.DataDir = dir

	if raw := os.Getenv(EnvPerfInterval); raw != "" {
		step, err := strconv.Atoi(raw)
		if err != nil || step <= 0 {
			return RuntimeConfig{}, errors.Errorf("invalid %s value %q, want a positive integer", EnvPerfInterval, raw)
		}
		rc.Interval = step
	}

	return rc, nil
}

// Logger returns a zerolog.Logger configured the way trec's compile-time
// tooling logs: console-friendly, with a component field.
func Logger(component string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).
		With().Timestamp().Str("component", component).Logger()
}

// FatalDiagnostic writes a runtime fatal diagnostic to stderr in the
// format the probe ABI's host programs expect: a single line, no
// structured logging, since this path runs inside an arbitrary host
// process whose own logging configuration trec must not disturb.
func FatalDiagnostic(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "trec: fatal: "+format+"\n", args...)
}

// WarnDiagnostic writes a non-fatal runtime diagnostic to stderr in the
// same single-line format as FatalDiagnostic.
func WarnDiagnostic(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "trec: warning: "+format+"\n", args...)
}
