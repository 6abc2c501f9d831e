package runtimelib

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/maoif/trec/config"
)

// Runtime is the live state __trec_init builds and the probe ABI calls
// read and write. There is exactly one per process.
type Runtime struct {
	clock   ClockSource
	stack   *StackMap
	hist    *Histogram
	flusher *Flusher
	mode    string
}

var (
	current     atomic.Pointer[Runtime]
	initialized atomic.Bool
)

// Init builds the process-wide Runtime from cfg and starts its
// background flusher. It is idempotent: a second call, from a second
// module's constructor in a multiply-instrumented binary, is a no-op,
// matching spec.md §4.9's atomic-CAS init guard. A "none" mode builds no
// Runtime at all — every probe call becomes a cheap no-op.
func Init(cfg config.RuntimeConfig) error {
	if !initialized.CompareAndSwap(false, true) {
		return nil
	}

	if cfg.Mode == config.ModeNone {
		return nil
	}

	clock, err := NewClockSource(cfg.Mode)
	if err != nil {
		return err
	}

	rt := &Runtime{
		clock: clock,
		stack: NewStackMap(),
		hist:  NewHistogram(cfg.Interval),
		mode:  cfg.Mode,
	}
	rt.flusher = NewFlusher(rt.hist, outputPath(cfg.DataDir), snapshotHeader(cfg.Mode))
	current.Store(rt)

	go rt.flusher.Run()
	return nil
}

// Shutdown stops the background flusher, forcing one last flush, and
// clears the Runtime so a later re-Init (there should never be one in a
// single process, but tests rely on it) starts clean.
func Shutdown() {
	if rt := current.Swap(nil); rt != nil && rt.flusher != nil {
		rt.flusher.Stop()
	}
	initialized.Store(false)
}

// Enter records id's entry time on the calling thread. It is a no-op if
// the runtime was never initialized or initialized in "none" mode.
func Enter(id uint64) {
	rt := current.Load()
	if rt == nil {
		return
	}
	tid := gettid()
	now, err := rt.clock.Now(tid)
	if err != nil {
		return
	}
	rt.stack.Enter(tid, id, now)
}

// Exit records the elapsed time since id's matching Enter into id's
// histogram. It is a no-op if there was no matching Enter, or the
// runtime was never initialized.
func Exit(id uint64) {
	rt := current.Load()
	if rt == nil {
		return
	}
	tid := gettid()
	start, ok := rt.stack.Exit(tid, id)
	if !ok {
		return
	}
	now, err := rt.clock.Now(tid)
	if err != nil {
		return
	}
	delta := now - start
	if delta < 0 {
		delta = 0
	}
	rt.hist.Record(id, delta)
}

// RecordBBL evaluates the dispatcher predicate for fid: it always
// returns non-zero once the runtime is initialized in any active mode,
// since the fine-instrumented clone's only cost over the cold path is
// the probe calls this same runtime backs cheaply; it returns zero when
// profiling is disabled, routing every call to the uninstrumented cold
// path.
func RecordBBL(fid uint64) uint64 {
	if current.Load() == nil {
		return 0
	}
	return 1
}

// outputPath names a flush file trec_perf_<short_exe_name>_<pid>.bin, per
// spec.md §6: the short name lets a glob over DataDir distinguish runs of
// different programs, and the pid distinguishes concurrent runs of the
// same program.
func outputPath(dataDir string) string {
	return filepath.Join(dataDir, fmt.Sprintf("trec_perf_%s_%d.bin", shortExeName(), os.Getpid()))
}

func shortExeName() string {
	return filepath.Base(binpath())
}

func snapshotHeader(mode string) func() Header {
	return func() Header {
		return Header{
			Cmdline: strings.Join(os.Args, " "),
			Binpath: binpath(),
			Pwd:     pwd(),
			Mode:    ModeByte(mode),
		}
	}
}

func binpath() string {
	exe, err := os.Executable()
	if err != nil {
		return os.Args[0]
	}
	return exe
}

func pwd() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return dir
}
