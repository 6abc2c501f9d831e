// Package runtimelib is the runtime library half of the probe ABI
// (spec.md §4.4–4.9): it backs __trec_perf_enter/__trec_perf_exit with a
// per-thread entry-time stack, accumulates durations into per-ID
// histograms, and periodically flushes them to disk. It is grounded on
// the teacher's profiler.go and instrument/inst.go, generalized from a
// single fixed counter to the pluggable wall-clock/cycle/instruction
// clock sources spec.md §4.5 names.
package runtimelib

import (
	"sync"
	"time"

	"github.com/elastic/go-perf"
	"golang.org/x/sys/unix"

	"github.com/maoif/trec/config"
)

// ClockSource returns a monotonically increasing count in whatever unit
// it measures (nanoseconds, cycles, retired instructions). __trec_init
// selects the implementation matching TREC_PERF_MODE.
type ClockSource interface {
	Now(tid int) (int64, error)
}

// NewClockSource returns the ClockSource for mode, per spec.md §4.5.
// mode must already be validated (config.GetRuntimeConfig does this);
// ModeNone has no ClockSource and must be handled by the caller before
// reaching here.
func NewClockSource(mode string) (ClockSource, error) {
	switch mode {
	case config.ModeTime:
		return wallClock{}, nil
	case config.ModeCycle:
		return newPerfClock(perf.CPUCycles), nil
	case config.ModeInsn:
		return newPerfClock(perf.Instructions), nil
	default:
		return nil, errInvalidMode(mode)
	}
}

type wallClock struct{}

func (wallClock) Now(int) (int64, error) { return time.Now().UnixNano(), nil }

// perfClock reads a hardware performance counter via perf_event_open,
// mirroring perfRT.cpp: one counter per OS thread, opened lazily and
// cached by kernel thread ID, never closed until the process exits. Go's
// M:N scheduler means a goroutine is not pinned to one OS thread across
// calls by default; callers crossing the probe ABI from cgo are already
// pinned for the duration of the call, so tid is stable within a single
// enter/exit pair even though it may differ between pairs.
type perfClock struct {
	configure perf.Configurator

	mu       sync.Mutex
	byThread map[int]*perf.Event
}

func newPerfClock(configure perf.Configurator) *perfClock {
	return &perfClock{configure: configure, byThread: make(map[int]*perf.Event)}
}

func (c *perfClock) Now(tid int) (int64, error) {
	ev, err := c.eventFor(tid)
	if err != nil {
		return 0, err
	}
	count, err := ev.ReadCount()
	if err != nil {
		return 0, wrapIO("read perf counter", err)
	}
	return int64(count.Value), nil
}

func (c *perfClock) eventFor(tid int) (*perf.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev, ok := c.byThread[tid]; ok {
		return ev, nil
	}

	attr := &perf.Attr{}
	c.configure.Configure(attr)

	ev, err := perf.Open(attr, perf.CallingThread, perf.AnyCPU, nil)
	if err != nil {
		return nil, wrapIO("open perf counter", err)
	}
	if err := ev.Enable(); err != nil {
		ev.Close()
		return nil, wrapIO("enable perf counter", err)
	}
	c.byThread[tid] = ev
	return ev, nil
}

// gettid returns the calling OS thread's kernel thread ID, used both as
// the perfClock cache key and as the StackMap's per-thread key.
func gettid() int {
	return unix.Gettid()
}
