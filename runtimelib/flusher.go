package runtimelib

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/maoif/trec/config"
)

// flushPollInterval and flushPollCount together give the flusher's
// period: it wakes every 50ms, and performs one full flush every 20
// wakeups (one second), mirroring the teacher's profiler.go poll loop.
const (
	flushPollInterval = 50 * time.Millisecond
	flushPollCount    = 20
)

// Flusher periodically snapshots a Histogram to disk. It is started
// once by the runtime library's init path and stopped at process exit.
//
// The original implementation additionally masked all signals on its
// background flush thread, so that a signal delivered mid-flush could
// not interrupt a partially written file. Go's signal handling is
// process-wide and cannot be scoped to one goroutine's underlying OS
// thread the way pthread_sigmask can, so this Flusher masks no signals.
// WriteSnapshot truncates the file and rewrites it in place through a
// buffered writer, fsyncing before it returns; a process that dies
// mid-flush can leave a truncated file, which a reader sees as EOF in
// the middle of a record.
type Flusher struct {
	hist   *Histogram
	path   string
	header func() Header

	startPID int

	stop       chan struct{}
	done       chan struct{}
	once       sync.Once
	forkWarned sync.Once
}

// NewFlusher returns a Flusher that writes hist's snapshots to path.
// header is called fresh on every flush so the cmdline/binpath/pwd/mode
// fields reflect the calling process at flush time.
func NewFlusher(hist *Histogram, path string, header func() Header) *Flusher {
	return &Flusher{
		hist:     hist,
		path:     path,
		header:   header,
		startPID: os.Getpid(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run polls every flushPollInterval and flushes every flushPollCount
// polls, until Stop is called. It is meant to run in its own goroutine.
func (f *Flusher) Run() {
	defer close(f.done)

	ticker := time.NewTicker(flushPollInterval)
	defer ticker.Stop()

	count := 0
	for {
		select {
		case <-f.stop:
			f.flushIfOwner()
			return
		case <-ticker.C:
			count++
			if count >= flushPollCount {
				count = 0
				f.flushIfOwner()
			}
		}
	}
}

// flushIfOwner skips the flush if the process has forked since Run
// started: the child inherits the goroutine's memory but not its
// identity as the process that owns path, and flushing from both parent
// and (pre-exec) child would corrupt the file with interleaved writes.
// The first such skip logs a single diagnostic, per spec.md §4.8 step 1
// and §7's ForkedWriter policy; later skips in the same child stay
// silent.
func (f *Flusher) flushIfOwner() {
	if os.Getpid() != f.startPID {
		f.forkWarned.Do(func() {
			config.WarnDiagnostic("pid %d forked from %d, skipping flush of %s", os.Getpid(), f.startPID, f.path)
		})
		return
	}
	_ = f.flush()
}

func (f *Flusher) flush() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return wrapIO("create flush output directory", err)
	}
	return WriteSnapshot(f.path, f.header(), f.hist.Snapshot())
}

// Stop signals Run to perform one last flush and exit, and blocks until
// it has.
func (f *Flusher) Stop() {
	f.once.Do(func() { close(f.stop) })
	<-f.done
}
