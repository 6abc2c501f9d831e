package runtimelib

import "sync"

// threadStack is one thread's pending entry times, keyed by probe ID
// (a FID or BBID). It is never accessed by more than one OS thread, so
// its own map needs no lock.
type threadStack struct {
	pending map[uint64]int64
}

// StackMap is the process-wide per-thread entry-time map (spec.md §4.6).
// It is keyed by kernel thread ID rather than a language-level thread
// handle or goroutine ID, so that an entry recorded from one cgo call
// into the runtime library can still be found by a later call on the
// same OS thread, surviving Go-runtime bookkeeping the probe ABI does
// not control.
type StackMap struct {
	mu       sync.Mutex
	byThread map[int]*threadStack
}

// NewStackMap returns an empty StackMap.
func NewStackMap() *StackMap {
	return &StackMap{byThread: make(map[int]*threadStack)}
}

func (m *StackMap) forThread(tid int) *threadStack {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byThread[tid]
	if !ok {
		s = &threadStack{pending: make(map[uint64]int64)}
		m.byThread[tid] = s
	}
	return s
}

// Enter records t as the entry time for id on the calling thread tid.
// A second Enter for the same (tid, id) before a matching Exit overwrites
// the first — the probe ABI does not support re-entrant calls on the
// same id within one thread.
func (m *StackMap) Enter(tid int, id uint64, t int64) {
	s := m.forThread(tid)
	s.pending[id] = t
}

// Exit returns and clears the entry time id was last given on tid. ok is
// false if no matching Enter was recorded — a probe-exit call without a
// corresponding probe-enter, which the runtime library treats as a
// no-op rather than an error.
func (m *StackMap) Exit(tid int, id uint64) (int64, bool) {
	s := m.forThread(tid)
	t, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	return t, ok
}
