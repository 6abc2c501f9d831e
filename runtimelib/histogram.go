package runtimelib

import (
	"sort"
	"sync"

	"github.com/maoif/trec/config"
)

// Histogram is the fixed-width bucket table spec.md §3/§4.7 describes:
// config.BucketCount signed-int64 counters per probe ID, indexed by a
// binary search over interval-sized boundaries rather than a division,
// matching the original's avoidance of a division on every probe exit.
// A single mutex guards every ID's buckets; insertion is lazy, so an ID
// that never fires never allocates a row.
type Histogram struct {
	mu       sync.Mutex
	interval int64
	buckets  map[uint64][]int64
}

// NewHistogram returns an empty Histogram with the given bucket width in
// clock units.
func NewHistogram(interval int) *Histogram {
	return &Histogram{interval: int64(interval), buckets: make(map[uint64][]int64)}
}

// bucketIndex returns the bucket delta falls into: bucket i covers
// [i*interval, (i+1)*interval), with the last bucket absorbing every
// delta at or beyond (config.BucketCount-1)*interval.
func (h *Histogram) bucketIndex(delta int64) int {
	if delta < 0 {
		delta = 0
	}
	i := sort.Search(config.BucketCount-1, func(i int) bool {
		return delta < int64(i+1)*h.interval
	})
	return i
}

// Record adds one observation of delta to id's histogram, allocating the
// row on first use.
func (h *Histogram) Record(id uint64, delta int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	row, ok := h.buckets[id]
	if !ok {
		row = make([]int64, config.BucketCount)
		h.buckets[id] = row
	}
	row[h.bucketIndex(delta)]++
}

// Snapshot returns a copy of every id's histogram row, for the flusher
// to serialize without holding the lock during file I/O.
func (h *Histogram) Snapshot() map[uint64][]int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[uint64][]int64, len(h.buckets))
	for id, row := range h.buckets {
		copied := make([]int64, len(row))
		copy(copied, row)
		out[id] = copied
	}
	return out
}
