// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package bloom

import (
	"sync"
	"sync/atomic"
)

// Bank is a ring of K Bloom filters. Only the filter at the current index
// receives insertions; MightContain is a disjunction over every filter in
// the ring, so a key survives for at least K-1 rotations after its last
// insert.
type Bank struct {
	filters []*Filter
	current int32 // atomic index into filters

	rotateMu sync.Mutex
}

// NewBank creates a Bank of k filters, each with m bits and h hash
// functions.
func NewBank(k int, m uint64, h int) *Bank {
	if k < 1 {
		k = 1
	}
	filters := make([]*Filter, k)
	for i := range filters {
		filters[i] = NewFilter(m, h)
	}
	return &Bank{filters: filters}
}

// Add inserts key into the current filter.
func (b *Bank) Add(key []byte) {
	idx := atomic.LoadInt32(&b.current)
	b.filters[idx].Add(key)
}

// MightContain is true if any filter in the ring reports membership.
func (b *Bank) MightContain(key []byte) bool {
	for _, f := range b.filters {
		if f.MightContain(key) {
			return true
		}
	}
	return false
}

// Rotate advances the current pointer modulo K. The invariant that must
// hold is clear-then-use: the incoming filter is zeroed before it becomes
// the writable current filter, so readers never observe a window where
// writes land on stale bits. A naive swap-then-zero would create exactly
// that window.
func (b *Bank) Rotate() {
	b.rotateMu.Lock()
	defer b.rotateMu.Unlock()

	next := (atomic.LoadInt32(&b.current) + 1) % int32(len(b.filters))
	b.filters[next].Zero()
	atomic.StoreInt32(&b.current, next)
}

// Size returns the number of filters in the ring (K).
func (b *Bank) Size() int {
	return len(b.filters)
}
