// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bloom implements a single Bloom filter and a rotating bank of
// them. The bank ages out old entries by slot rotation rather than
// expensive scrubbing, giving bounded staleness: a key inserted into the
// current filter is guaranteed present for at least K-1 rotation periods.
package bloom

import (
	"crypto/sha256"
	"encoding/binary"
	"sync/atomic"
)

// Filter is a fixed-size bit array with h independent hash functions,
// each bit accessed atomically so `MightContain` never races with `Add`.
type Filter struct {
	bits []uint64
	m    uint64 // number of bits
	h    int    // number of hash functions
}

// NewFilter creates a Filter with m bits and h hash functions.
func NewFilter(m uint64, h int) *Filter {
	if m == 0 {
		m = 1
	}
	if h < 1 {
		h = 1
	}
	words := (m + 63) / 64
	return &Filter{bits: make([]uint64, words), m: m, h: h}
}

// hashIndex computes H_i(key) = H(seed_i || key) reduced to [0, m).
func (f *Filter) hashIndex(seed int, key []byte) uint64 {
	h := sha256.New()
	var seedBuf [8]byte
	binary.BigEndian.PutUint64(seedBuf[:], uint64(seed))
	h.Write(seedBuf[:])
	h.Write(key)
	sum := h.Sum(nil)
	v := binary.BigEndian.Uint64(sum[:8])
	return v % f.m
}

func (f *Filter) setBit(idx uint64) {
	word := idx / 64
	bit := uint64(1) << (idx % 64)
	for {
		old := atomic.LoadUint64(&f.bits[word])
		newVal := old | bit
		if old == newVal || atomic.CompareAndSwapUint64(&f.bits[word], old, newVal) {
			return
		}
	}
}

func (f *Filter) getBit(idx uint64) bool {
	word := idx / 64
	bit := uint64(1) << (idx % 64)
	return atomic.LoadUint64(&f.bits[word])&bit != 0
}

// Add inserts key into the filter.
func (f *Filter) Add(key []byte) {
	for i := 0; i < f.h; i++ {
		f.setBit(f.hashIndex(i, key))
	}
}

// MightContain reports whether key may be present. False positives are
// possible; false negatives are not, for keys added since the last zero.
func (f *Filter) MightContain(key []byte) bool {
	for i := 0; i < f.h; i++ {
		if !f.getBit(f.hashIndex(i, key)) {
			return false
		}
	}
	return true
}

// Zero clears every bit in the filter.
func (f *Filter) Zero() {
	for i := range f.bits {
		atomic.StoreUint64(&f.bits[i], 0)
	}
}
