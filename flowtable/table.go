// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package flowtable implements a bounded-probe, open-addressed Robin-Hood
// hash table mapping a 32-byte FlowKey to a FlowRecord. Robin-Hood
// hashing minimizes probe-length variance: on collision, the newcomer
// with the greater displacement from its ideal bucket evicts the
// resident with the lesser displacement ("rob the rich"), which keeps
// worst-case lookup latency tight.
package flowtable

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"
	"time"
)

// DefaultProbeCap bounds the worst-case number of buckets scanned by a
// single Insert or Lookup, per spec.
const DefaultProbeCap = 100

// MaxLoadFactor is the load factor at or above which Insert refuses new
// entries.
const MaxLoadFactor = 0.75

// FlowKey is an opaque 32-byte identifier.
type FlowKey [32]byte

// FlowRecord is the fixed-size value stored per FlowKey. Equality is by
// Key; Metadata is an 8-byte opaque payload.
type FlowRecord struct {
	Key         FlowKey
	ComponentID uint32
	TimestampNs uint64
	Metadata    [8]byte
}

type bucket struct {
	occupied     bool
	record       FlowRecord
	displacement int
}

// Table is a fixed-capacity Robin-Hood open-addressed hash table. It is
// safe for concurrent use: reads take an RLock, writes take a Lock,
// matching the reader-heavy workload described in the spec.
type Table struct {
	mu       sync.RWMutex
	buckets  []bucket
	capacity int
	count    int
	probeCap int
}

// New creates a Table with the given bucket capacity. capacity need not be
// a power of two, though it is recommended for hash distribution.
func New(capacity int) *Table {
	if capacity < 1 {
		capacity = 1
	}
	return &Table{
		buckets:  make([]bucket, capacity),
		capacity: capacity,
		probeCap: DefaultProbeCap,
	}
}

func idealBucket(key FlowKey, capacity int) int {
	sum := sha256.Sum256(key[:])
	h := binary.BigEndian.Uint64(sum[:8])
	return int(h % uint64(capacity))
}

// LoadFactor returns count/capacity.
func (t *Table) LoadFactor() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return float64(t.count) / float64(t.capacity)
}

// Len returns the number of stored records.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Insert stores record, evicting lower-displacement residents as needed.
// It returns false (without mutating state further than necessary) if the
// load factor is already at or above MaxLoadFactor, or if any single
// insertion would exceed the probe cap — both signal a rehash-needed
// condition to the caller rather than a crash.
func (t *Table) Insert(record FlowRecord) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if float64(t.count)/float64(t.capacity) >= MaxLoadFactor {
		return false
	}

	incoming := bucket{occupied: true, record: record, displacement: 0}
	idx := idealBucket(record.Key, t.capacity)

	// Robin-Hood swaps mutate buckets as they probe; if the probe cap is
	// hit before landing incoming, those swaps must be undone so a false
	// return really does leave the table as found.
	type swap struct {
		idx int
		old bucket
	}
	var swaps []swap

	for probes := 0; probes < t.probeCap; probes++ {
		slot := &t.buckets[idx]
		if !slot.occupied {
			*slot = incoming
			t.count++
			return true
		}
		if slot.record.Key == incoming.record.Key {
			// Key already present: overwrite in place, displacement unchanged.
			slot.record = incoming.record
			return true
		}
		if incoming.displacement > slot.displacement {
			// Rob the rich: swap and keep probing with the evicted entry.
			swaps = append(swaps, swap{idx, *slot})
			incoming, *slot = *slot, incoming
		}
		incoming.displacement++
		idx = (idx + 1) % t.capacity
	}

	for i := len(swaps) - 1; i >= 0; i-- {
		t.buckets[swaps[i].idx] = swaps[i].old
	}
	return false
}

// Lookup returns the record for key and true, or the zero value and false
// if absent. By the Robin-Hood invariant, lookup can stop as soon as the
// current probe's displacement exceeds the resident's: the key cannot
// exist further along the probe sequence.
func (t *Table) Lookup(key FlowKey) (FlowRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := idealBucket(key, t.capacity)
	for displacement := 0; displacement < t.probeCap; displacement++ {
		slot := &t.buckets[idx]
		if !slot.occupied {
			return FlowRecord{}, false
		}
		if slot.record.Key == key {
			return slot.record, true
		}
		if displacement > slot.displacement {
			return FlowRecord{}, false
		}
		idx = (idx + 1) % t.capacity
	}
	return FlowRecord{}, false
}

// Remove deletes key if present, backward-shifting subsequent entries to
// preserve the Robin-Hood displacement invariant. Reports whether a
// record was removed.
func (t *Table) Remove(key FlowKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := idealBucket(key, t.capacity)
	found := -1
	for displacement := 0; displacement < t.probeCap; displacement++ {
		slot := &t.buckets[idx]
		if !slot.occupied {
			return false
		}
		if slot.record.Key == key {
			found = idx
			break
		}
		if displacement > slot.displacement {
			return false
		}
		idx = (idx + 1) % t.capacity
	}
	if found == -1 {
		return false
	}

	// Backward-shift deletion: pull subsequent entries back while they
	// have nonzero displacement, closing the gap without breaking probes.
	cur := found
	next := (cur + 1) % t.capacity
	for t.buckets[next].occupied && t.buckets[next].displacement > 0 {
		t.buckets[cur] = t.buckets[next]
		t.buckets[cur].displacement--
		cur = next
		next = (next + 1) % t.capacity
	}
	t.buckets[cur] = bucket{}
	t.count--
	return true
}

// NowNanos is a convenience for populating FlowRecord.TimestampNs.
func NowNanos() uint64 {
	return uint64(time.Now().UnixNano())
}
