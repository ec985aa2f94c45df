// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ifr implements the Immediate Flow Registry: Layer 1's
// sub-millisecond lookup pipeline combining a Robin-Hood flow table, a
// rotating Bloom filter bank, and a small hot cache, exposed locally over
// a length-prefixed IPC frame protocol.
package ifr

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hypermesh/trustchain/bloom"
	"github.com/hypermesh/trustchain/flowtable"
	"github.com/hypermesh/trustchain/xerrors"
	"github.com/luxfi/log"
)

// Config controls an IFR Node's internal sizing.
type Config struct {
	TableCapacity  int
	HotCacheSize   int
	BloomRingSize  int
	BloomBits      uint64
	BloomHashes    int
	RotationPeriod time.Duration
}

// DefaultConfig sizes a Node with a 1<<20-bucket table (at most 786,432
// records below MaxLoadFactor), a 4096-entry hot cache, and a ring of
// eight 1<<24-bit Bloom filters. The Bloom ring alone occupies 16 MiB, so
// these defaults do not fit a 10 MB working set.
func DefaultConfig() Config {
	return Config{
		TableCapacity:  1 << 20,
		HotCacheSize:   4096,
		BloomRingSize:  8,
		BloomBits:      1 << 24,
		BloomHashes:    7,
		RotationPeriod: 10 * time.Minute,
	}
}

// Stats reports cumulative lookup-pipeline counters.
type Stats struct {
	HitL1          uint64
	BloomNegative  uint64
	HitTable       uint64
	Misses         uint64
	Inserts        uint64
	InsertFailures uint64
}

// Node composes the table, Bloom bank, and hot cache into the Layer-1
// lookup pipeline. It is safe for concurrent use from multiple IPC
// worker goroutines.
type Node struct {
	table *flowtable.Table
	bloom *bloom.Bank
	hot   *hotCache
	log   log.Logger

	hitL1          atomic.Uint64
	bloomNegative  atomic.Uint64
	hitTable       atomic.Uint64
	misses         atomic.Uint64
	inserts        atomic.Uint64
	insertFailures atomic.Uint64

	stopRotation chan struct{}
}

// New creates an IFR Node with the given Config.
func New(cfg Config, logger log.Logger) *Node {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Node{
		table: flowtable.New(cfg.TableCapacity),
		bloom: bloom.NewBank(cfg.BloomRingSize, cfg.BloomBits, cfg.BloomHashes),
		hot:   newHotCache(cfg.HotCacheSize),
		log:   logger,
	}
}

// StartRotation runs the Bloom bank's rotation on a ticker until ctx is
// canceled. Rotation is best-effort: a missed tick (rotation still in
// progress, e.g. under extreme load) is logged and retried on the next
// tick, never blocking the I/O loop.
func (n *Node) StartRotation(ctx context.Context, period time.Duration) {
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				n.bloom.Rotate()
				// A rotation that outlasts the period makes the ticker drop the
				// ticks in between; rotation resumes on the next delivered tick.
				if d := time.Since(start); d > period {
					n.log.Warn("ifr: bloom rotation overran its period, ticks missed", "duration", d, "period", period)
				}
			}
		}
	}()
}

// Lookup runs the three-stage pipeline: hot cache, then Bloom negative
// check, then the Robin-Hood table. On a table hit, the record is
// promoted into the hot cache. In-memory stages never suspend; this
// method does no I/O.
func (n *Node) Lookup(key flowtable.FlowKey) (flowtable.FlowRecord, bool) {
	if rec, ok := n.hot.get(key); ok {
		n.hitL1.Add(1)
		return rec, true
	}
	if !n.bloom.MightContain(key[:]) {
		n.bloomNegative.Add(1)
		return flowtable.FlowRecord{}, false
	}
	rec, ok := n.table.Lookup(key)
	if !ok {
		n.misses.Add(1)
		return flowtable.FlowRecord{}, false
	}
	n.hitTable.Add(1)
	n.hot.put(rec)
	return rec, true
}

// Insert writes to the table, adds to the Bloom bank, and pre-populates
// the hot cache. Returns xerrors.ErrCapacityExceeded if the table refuses
// the write (load factor too high or probe cap exceeded) — this is never
// fatal; the caller may trigger a rehash or reject the write.
func (n *Node) Insert(rec flowtable.FlowRecord) error {
	if !n.table.Insert(rec) {
		n.insertFailures.Add(1)
		return xerrors.ErrCapacityExceeded
	}
	n.bloom.Add(rec.Key[:])
	n.hot.put(rec)
	n.inserts.Add(1)
	return nil
}

// Remove deletes key from the table and the hot cache. The Bloom bank is
// insert-only; a stale positive for a removed key is resolved by the
// table lookup returning absent.
func (n *Node) Remove(key flowtable.FlowKey) bool {
	n.hot.remove(key)
	return n.table.Remove(key)
}

// Stats returns a point-in-time snapshot of pipeline counters.
func (n *Node) Stats() Stats {
	return Stats{
		HitL1:          n.hitL1.Load(),
		BloomNegative:  n.bloomNegative.Load(),
		HitTable:       n.hitTable.Load(),
		Misses:         n.misses.Load(),
		Inserts:        n.inserts.Load(),
		InsertFailures: n.insertFailures.Load(),
	}
}

// LoadFactor exposes the backing table's load factor for telemetry.
func (n *Node) LoadFactor() float64 {
	return n.table.LoadFactor()
}
