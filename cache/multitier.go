// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"sync/atomic"
	"time"
)

// Config sizes the three tiers. L3Dir must be writable; capacities are
// entry counts for L1/L2, byte budgets for all three.
type Config struct {
	L1Entries int
	L1Bytes   int
	L2Entries int
	L2Bytes   int
	L3Dir     string
	L3Bytes   int
}

// MultiTier is the L1/L2/L3 package cache described in §4.7: a promote-
// on-hit, cascade-on-evict pipeline over two in-memory LRUs and an
// on-disk store.
type MultiTier struct {
	l1 *tier
	l2 *tier
	l3 *l3Store

	hitsL1 atomic.Uint64
	hitsL2 atomic.Uint64
	hitsL3 atomic.Uint64
	misses atomic.Uint64
}

// NewMultiTier opens or creates the L3 directory and returns a ready
// MultiTier.
func NewMultiTier(cfg Config) (*MultiTier, error) {
	l3, err := openL3Store(cfg.L3Dir, cfg.L3Bytes)
	if err != nil {
		return nil, err
	}
	return &MultiTier{
		l1: newTier(cfg.L1Entries, cfg.L1Bytes),
		l2: newTier(cfg.L2Entries, cfg.L2Bytes),
		l3: l3,
	}, nil
}

// Get searches L1, then L2, then L3, promoting a lower-tier hit to L1
// and cascading any evictee downward. Access bookkeeping
// (last_accessed, access_count) is updated on every hit.
func (m *MultiTier) Get(key string) (CachedPackage, bool, error) {
	if pkg, ok := m.l1.get(key); ok {
		m.hitsL1.Add(1)
		pkg = touch(pkg)
		m.l1.put(pkg)
		return pkg, true, nil
	}

	if pkg, ok := m.l2.take(key); ok {
		m.hitsL2.Add(1)
		pkg = touch(pkg)
		m.promoteToL1(pkg)
		return pkg, true, nil
	}

	pkg, ok, err := m.l3.get(key)
	if err != nil {
		return CachedPackage{}, false, err
	}
	if ok {
		m.hitsL3.Add(1)
		m.l3.remove(key)
		pkg = touch(pkg)
		m.promoteToL1(pkg)
		return pkg, true, nil
	}

	m.misses.Add(1)
	return CachedPackage{}, false, nil
}

func touch(pkg CachedPackage) CachedPackage {
	pkg.LastAccessed = time.Now()
	pkg.AccessCount++
	return pkg
}

// Insert places pkg in L1, cascading any evictee to L2, and any L2
// evictee to L3.
func (m *MultiTier) Insert(pkg CachedPackage) error {
	return m.promoteToL1(pkg)
}

// promoteToL1 inserts pkg into L1 and cascades overflow down the tier
// chain, writing to L3 last since that is the only tier that can fail.
func (m *MultiTier) promoteToL1(pkg CachedPackage) error {
	evictedFromL1 := m.l1.put(pkg)
	for _, e := range evictedFromL1 {
		evictedFromL2 := m.l2.put(e)
		for _, e2 := range evictedFromL2 {
			if _, err := m.l3.put(e2); err != nil {
				return err
			}
		}
	}
	return nil
}

// Remove deletes key from every tier.
func (m *MultiTier) Remove(key string) bool {
	removed := m.l1.remove(key)
	removed = m.l2.remove(key) || removed
	removed = m.l3.remove(key) || removed
	return removed
}

// Clear empties every tier and resets statistics.
func (m *MultiTier) Clear() error {
	m.l1.clear()
	m.l2.clear()
	if err := m.l3.clear(); err != nil {
		return err
	}
	m.hitsL1.Store(0)
	m.hitsL2.Store(0)
	m.hitsL3.Store(0)
	m.misses.Store(0)
	return nil
}

// Stats returns a point-in-time snapshot of hit/miss counters.
func (m *MultiTier) Stats() Stats {
	return Stats{
		HitsL1: m.hitsL1.Load(),
		HitsL2: m.hitsL2.Load(),
		HitsL3: m.hitsL3.Load(),
		Misses: m.misses.Load(),
	}
}
