// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package edge

import (
	"fmt"
	"time"

	"github.com/hypermesh/trustchain/cache"
	"github.com/hypermesh/trustchain/xerrors"
)

// accessRecord feeds the prefetch predictor: a rolling access count per
// content key, scored against cfg.PrefetchThreshold.
type accessRecord struct {
	hits       int
	lastSeen   time.Time
	prefetched map[string]struct{} // node IDs already holding a prefetched copy
}

func quorumFor(replicationFactor int) int {
	return (replicationFactor+1)/2 + 1
}

// CacheContent implements §4.8's cache_content(content): places pkg on
// every replication target chosen by the ReplicationManager, reporting
// success once the failure quorum ⌈replication_factor/2⌉+1 of writes
// have succeeded. It also updates the prefetch access record and, once
// a key's score crosses PrefetchThreshold, proactively places the
// content on additional nodes beyond its replication set.
func (f *Fabric) CacheContent(key string, payload []byte, now time.Time) error {
	targets := f.repl.Targets(key, f.cfg.ReplicationFactor)
	if len(targets) == 0 {
		return xerrors.ErrUnreachable
	}

	pkg := cache.NewCachedPackage(key, payload, now)
	succeeded := 0
	for _, id := range targets {
		if f.writeToNode(id, pkg) {
			succeeded++
		}
	}

	required := quorumFor(f.cfg.ReplicationFactor)
	if succeeded < required {
		return fmt.Errorf("edge: %w: placed on %d/%d replicas, need %d",
			xerrors.ErrReplicationQuorumFailed, succeeded, len(targets), required)
	}

	f.recordAccessAndMaybePrefetch(key, pkg, targets, now)
	return nil
}

func (f *Fabric) writeToNode(nodeID string, pkg cache.CachedPackage) bool {
	f.mu.RLock()
	mt, ok := f.caches[nodeID]
	f.mu.RUnlock()
	if !ok {
		return false
	}
	if err := mt.Insert(pkg); err != nil {
		f.log.Warn("edge: cache write failed", "node_id", nodeID, "key", pkg.Key, "error", err)
		return false
	}
	return true
}

// recordAccessAndMaybePrefetch updates the per-key access record and,
// once its score crosses PrefetchThreshold, proactively places the
// content on one additional healthy node not already a replication
// target or prior prefetch copy.
func (f *Fabric) recordAccessAndMaybePrefetch(key string, pkg cache.CachedPackage, targets []string, now time.Time) {
	f.mu.Lock()
	rec, ok := f.access[key]
	if !ok {
		rec = &accessRecord{lastSeen: now, prefetched: make(map[string]struct{})}
		f.access[key] = rec
	}
	rec.hits++
	score := prefetchScore(rec, now)
	rec.lastSeen = now
	f.mu.Unlock()

	if score < f.cfg.PrefetchThreshold {
		return
	}

	excluded := make(map[string]struct{}, len(targets))
	for _, id := range targets {
		excluded[id] = struct{}{}
	}
	f.mu.RLock()
	for id := range rec.prefetched {
		excluded[id] = struct{}{}
	}
	f.mu.RUnlock()

	for _, id := range f.healthyNodeIDs(now) {
		if _, skip := excluded[id]; skip {
			continue
		}
		if f.writeToNode(id, pkg) {
			f.mu.Lock()
			rec.prefetched[id] = struct{}{}
			f.mu.Unlock()
			return
		}
	}
}

// prefetchScore is a simple recency-weighted hit-rate heuristic in
// [0,1): more hits within a short window push the score toward 1.
func prefetchScore(rec *accessRecord, now time.Time) float64 {
	age := now.Sub(rec.lastSeen)
	if age < 0 {
		age = 0
	}
	decay := 1.0
	if age > time.Minute {
		decay = 1.0 / (1.0 + age.Minutes()/10)
	}
	score := float64(rec.hits) / float64(rec.hits+4) * decay
	if score > 1 {
		score = 1
	}
	return score
}

// InvalidateCache implements §4.8's invalidate_cache(id): fans a remove
// out to every node's cache, not only the replication targets, to cover
// stale prefetched copies.
func (f *Fabric) InvalidateCache(key string) {
	f.mu.RLock()
	ids := make([]string, 0, len(f.caches))
	for id := range f.caches {
		ids = append(ids, id)
	}
	f.mu.RUnlock()

	for _, id := range ids {
		f.mu.RLock()
		mt := f.caches[id]
		f.mu.RUnlock()
		if mt != nil {
			mt.Remove(key)
		}
	}

	f.mu.Lock()
	delete(f.access, key)
	f.mu.Unlock()
}
