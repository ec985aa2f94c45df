// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"container/list"
	"sync"
)

// tier is an in-memory LRU of CachedPackage bounded by both entry count
// and total byte budget, whichever is hit first. Eviction runs LRU by
// last-touch order (MoveToFront on every get/put), matching §5's "LRU by
// last_accessed; ties broken by lower access_count" ordering guarantee —
// ties do not arise here because every touch reorders the list.
type tier struct {
	mu         sync.Mutex
	ll         *list.List
	entries    map[string]*list.Element
	capEntries int
	capBytes   int
	curBytes   int
}

func newTier(capEntries, capBytes int) *tier {
	if capEntries <= 0 {
		capEntries = 1
	}
	if capBytes < 0 {
		capBytes = 0
	}
	return &tier{
		ll:         list.New(),
		entries:    make(map[string]*list.Element, capEntries),
		capEntries: capEntries,
		capBytes:   capBytes,
	}
}

// get returns the package for key, promoting it to the front of the LRU
// list, but does not remove it.
func (t *tier) get(key string) (CachedPackage, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	el, ok := t.entries[key]
	if !ok {
		return CachedPackage{}, false
	}
	t.ll.MoveToFront(el)
	return el.Value.(CachedPackage), true
}

// take returns and removes the package for key (used when promoting a
// hit from a lower tier up into L1).
func (t *tier) take(key string) (CachedPackage, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	el, ok := t.entries[key]
	if !ok {
		return CachedPackage{}, false
	}
	pkg := el.Value.(CachedPackage)
	t.removeElement(el)
	return pkg, true
}

// put inserts or overwrites pkg and reports the entries evicted to make
// room, oldest first.
func (t *tier) put(pkg CachedPackage) []CachedPackage {
	t.mu.Lock()
	defer t.mu.Unlock()

	if el, ok := t.entries[pkg.Key]; ok {
		old := el.Value.(CachedPackage)
		t.curBytes -= old.SizeBytes
		el.Value = pkg
		t.curBytes += pkg.SizeBytes
		t.ll.MoveToFront(el)
	} else {
		el := t.ll.PushFront(pkg)
		t.entries[pkg.Key] = el
		t.curBytes += pkg.SizeBytes
	}
	return t.evict()
}

func (t *tier) remove(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	el, ok := t.entries[key]
	if !ok {
		return false
	}
	t.removeElement(el)
	return true
}

func (t *tier) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ll.Init()
	t.entries = make(map[string]*list.Element, t.capEntries)
	t.curBytes = 0
}

func (t *tier) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ll.Len()
}

// evict drops back-of-list entries while either budget is exceeded,
// returning what was dropped so the caller can cascade it to the next
// tier. Must be called with t.mu held.
func (t *tier) evict() []CachedPackage {
	var evicted []CachedPackage
	for (t.capEntries > 0 && t.ll.Len() > t.capEntries) || (t.capBytes > 0 && t.curBytes > t.capBytes) {
		el := t.ll.Back()
		if el == nil {
			break
		}
		pkg := el.Value.(CachedPackage)
		t.removeElement(el)
		evicted = append(evicted, pkg)
	}
	return evicted
}

// removeElement must be called with t.mu held.
func (t *tier) removeElement(el *list.Element) {
	pkg := el.Value.(CachedPackage)
	delete(t.entries, pkg.Key)
	t.curBytes -= pkg.SizeBytes
	t.ll.Remove(el)
}
