// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package ifr

import (
	"container/list"
	"sync"

	"github.com/hypermesh/trustchain/flowtable"
)

// hotCache is a small LRU mapping FlowKey to FlowRecord, capacity much
// smaller than the backing Robin-Hood table, used to shortcut the lookup
// pipeline's first probe.
type hotCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[flowtable.FlowKey]*list.Element
}

type hotCacheEntry struct {
	key flowtable.FlowKey
	rec flowtable.FlowRecord
}

func newHotCache(capacity int) *hotCache {
	if capacity < 1 {
		capacity = 1
	}
	return &hotCache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[flowtable.FlowKey]*list.Element, capacity),
	}
}

func (c *hotCache) get(key flowtable.FlowKey) (flowtable.FlowRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return flowtable.FlowRecord{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*hotCacheEntry).rec, true
}

func (c *hotCache) put(rec flowtable.FlowRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[rec.Key]; ok {
		el.Value.(*hotCacheEntry).rec = rec
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&hotCacheEntry{key: rec.Key, rec: rec})
	c.items[rec.Key] = el
	if c.ll.Len() > c.capacity {
		back := c.ll.Back()
		if back != nil {
			entry := back.Value.(*hotCacheEntry)
			delete(c.items, entry.key)
			c.ll.Remove(back)
		}
	}
}

func (c *hotCache) remove(key flowtable.FlowKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		delete(c.items, key)
		c.ll.Remove(el)
	}
}
