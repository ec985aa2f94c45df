// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cache implements the three-tier (L1 hot / L2 warm / L3 cold)
// package cache described in §4.7: an in-memory LRU pair backed by an
// on-disk index-plus-payload-files store, with promotion on hit and
// cascading eviction on insert.
package cache

import (
	"crypto/sha256"
	"time"
)

// CachedPackage is the value type stored at every tier.
type CachedPackage struct {
	Key          string
	Payload      []byte
	Hash         [32]byte
	SizeBytes    int
	LastAccessed time.Time
	AccessCount  uint64
}

// HashPayload computes the content hash a CachedPackage is validated
// against on L3 read.
func HashPayload(payload []byte) [32]byte {
	return sha256.Sum256(payload)
}

// NewCachedPackage builds a CachedPackage with its hash and size derived
// from payload.
func NewCachedPackage(key string, payload []byte, now time.Time) CachedPackage {
	return CachedPackage{
		Key:          key,
		Payload:      payload,
		Hash:         HashPayload(payload),
		SizeBytes:    len(payload),
		LastAccessed: now,
		AccessCount:  0,
	}
}

// Stats reports cumulative tier hit/miss counters.
type Stats struct {
	HitsL1 uint64
	HitsL2 uint64
	HitsL3 uint64
	Misses uint64
}
