// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// l3IndexEntry is the persisted record for one L3 entry, per §6.5:
// index.json maps key -> {file, hash, size_bytes, last_accessed}.
type l3IndexEntry struct {
	File         string    `json:"file"`
	Hash         string    `json:"hash"`
	SizeBytes    int       `json:"size_bytes"`
	LastAccessed time.Time `json:"last_accessed"`
}

// l3Store is the on-disk cold tier: index.json plus one <hex>.cache file
// per entry, where <hex> is the hex-encoded SHA-256 of the entry's key
// (not its content hash, so that two distinct keys never contend for the
// same file even if their payloads happen to coincide).
type l3Store struct {
	mu       sync.Mutex
	dir      string
	capBytes int
	curBytes int
	index    map[string]l3IndexEntry
}

// openL3Store loads dir's index.json (creating dir and an empty index if
// absent) and prunes any *.cache file not referenced by the index —
// per §4.7, a crash can only leave an orphaned file, never a dangling
// index entry, so pruning unreferenced files is sufficient to restore
// a clean state.
func openL3Store(dir string, capBytes int) (*l3Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	s := &l3Store{dir: dir, capBytes: capBytes, index: make(map[string]l3IndexEntry)}

	indexPath := filepath.Join(dir, "index.json")
	data, err := os.ReadFile(indexPath)
	if err == nil {
		if err := json.Unmarshal(data, &s.index); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	referenced := make(map[string]bool, len(s.index))
	for _, entry := range s.index {
		referenced[entry.File] = true
		s.curBytes += entry.SizeBytes
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		name := e.Name()
		if name == "index.json" || e.IsDir() {
			continue
		}
		if !referenced[name] {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
	return s, nil
}

func fileKeyFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:]) + ".cache"
}

// writeIndexLocked must be called with s.mu held.
func (s *l3Store) writeIndexLocked() error {
	data, err := json.Marshal(s.index)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, "index.json"), data, 0o644)
}

// get reads key's payload, verifying its hash. A mismatch removes the
// entry and reports a miss rather than returning corrupt data.
func (s *l3Store) get(key string) (CachedPackage, bool, error) {
	s.mu.Lock()
	entry, ok := s.index[key]
	s.mu.Unlock()
	if !ok {
		return CachedPackage{}, false, nil
	}

	payload, err := os.ReadFile(filepath.Join(s.dir, entry.File))
	if err != nil {
		if os.IsNotExist(err) {
			s.remove(key)
			return CachedPackage{}, false, nil
		}
		return CachedPackage{}, false, err
	}

	sum := HashPayload(payload)
	if hex.EncodeToString(sum[:]) != entry.Hash {
		s.remove(key)
		return CachedPackage{}, false, nil
	}

	s.mu.Lock()
	entry.LastAccessed = time.Now()
	s.index[key] = entry
	writeErr := s.writeIndexLocked()
	s.mu.Unlock()
	if writeErr != nil {
		return CachedPackage{}, false, writeErr
	}

	return CachedPackage{
		Key:          key,
		Payload:      payload,
		Hash:         sum,
		SizeBytes:    len(payload),
		LastAccessed: entry.LastAccessed,
	}, true, nil
}

// put writes pkg's payload file before rewriting index.json, per §4.7's
// durability ordering, then evicts the oldest L3 entries (by
// last_accessed) while the byte budget is exceeded.
func (s *l3Store) put(pkg CachedPackage) ([]CachedPackage, error) {
	fileName := fileKeyFor(pkg.Key)
	if err := os.WriteFile(filepath.Join(s.dir, fileName), pkg.Payload, 0o644); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if old, ok := s.index[pkg.Key]; ok {
		s.curBytes -= old.SizeBytes
		if old.File != fileName {
			_ = os.Remove(filepath.Join(s.dir, old.File))
		}
	}
	s.index[pkg.Key] = l3IndexEntry{
		File:         fileName,
		Hash:         hex.EncodeToString(pkg.Hash[:]),
		SizeBytes:    pkg.SizeBytes,
		LastAccessed: pkg.LastAccessed,
	}
	s.curBytes += pkg.SizeBytes
	if err := s.writeIndexLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	evicted := s.evictOverBudgetLocked()
	s.mu.Unlock()
	return evicted, nil
}

// evictOverBudgetLocked drops the oldest entries by LastAccessed until
// curBytes is within capBytes. Must be called with s.mu held.
func (s *l3Store) evictOverBudgetLocked() []CachedPackage {
	if s.capBytes <= 0 {
		return nil
	}
	var evicted []CachedPackage
	for s.curBytes > s.capBytes {
		var oldestKey string
		var oldestEntry l3IndexEntry
		found := false
		for k, e := range s.index {
			if !found || e.LastAccessed.Before(oldestEntry.LastAccessed) {
				oldestKey, oldestEntry, found = k, e, true
			}
		}
		if !found {
			break
		}
		payload, _ := os.ReadFile(filepath.Join(s.dir, oldestEntry.File))
		evicted = append(evicted, CachedPackage{
			Key:          oldestKey,
			Payload:      payload,
			SizeBytes:    oldestEntry.SizeBytes,
			LastAccessed: oldestEntry.LastAccessed,
		})
		delete(s.index, oldestKey)
		s.curBytes -= oldestEntry.SizeBytes
		_ = os.Remove(filepath.Join(s.dir, oldestEntry.File))
		_ = s.writeIndexLocked()
	}
	return evicted
}

func (s *l3Store) remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(key)
}

// removeLocked must be called with s.mu held.
func (s *l3Store) removeLocked(key string) bool {
	entry, ok := s.index[key]
	if !ok {
		return false
	}
	delete(s.index, key)
	s.curBytes -= entry.SizeBytes
	_ = os.Remove(filepath.Join(s.dir, entry.File))
	_ = s.writeIndexLocked()
	return true
}

func (s *l3Store) clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.index {
		_ = os.Remove(filepath.Join(s.dir, entry.File))
	}
	s.index = make(map[string]l3IndexEntry)
	s.curBytes = 0
	return s.writeIndexLocked()
}
