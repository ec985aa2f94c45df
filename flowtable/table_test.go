// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package flowtable

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomKey(t *testing.T) FlowKey {
	t.Helper()
	var k FlowKey
	_, err := rand.Read(k[:])
	require.NoError(t, err)
	return k
}

func TestInsertLookupRoundTrip(t *testing.T) {
	table := New(1024)
	keys := make([]FlowKey, 0, 512)
	for i := 0; i < 512; i++ {
		k := randomKey(t)
		keys = append(keys, k)
		rec := FlowRecord{Key: k, ComponentID: uint32(i)}
		require.True(t, table.Insert(rec))
	}
	require.LessOrEqual(t, table.LoadFactor(), MaxLoadFactor)

	for i, k := range keys {
		rec, ok := table.Lookup(k)
		require.True(t, ok)
		require.Equal(t, uint32(i), rec.ComponentID)
	}
}

func TestLookupAbsentReturnsFalse(t *testing.T) {
	table := New(256)
	for i := 0; i < 100; i++ {
		require.True(t, table.Insert(FlowRecord{Key: randomKey(t)}))
	}
	require.False(t, func() bool {
		_, ok := table.Lookup(randomKey(t))
		return ok
	}())
}

func TestInsertRefusesAboveLoadFactor(t *testing.T) {
	table := New(8)
	inserted := 0
	for i := 0; i < 100; i++ {
		if table.Insert(FlowRecord{Key: randomKey(t)}) {
			inserted++
		} else {
			break
		}
	}
	require.LessOrEqual(t, float64(inserted)/8.0, MaxLoadFactor+1.0/8.0)
}

func TestOverwriteExistingKey(t *testing.T) {
	table := New(64)
	k := randomKey(t)
	require.True(t, table.Insert(FlowRecord{Key: k, ComponentID: 1}))
	require.True(t, table.Insert(FlowRecord{Key: k, ComponentID: 2}))
	rec, ok := table.Lookup(k)
	require.True(t, ok)
	require.Equal(t, uint32(2), rec.ComponentID)
	require.Equal(t, 1, table.Len())
}

func TestRemove(t *testing.T) {
	table := New(64)
	keys := make([]FlowKey, 10)
	for i := range keys {
		keys[i] = randomKey(t)
		require.True(t, table.Insert(FlowRecord{Key: keys[i], ComponentID: uint32(i)}))
	}

	require.True(t, table.Remove(keys[3]))
	_, ok := table.Lookup(keys[3])
	require.False(t, ok)

	for i, k := range keys {
		if i == 3 {
			continue
		}
		rec, ok := table.Lookup(k)
		require.True(t, ok, "key %d should remain after removing key 3", i)
		require.Equal(t, uint32(i), rec.ComponentID)
	}

	require.False(t, table.Remove(keys[3]), "removing again should report false")
}

func TestWorstCaseProbeBounded(t *testing.T) {
	table := New(2048)
	for i := 0; i < int(float64(2048)*0.7); i++ {
		require.True(t, table.Insert(FlowRecord{Key: randomKey(t)}))
	}
	// A lookup for a key that was never inserted must terminate (within
	// probeCap scans) and report absent, never loop indefinitely.
	_, ok := table.Lookup(randomKey(t))
	require.False(t, ok)
}
