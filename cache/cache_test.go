// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestMultiTier(t *testing.T, l1Entries, l2Entries int) *MultiTier {
	t.Helper()
	dir := t.TempDir()
	mt, err := NewMultiTier(Config{
		L1Entries: l1Entries,
		L1Bytes:   0,
		L2Entries: l2Entries,
		L2Bytes:   0,
		L3Dir:     dir,
		L3Bytes:   0,
	})
	require.NoError(t, err)
	return mt
}

func pkg(key, data string) CachedPackage {
	return NewCachedPackage(key, []byte(data), time.Now())
}

// TestEvictionLadderL1L2L3 mirrors the L1=1/L2=1/L3=unlimited scenario:
// inserting three distinct keys in turn should push the first down to
// L2 then to L3 as later inserts evict L1's single slot.
func TestEvictionLadderL1L2L3(t *testing.T) {
	mt := newTestMultiTier(t, 1, 1)

	require.NoError(t, mt.Insert(pkg("a", "aaa")))
	require.NoError(t, mt.Insert(pkg("b", "bbb"))) // evicts "a" from L1 to L2
	require.NoError(t, mt.Insert(pkg("c", "ccc"))) // evicts "b" from L1 to L2, "a" from L2 to L3

	got, ok, err := mt.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "aaa", string(got.Payload))
	require.Equal(t, uint64(1), mt.Stats().HitsL3)

	got, ok, err = mt.Get("b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "bbb", string(got.Payload))

	got, ok, err = mt.Get("c")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ccc", string(got.Payload))
}

func TestGetPromotesAndCascades(t *testing.T) {
	mt := newTestMultiTier(t, 1, 1)
	require.NoError(t, mt.Insert(pkg("x", "xxx")))
	require.NoError(t, mt.Insert(pkg("y", "yyy"))) // "x" pushed to L2

	// Getting "x" promotes it back to L1, pushing "y" down to L2.
	_, ok, err := mt.Get("x")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), mt.Stats().HitsL2)

	_, ok = mt.l1.get("x")
	require.True(t, ok)
	_, ok = mt.l2.get("y")
	require.True(t, ok)
}

func TestMissIncrementsCounter(t *testing.T) {
	mt := newTestMultiTier(t, 4, 4)
	_, ok, err := mt.Get("missing")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, uint64(1), mt.Stats().Misses)
}

func TestRemoveDeletesFromEveryTier(t *testing.T) {
	mt := newTestMultiTier(t, 1, 1)
	require.NoError(t, mt.Insert(pkg("a", "aaa")))
	require.NoError(t, mt.Insert(pkg("b", "bbb")))
	require.NoError(t, mt.Insert(pkg("c", "ccc"))) // "a" now in L3

	require.True(t, mt.Remove("a"))
	_, ok, err := mt.Get("a")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestL3SurvivesReopenAndPrunesOrphans(t *testing.T) {
	dir := t.TempDir()
	mt, err := NewMultiTier(Config{L1Entries: 1, L2Entries: 1, L3Dir: dir})
	require.NoError(t, err)

	require.NoError(t, mt.Insert(pkg("a", "aaa")))
	require.NoError(t, mt.Insert(pkg("b", "bbb")))
	require.NoError(t, mt.Insert(pkg("c", "ccc"))) // "a" lands in L3

	reopened, err := NewMultiTier(Config{L1Entries: 1, L2Entries: 1, L3Dir: dir})
	require.NoError(t, err)
	got, ok, err := reopened.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "aaa", string(got.Payload))
}

func TestL3HashMismatchReportsMiss(t *testing.T) {
	dir := t.TempDir()
	mt := newTestMultiTier(t, 1, 1)
	mt.l3 = func() *l3Store {
		s, err := openL3Store(dir, 0)
		require.NoError(t, err)
		return s
	}()

	p := pkg("corrupt", "payload")
	_, err := mt.l3.put(p)
	require.NoError(t, err)

	// Corrupt the on-disk hash recorded in the index without touching
	// the payload file, simulating bit rot or a partial write.
	entry := mt.l3.index["corrupt"]
	entry.Hash = "0000000000000000000000000000000000000000000000000000000000000000"
	mt.l3.index["corrupt"] = entry

	_, ok, err := mt.l3.get("corrupt")
	require.NoError(t, err)
	require.False(t, ok)
	_, stillIndexed := mt.l3.index["corrupt"]
	require.False(t, stillIndexed)
}

func TestClearResetsStatsAndTiers(t *testing.T) {
	mt := newTestMultiTier(t, 4, 4)
	require.NoError(t, mt.Insert(pkg("a", "aaa")))
	_, _, _ = mt.Get("a")
	_, _, _ = mt.Get("missing")

	require.NoError(t, mt.Clear())
	stats := mt.Stats()
	require.Zero(t, stats.HitsL1)
	require.Zero(t, stats.Misses)

	_, ok, err := mt.Get("a")
	require.NoError(t, err)
	require.False(t, ok)
}
