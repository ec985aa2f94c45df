// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package edge

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hypermesh/trustchain/xerrors"
	"github.com/stretchr/testify/require"
)

func testNode(id, country string, lat, lon float64) EdgeNode {
	return EdgeNode{
		ID:       id,
		Geo:      Geo{Lat: lat, Lon: lon, Country: country},
		Capacity: Capacity{CacheBytes: 1 << 20, MaxConns: 100},
		Metrics:  Metrics{AvailableCapacity: 1.0},
	}
}

func newTestFabric(t *testing.T, replicationFactor int) *Fabric {
	t.Helper()
	cfg := DefaultConfig()
	cfg.CacheBaseDir = t.TempDir()
	cfg.ReplicationFactor = replicationFactor
	cfg.MaxNodes = 8
	return NewFabric(cfg, nil)
}

func TestRegisterNodeSeedsActiveStatus(t *testing.T) {
	f := newTestFabric(t, 3)
	now := time.Now()
	require.NoError(t, f.RegisterNode(testNode("n1", "US", 37.7, -122.4), now))

	status, ok := f.NodeStatus("n1")
	require.True(t, ok)
	require.Equal(t, StatusActive, status)
}

func TestRegisterNodeRejectsOverCeiling(t *testing.T) {
	f := newTestFabric(t, 1)
	f.cfg.MaxNodes = 1
	now := time.Now()
	require.NoError(t, f.RegisterNode(testNode("n1", "US", 0, 0), now))

	err := f.RegisterNode(testNode("n2", "US", 0, 0), now)
	require.ErrorIs(t, err, xerrors.ErrMaxNodesReached)
}

func TestFindNearestPicksClosestHealthyNode(t *testing.T) {
	f := newTestFabric(t, 3)
	now := time.Now()
	require.NoError(t, f.RegisterNode(testNode("sf", "US", 37.77, -122.42), now))
	require.NoError(t, f.RegisterNode(testNode("nyc", "US", 40.71, -74.00), now))
	require.NoError(t, f.RegisterNode(testNode("london", "GB", 51.51, -0.13), now))

	nearest, err := f.FindNearest(Geo{Lat: 37.8, Lon: -122.3}, now)
	require.NoError(t, err)
	require.Equal(t, "sf", nearest.ID)
}

func TestFindNearestFailsWithNoHealthyNodes(t *testing.T) {
	f := newTestFabric(t, 3)
	_, err := f.FindNearest(Geo{}, time.Now())
	require.ErrorIs(t, err, xerrors.ErrUnreachable)
}

func TestFindMultipleReturnsTopKByScore(t *testing.T) {
	f := newTestFabric(t, 3)
	now := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, f.RegisterNode(testNode(fmt.Sprintf("n%d", i), "US", float64(i), float64(i)), now))
	}

	top := f.FindMultiple(Geo{Lat: 0, Lon: 0}, 2, now)
	require.Len(t, top, 2)
	require.Equal(t, "n0", top[0].ID)
}

func TestStaleHealthCheckMarksNodeUnhealthy(t *testing.T) {
	f := newTestFabric(t, 3)
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, f.RegisterNode(testNode("n1", "US", 0, 0), past))

	_, err := f.FindNearest(Geo{}, past.Add(2*time.Hour))
	require.ErrorIs(t, err, xerrors.ErrUnreachable)
}

func TestCacheContentPlacesOnQuorumOfReplicas(t *testing.T) {
	f := newTestFabric(t, 3)
	now := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, f.RegisterNode(testNode(fmt.Sprintf("n%d", i), fmt.Sprintf("C%d", i), float64(i*10), float64(i*10)), now))
	}

	require.NoError(t, f.CacheContent("content-1", []byte("payload"), now))

	placed := 0
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("n%d", i)
		if _, ok, err := f.caches[id].Get("content-1"); err == nil && ok {
			placed++
		}
	}
	require.GreaterOrEqual(t, placed, quorumFor(3))
}

func TestInvalidateCacheRemovesFromEveryNode(t *testing.T) {
	f := newTestFabric(t, 3)
	now := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, f.RegisterNode(testNode(fmt.Sprintf("n%d", i), fmt.Sprintf("C%d", i), float64(i*10), float64(i*10)), now))
	}
	require.NoError(t, f.CacheContent("content-1", []byte("payload"), now))

	f.InvalidateCache("content-1")

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("n%d", i)
		_, ok, err := f.caches[id].Get("content-1")
		require.NoError(t, err)
		require.False(t, ok, "node %s should have no copy after invalidation", id)
	}
}

func TestHealthLoopDegradesAndRecovers(t *testing.T) {
	f := newTestFabric(t, 3)
	now := time.Now()
	require.NoError(t, f.RegisterNode(testNode("n1", "US", 0, 0), now))

	f.MarkHealthCheck("n1", Metrics{AvgResponseTimeMs: 2000, AvailableCapacity: 0.5}, now)
	f.evaluateHealth(now)
	status, _ := f.NodeStatus("n1")
	require.Equal(t, StatusDegraded, status)

	f.MarkHealthCheck("n1", Metrics{AvgResponseTimeMs: 50, AvailableCapacity: 0.9}, now)
	f.evaluateHealth(now)
	status, _ = f.NodeStatus("n1")
	require.Equal(t, StatusActive, status)
}

func TestStartHealthLoopStopsOnContextCancel(t *testing.T) {
	f := newTestFabric(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	f.StartHealthLoop(ctx, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)
}

func TestDeregisterNodeRemovesFromGeoIndexAndRing(t *testing.T) {
	f := newTestFabric(t, 3)
	now := time.Now()
	require.NoError(t, f.RegisterNode(testNode("n1", "US", 0, 0), now))
	require.Equal(t, 1, f.NodeCount())

	f.DeregisterNode("n1")
	require.Equal(t, 0, f.NodeCount())

	_, err := f.FindNearest(Geo{}, now)
	require.True(t, errors.Is(err, xerrors.ErrUnreachable))
}
