// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package edge

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/hypermesh/trustchain/cache"
	"github.com/hypermesh/trustchain/xerrors"
	"github.com/luxfi/log"
)

// Config sizes a Fabric instance.
type Config struct {
	MaxNodes             int
	ReplicationFactor    int
	PrefetchThreshold    float64
	HealthCheckInterval  time.Duration
	DistributionStrategy DistributionStrategy
	CacheBaseDir         string
	NodeCacheConfig      cache.Config
}

// DefaultConfig mirrors §4.8's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxNodes:             1000,
		ReplicationFactor:    3,
		PrefetchThreshold:    0.8,
		HealthCheckInterval:  30 * time.Second,
		DistributionStrategy: DistributionGeographic,
		NodeCacheConfig:      cache.Config{L1Entries: 256, L1Bytes: 16 << 20, L2Entries: 1024, L2Bytes: 64 << 20, L3Bytes: 256 << 20},
	}
}

// Fabric is the registry of edge nodes, geo-index, replication manager,
// and health loop described in §4.8.
type Fabric struct {
	cfg Config
	log log.Logger

	mu       sync.RWMutex
	nodes    map[string]*EdgeNode
	geoIndex map[string]map[string]struct{} // country -> set of node IDs
	caches   map[string]*cache.MultiTier
	rtt      map[string]float64
	access   map[string]*accessRecord

	repl *ReplicationManager

	stopOnce sync.Once
	stop     chan struct{}
}

// NewFabric creates an empty Fabric.
func NewFabric(cfg Config, logger log.Logger) *Fabric {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Fabric{
		cfg:      cfg,
		log:      logger,
		nodes:    make(map[string]*EdgeNode),
		geoIndex: make(map[string]map[string]struct{}),
		caches:   make(map[string]*cache.MultiTier),
		rtt:      make(map[string]float64),
		access:   make(map[string]*accessRecord),
		repl:     NewReplicationManager(),
		stop:     make(chan struct{}),
	}
}

// RegisterNode implements register_edge(node) from §6.3: assigns
// status Active, seeds the health timestamp, creates the per-node cache
// delegate, and joins the replication ring. Returns ErrMaxNodesReached
// when the fleet is already at its configured ceiling.
func (f *Fabric) RegisterNode(node EdgeNode, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.nodes[node.ID]; !exists && len(f.nodes) >= f.cfg.MaxNodes {
		return xerrors.ErrMaxNodesReached
	}

	node.Status = StatusActive
	node.LastHealthCheck = now
	n := node
	f.nodes[n.ID] = &n

	if f.geoIndex[n.Geo.Country] == nil {
		f.geoIndex[n.Geo.Country] = make(map[string]struct{})
	}
	f.geoIndex[n.Geo.Country][n.ID] = struct{}{}

	nodeCacheCfg := f.cfg.NodeCacheConfig
	nodeCacheCfg.L3Dir = filepath.Join(f.cfg.CacheBaseDir, n.ID)
	mt, err := cache.NewMultiTier(nodeCacheCfg)
	if err != nil {
		return fmt.Errorf("edge: creating cache delegate for %s: %w", n.ID, err)
	}
	f.caches[n.ID] = mt
	f.repl.AddNode(n.ID)

	f.log.Info("edge: node registered", "node_id", n.ID, "country", n.Geo.Country)
	return nil
}

// DeregisterNode removes a node from the fabric entirely (distinct from
// Draining/Offline, which keep the node registered but unschedulable).
func (f *Fabric) DeregisterNode(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	node, ok := f.nodes[id]
	if !ok {
		return
	}
	delete(f.nodes, id)
	delete(f.caches, id)
	delete(f.rtt, id)
	if set := f.geoIndex[node.Geo.Country]; set != nil {
		delete(set, id)
	}
	f.repl.RemoveNode(id)
}

// SetMeasuredRTT records an out-of-band RTT measurement to node,
// consulted by the NetworkTopology and Hybrid distribution strategies.
func (f *Fabric) SetMeasuredRTT(nodeID string, rttMs float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rtt[nodeID] = rttMs
}

// FindNearest implements §4.8's nearest-node selection: the healthy node
// minimising score(node, location) under the fabric's configured
// distribution strategy.
func (f *Fabric) FindNearest(location Geo, now time.Time) (*EdgeNode, error) {
	nodes := f.findMultiple(location, 1, now)
	if len(nodes) == 0 {
		return nil, xerrors.ErrUnreachable
	}
	return nodes[0], nil
}

// FindMultiple returns the top-k healthy nodes by score.
func (f *Fabric) FindMultiple(location Geo, k int, now time.Time) []*EdgeNode {
	return f.findMultiple(location, k, now)
}

func (f *Fabric) findMultiple(location Geo, k int, now time.Time) []*EdgeNode {
	f.mu.RLock()
	defer f.mu.RUnlock()

	type scored struct {
		node  *EdgeNode
		score float64
	}
	candidates := make([]scored, 0, len(f.nodes))
	for _, n := range f.nodes {
		if !n.Healthy(now) {
			continue
		}
		candidates = append(candidates, scored{node: n, score: score(f.cfg.DistributionStrategy, n, location, f.rtt[n.ID])})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score < candidates[j].score })

	if k > len(candidates) {
		k = len(candidates)
	}
	out := make([]*EdgeNode, k)
	for i := 0; i < k; i++ {
		out[i] = candidates[i].node
	}
	return out
}

// MarkHealthCheck records a fresh health-check observation for id,
// feeding the health loop's Active/Degraded transition.
func (f *Fabric) MarkHealthCheck(id string, m Metrics, now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[id]
	if !ok {
		return
	}
	n.Metrics = m
	n.LastHealthCheck = now
}

// NodeStatus returns the current status of a registered node.
func (f *Fabric) NodeStatus(id string) (Status, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n, ok := f.nodes[id]
	if !ok {
		return "", false
	}
	return n.Status, true
}

// NodeCount returns the number of currently registered nodes.
func (f *Fabric) NodeCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.nodes)
}

// healthyNodeIDs returns every currently-healthy node ID, in no
// particular order. Used by the prefetch predictor, which places
// additional copies by load/availability rather than by distance to any
// single requester's location.
func (f *Fabric) healthyNodeIDs(now time.Time) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ids := make([]string, 0, len(f.nodes))
	for id, n := range f.nodes {
		if n.Healthy(now) {
			ids = append(ids, id)
		}
	}
	return ids
}
