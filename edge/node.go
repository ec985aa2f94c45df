// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package edge implements the CDN Edge Cache & Replication Layer: a
// registry of edge nodes with geo/load-weighted nearest-node selection,
// deterministic replicated placement, invalidation fanout, and a
// periodic health loop, per §4.8.
package edge

import "time"

// Status is an edge node's lifecycle state.
type Status string

const (
	StatusInitializing Status = "Initializing"
	StatusActive       Status = "Active"
	StatusDegraded     Status = "Degraded"
	StatusDraining     Status = "Draining"
	StatusMaintenance  Status = "Maintenance"
	StatusOffline      Status = "Offline"
)

// Geo is an edge node's geographic placement.
type Geo struct {
	Lat     float64
	Lon     float64
	Country string
	City    string
	ASN     uint32
}

// Capacity is an edge node's resource envelope.
type Capacity struct {
	CacheBytes int64
	BWMbps     int
	MaxConns   int
	Cores      int
	MemoryGB   int
}

// Metrics are the live measurements the health loop consults.
type Metrics struct {
	ActiveConns       int
	AvgResponseTimeMs float64
	AvailableCapacity float64 // fraction in [0,1]
}

// healthStaleAfter is the §3 definition of "healthy": status == Active AND
// now - last_health_check < 60s.
const healthStaleAfter = 60 * time.Second

// EdgeNode is one member of the edge fabric.
type EdgeNode struct {
	ID              string
	Geo             Geo
	Capacity        Capacity
	Status          Status
	Regions         []string
	Metrics         Metrics
	LastHealthCheck time.Time
}

// Healthy reports whether n may serve traffic: Active status and a
// health check observed within the last 60s.
func (n *EdgeNode) Healthy(now time.Time) bool {
	return n.Status == StatusActive && now.Sub(n.LastHealthCheck) < healthStaleAfter
}
