// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package telemetry wraps the Prometheus collectors defined for the
// layers of the core: table load factor, cache hits per tier and total
// misses, RPC latency, validator throughput, and edge node health. It
// creates and registers them; no other package in this module updates
// them.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every named collector the core registers. Fields are
// exported so packages can hold a *Metrics and use its collectors
// directly, mirroring the teacher's Metrics{Registry} wrapper.
type Metrics struct {
	Registry prometheus.Registerer

	TableLoadFactor    prometheus.Gauge
	BloomFalsePositive prometheus.Gauge

	CacheHits   *prometheus.CounterVec // label: tier
	CacheMisses prometheus.Counter

	RPCLatency    prometheus.Histogram
	RPCTotal      *prometheus.CounterVec // label: outcome
	ValidatorOps  prometheus.Counter

	EdgeNodeHealthy *prometheus.GaugeVec // label: node_id
}

// New creates and registers every collector against reg. reg may be
// prometheus.NewRegistry() in tests to avoid collisions with the default
// global registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registry: reg,
		TableLoadFactor: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trustchain",
			Subsystem: "flowtable",
			Name:      "load_factor",
			Help:      "Current load factor of the Robin-Hood flow table.",
		}),
		BloomFalsePositive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trustchain",
			Subsystem: "bloom",
			Name:      "estimated_false_positive_rate",
			Help:      "Estimated false-positive rate of the current Bloom filter.",
		}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trustchain",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache hits by tier (l1, l2, l3).",
		}, []string{"tier"}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trustchain",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache misses across all tiers.",
		}),
		RPCLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trustchain",
			Subsystem: "consensus_rpc",
			Name:      "validation_duration_seconds",
			Help:      "End-to-end latency of a consensus validation RPC.",
			Buckets:   prometheus.DefBuckets,
		}),
		RPCTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trustchain",
			Subsystem: "consensus_rpc",
			Name:      "requests_total",
			Help:      "Consensus RPC requests by outcome (success, failure, cache_hit).",
		}, []string{"outcome"}),
		ValidatorOps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trustchain",
			Subsystem: "consensus",
			Name:      "validations_total",
			Help:      "Total four-proof validations performed.",
		}),
		EdgeNodeHealthy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "trustchain",
			Subsystem: "edge",
			Name:      "node_healthy",
			Help:      "1 if the edge node is healthy (Active and recently checked), else 0.",
		}, []string{"node_id"}),
	}

	for _, c := range []prometheus.Collector{
		m.TableLoadFactor, m.BloomFalsePositive, m.CacheHits, m.CacheMisses,
		m.RPCLatency, m.RPCTotal, m.ValidatorOps, m.EdgeNodeHealthy,
	} {
		_ = reg.Register(c)
	}

	return m
}
