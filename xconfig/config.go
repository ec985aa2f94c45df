// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xconfig holds the layered configuration for every component of
// the core, following the teacher's fluent Builder pattern: a JSON-
// tagged Config struct, a chain of With* methods, and named presets.
package xconfig

import (
	"time"

	"github.com/hypermesh/trustchain/proof"
)

// Preset names a named configuration bundle.
type Preset string

const (
	Production Preset = "production"
	Staging    Preset = "staging"
	Local      Preset = "local"
)

// Config holds every tunable knob across the flow table, Bloom bank, IFR
// node, validator service, consensus RPC client/server, and edge fabric.
type Config struct {
	// Flow table / IFR
	TableCapacity   int           `json:"table_capacity"`
	HotCacheSize    int           `json:"hot_cache_size"`
	BloomRingSize   int           `json:"bloom_ring_size"`
	BloomBits       uint64        `json:"bloom_bits"`
	BloomHashes     int           `json:"bloom_hashes"`
	RotationPeriod  time.Duration `json:"rotation_period"`
	IFRListenAddr   string        `json:"ifr_listen_addr"`
	IFRMaxIdle      time.Duration `json:"ifr_max_idle"`

	// Consensus validator / RPC
	Requirements         proof.ConsensusRequirements `json:"requirements"`
	RequestTimeout       time.Duration               `json:"request_timeout"`
	MaxRetries           int                         `json:"max_retries"`
	RetryBackoff         time.Duration               `json:"retry_backoff"`
	CacheEnabled         bool                        `json:"cache_enabled"`
	CacheTTL             time.Duration               `json:"cache_ttl"`
	MaxConcurrentValidations int                     `json:"max_concurrent_validations"`
	RPCListenAddr        string                      `json:"rpc_listen_addr"`

	// Multi-tier cache
	L1Capacity  int   `json:"l1_capacity"`
	L1Bytes     int64 `json:"l1_bytes"`
	L2Capacity  int   `json:"l2_capacity"`
	L2Bytes     int64 `json:"l2_bytes"`
	L3Dir       string `json:"l3_dir"`
	L3Bytes     int64 `json:"l3_bytes"`

	// Edge fabric
	MaxEdgeNodes        int           `json:"max_edge_nodes"`
	HealthCheckInterval time.Duration `json:"health_check_interval"`
	ReplicationFactor   int           `json:"replication_factor"`
	PrefetchThreshold   float64       `json:"prefetch_threshold"`
}

// Builder is a fluent constructor for Config, following the teacher's
// config.Builder{config, err} shape: errors accumulate and are returned
// once from Build.
type Builder struct {
	cfg *Config
	err error
}

// NewBuilder returns a Builder seeded with sensible defaults.
func NewBuilder() *Builder {
	return &Builder{cfg: defaultConfig()}
}

func defaultConfig() *Config {
	return &Config{
		TableCapacity:  1 << 20,
		HotCacheSize:   4096,
		BloomRingSize:  8,
		BloomBits:      1 << 24,
		BloomHashes:    7,
		RotationPeriod: 10 * time.Minute,
		IFRListenAddr:  "/tmp/trustchain-ifr.sock",
		IFRMaxIdle:     30 * time.Second,

		Requirements:             proof.DefaultRequirements(),
		RequestTimeout:           2 * time.Second,
		MaxRetries:               3,
		RetryBackoff:             100 * time.Millisecond,
		CacheEnabled:             true,
		CacheTTL:                 5 * time.Second,
		MaxConcurrentValidations: 256,
		RPCListenAddr:            "127.0.0.1:9443",

		L1Capacity: 64,
		L1Bytes:    8 << 20,
		L2Capacity: 512,
		L2Bytes:    64 << 20,
		L3Dir:      "/var/lib/trustchain/l3-cache",
		L3Bytes:    1 << 30,

		MaxEdgeNodes:        256,
		HealthCheckInterval: 30 * time.Second,
		ReplicationFactor:   3,
		PrefetchThreshold:   0.8,
	}
}

// FromPreset resets the builder to a named preset before further With*
// calls are applied.
func (b *Builder) FromPreset(p Preset) *Builder {
	if b.err != nil {
		return b
	}
	switch p {
	case Production:
		b.cfg = defaultConfig()
	case Staging:
		cfg := defaultConfig()
		cfg.TableCapacity = 1 << 16
		cfg.MaxConcurrentValidations = 64
		cfg.L3Bytes = 64 << 20
		b.cfg = cfg
	case Local:
		cfg := defaultConfig()
		cfg.TableCapacity = 1 << 10
		cfg.BloomRingSize = 2
		cfg.MaxConcurrentValidations = 8
		cfg.L1Capacity = 4
		cfg.L2Capacity = 8
		cfg.L3Bytes = 8 << 20
		cfg.HealthCheckInterval = time.Second
		b.cfg = cfg
	default:
		b.err = errUnknownPreset(p)
	}
	return b
}

type errUnknownPreset Preset

func (e errUnknownPreset) Error() string {
	return "xconfig: unknown preset " + string(e)
}

// WithTableCapacity overrides the flow table bucket count.
func (b *Builder) WithTableCapacity(n int) *Builder {
	if b.err == nil {
		b.cfg.TableCapacity = n
	}
	return b
}

// WithRequirements overrides the consensus requirements policy.
func (b *Builder) WithRequirements(r proof.ConsensusRequirements) *Builder {
	if b.err == nil {
		b.cfg.Requirements = r
	}
	return b
}

// WithReplicationFactor overrides the edge fabric's replication factor.
func (b *Builder) WithReplicationFactor(n int) *Builder {
	if b.err == nil {
		b.cfg.ReplicationFactor = n
	}
	return b
}

// WithL3Dir overrides the on-disk L3 cache directory.
func (b *Builder) WithL3Dir(dir string) *Builder {
	if b.err == nil {
		b.cfg.L3Dir = dir
	}
	return b
}

// Build returns the accumulated Config, or the first error encountered.
func (b *Builder) Build() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	cfg := *b.cfg
	return &cfg, nil
}
