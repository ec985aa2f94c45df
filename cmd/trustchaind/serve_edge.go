// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hypermesh/trustchain/edge"
	"github.com/hypermesh/trustchain/xconfig"
	"github.com/luxfi/log"
	"github.com/spf13/cobra"
)

func serveEdgeCmd() *cobra.Command {
	var (
		preset       string
		nodeID       string
		country      string
		lat, lon     float64
		cacheDir     string
		healthPeriod time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve-edge",
		Short: "Run a CDN edge fabric node registration and health loop",
		Long: `Registers a local EdgeNode with an edge fabric instance and runs its
periodic health re-evaluation loop. Fabric state (registry,
replication ring, geo index) lives only in this process and is not
shared with other trustchaind processes: this command drives a single
in-process Fabric for local development and testing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := xconfig.NewBuilder().FromPreset(xconfig.Preset(preset)).Build()
			if err != nil {
				return fmt.Errorf("trustchaind: loading config: %w", err)
			}
			if cacheDir == "" {
				cacheDir = cfg.L3Dir
			}
			if nodeID == "" {
				nodeID = "edge-local"
			}
			if healthPeriod <= 0 {
				healthPeriod = cfg.HealthCheckInterval
			}

			logger := log.NewNoOpLogger()
			fabricCfg := edge.DefaultConfig()
			fabricCfg.MaxNodes = cfg.MaxEdgeNodes
			fabricCfg.ReplicationFactor = cfg.ReplicationFactor
			fabricCfg.PrefetchThreshold = cfg.PrefetchThreshold
			fabricCfg.HealthCheckInterval = healthPeriod
			fabricCfg.CacheBaseDir = cacheDir
			fabricCfg.NodeCacheConfig.L1Entries = cfg.L1Capacity
			fabricCfg.NodeCacheConfig.L1Bytes = int(cfg.L1Bytes)
			fabricCfg.NodeCacheConfig.L2Entries = cfg.L2Capacity
			fabricCfg.NodeCacheConfig.L2Bytes = int(cfg.L2Bytes)
			fabricCfg.NodeCacheConfig.L3Bytes = int(cfg.L3Bytes)

			fabric := edge.NewFabric(fabricCfg, logger)
			now := time.Now()
			if err := fabric.RegisterNode(edge.EdgeNode{
				ID:       nodeID,
				Geo:      edge.Geo{Lat: lat, Lon: lon, Country: country},
				Capacity: edge.Capacity{CacheBytes: cfg.L3Bytes, MaxConns: 1024},
				Metrics:  edge.Metrics{AvailableCapacity: 1.0},
			}, now); err != nil {
				return fmt.Errorf("trustchaind: registering edge node: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fabric.StartHealthLoop(ctx, healthPeriod)

			fmt.Fprintf(cmd.OutOrStdout(), "trustchaind: edge node %q registered (%s), health loop every %s\n", nodeID, country, healthPeriod)
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "local", "config preset: production, staging, local")
	cmd.Flags().StringVar(&nodeID, "node-id", "", "edge node ID")
	cmd.Flags().StringVar(&country, "country", "US", "edge node country code")
	cmd.Flags().Float64Var(&lat, "lat", 0, "edge node latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "edge node longitude")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "override the on-disk L3 cache directory")
	cmd.Flags().DurationVar(&healthPeriod, "health-interval", 0, "override the health check interval")
	return cmd
}
