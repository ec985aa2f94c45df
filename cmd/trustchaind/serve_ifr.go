// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hypermesh/trustchain/ifr"
	"github.com/hypermesh/trustchain/transport"
	"github.com/hypermesh/trustchain/xconfig"
	"github.com/luxfi/log"
	"github.com/spf13/cobra"
)

func serveIFRCmd() *cobra.Command {
	var (
		preset     string
		listenAddr string
		network    string
	)

	cmd := &cobra.Command{
		Use:   "serve-ifr",
		Short: "Run an Immediate Flow Registry node over its IPC socket",
		Long: `Starts an IFR Node (Robin-Hood flow table, rotating Bloom bank, hot
cache) and exposes it over the length-prefixed IPC frame protocol for
insert/lookup/remove/stats requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := xconfig.NewBuilder().FromPreset(xconfig.Preset(preset)).Build()
			if err != nil {
				return fmt.Errorf("trustchaind: loading config: %w", err)
			}
			if listenAddr != "" {
				cfg.IFRListenAddr = listenAddr
			}
			if network == "" {
				network = "unix"
			}

			logger := log.NewNoOpLogger()
			node := ifr.New(ifr.Config{
				TableCapacity:  cfg.TableCapacity,
				HotCacheSize:   cfg.HotCacheSize,
				BloomRingSize:  cfg.BloomRingSize,
				BloomBits:      cfg.BloomBits,
				BloomHashes:    cfg.BloomHashes,
				RotationPeriod: cfg.RotationPeriod,
			}, logger)

			ln, err := transport.Listen(network, cfg.IFRListenAddr)
			if err != nil {
				return fmt.Errorf("trustchaind: listening on %s %s: %w", network, cfg.IFRListenAddr, err)
			}
			server := ifr.NewServer(node, ln, logger)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			node.StartRotation(ctx, cfg.RotationPeriod)

			fmt.Fprintf(cmd.OutOrStdout(), "trustchaind: IFR node listening on %s %s\n", network, cfg.IFRListenAddr)
			return server.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "local", "config preset: production, staging, local")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "override the IPC listen address")
	cmd.Flags().StringVar(&network, "network", "unix", "IPC network: unix or tcp")
	return cmd
}
