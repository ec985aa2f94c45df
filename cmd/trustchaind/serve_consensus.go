// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hypermesh/trustchain/consensus"
	"github.com/hypermesh/trustchain/consensus/rpc"
	"github.com/hypermesh/trustchain/transport"
	"github.com/hypermesh/trustchain/xconfig"
	"github.com/luxfi/log"
	"github.com/spf13/cobra"
)

func serveConsensusCmd() *cobra.Command {
	var (
		preset        string
		listenAddr    string
		replicas      int
		maxConcurrent int
	)

	cmd := &cobra.Command{
		Use:   "serve-consensus",
		Short: "Run the four-proof Consensus RPC validator service",
		Long: `Starts a Validator Service backed by a cluster of in-process replicas
and exposes it over the Consensus RPC protocol, accepting validate and
check_validation_status requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := xconfig.NewBuilder().FromPreset(xconfig.Preset(preset)).Build()
			if err != nil {
				return fmt.Errorf("trustchaind: loading config: %w", err)
			}
			if listenAddr != "" {
				cfg.RPCListenAddr = listenAddr
			}
			if replicas <= 0 {
				replicas = 5
			}
			if maxConcurrent > 0 {
				cfg.MaxConcurrentValidations = maxConcurrent
			}

			logger := log.NewNoOpLogger()
			ln, err := transport.Listen("tcp", cfg.RPCListenAddr)
			if err != nil {
				return fmt.Errorf("trustchaind: listening on %s: %w", cfg.RPCListenAddr, err)
			}

			svc := consensus.NewValidatorService(replicas)
			tracker := consensus.NewStatusTracker()
			server := rpc.NewServer(svc, tracker, cfg.MaxConcurrentValidations, ln, logger)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "trustchaind: consensus RPC listening on %s (%d replicas)\n", cfg.RPCListenAddr, replicas)
			return server.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "local", "config preset: production, staging, local")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "override the RPC listen address")
	cmd.Flags().IntVar(&replicas, "replicas", 5, "number of validator replicas in the cluster")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 0, "override max concurrent validations")
	return cmd
}
