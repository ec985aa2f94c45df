// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trustchaind",
	Short: "HyperMesh trust-chain node: consensus validator, IFR node, and edge fabric node",
	Long: `trustchaind runs the three Layer-1/Layer-2 services described by the
trust-chain core: the four-proof consensus validator service, the
Immediate Flow Registry IPC node, and a CDN edge fabric node. Each
service may be run standalone or together in one process for local
development.`,
}

func main() {
	rootCmd.AddCommand(
		serveConsensusCmd(),
		serveIFRCmd(),
		serveEdgeCmd(),
		configCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
