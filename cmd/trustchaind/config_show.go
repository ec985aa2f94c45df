// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/hypermesh/trustchain/xconfig"
	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect trustchaind configuration",
	}
	cmd.AddCommand(configShowCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration for a preset as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := xconfig.NewBuilder().FromPreset(xconfig.Preset(preset)).Build()
			if err != nil {
				return fmt.Errorf("trustchaind: loading config: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "local", "config preset: production, staging, local")
	return cmd
}
