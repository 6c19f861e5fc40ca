// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the gateward CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateward",
		Short: "Gateward - game network authentication service",
		Long: `Gateward authenticates players joining a multi-server game network.
It runs each account through a configurable step pipeline (register, login,
messenger second factors) before handing the player to a backend server.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStopCmd())

	return cmd
}
