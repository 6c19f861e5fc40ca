// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gateward/gateward/internal/control"
)

// newStopCmd creates the stop subcommand.
func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running gateward process",
		Long:  `Request a graceful shutdown of a running gateward server via its control socket.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			socketPath, err := control.SocketPath("server")
			if err != nil {
				return fmt.Errorf("failed to get socket path: %w", err)
			}
			if _, err := os.Stat(socketPath); os.IsNotExist(err) {
				return fmt.Errorf("gateward is not running (socket not found)")
			}

			client := createUnixHTTPClient(socketPath)
			resp, err := client.Post("http://localhost/shutdown", "application/json", nil)
			if err != nil {
				return fmt.Errorf("failed to request shutdown: %w", err)
			}
			defer func() { _ = resp.Body.Close() }()

			var shutdown control.ShutdownResponse
			if err := json.NewDecoder(resp.Body).Decode(&shutdown); err != nil {
				return fmt.Errorf("failed to decode shutdown response: %w", err)
			}

			cmd.Println(shutdown.Message)
			return nil
		},
	}
}
