// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gateward/gateward/internal/control"
)

// ProcessStatus holds the status information reported for the service process.
type ProcessStatus struct {
	Component     string         `json:"component"`
	Running       bool           `json:"running"`
	Health        string         `json:"health,omitempty"`
	PID           int            `json:"pid,omitempty"`
	UptimeSeconds int64          `json:"uptime_seconds,omitempty"`
	Gate          *control.Stats `json:"gate,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// newStatusCmd creates the status subcommand.
func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of the running gateward process",
		Long:  `Query the control socket of a running gateward server and report its health.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status := queryProcessStatus("server")

			if jsonOutput {
				data, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal status: %w", err)
				}
				cmd.Println(string(data))
				return nil
			}

			cmd.Println(formatStatusTable(status))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output status as JSON")
	return cmd
}

// queryProcessStatus queries the control socket and returns the process status.
func queryProcessStatus(component string) ProcessStatus {
	status := ProcessStatus{Component: component}

	socketPath, err := control.SocketPath(component)
	if err != nil {
		status.Error = fmt.Sprintf("failed to get socket path: %v", err)
		return status
	}
	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		status.Error = "socket not found"
		return status
	}

	client := createUnixHTTPClient(socketPath)

	healthResp, err := client.Get("http://localhost/health")
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = healthResp.Body.Close() }()

	var health control.HealthResponse
	if err := json.NewDecoder(healthResp.Body).Decode(&health); err != nil {
		status.Error = fmt.Sprintf("failed to decode health response: %v", err)
		return status
	}

	statusResp, err := client.Get("http://localhost/status")
	if err != nil {
		// Health succeeded; report the process as running with what we have.
		status.Running = true
		status.Health = health.Status
		return status
	}
	defer func() { _ = statusResp.Body.Close() }()

	var controlStatus control.StatusResponse
	if err := json.NewDecoder(statusResp.Body).Decode(&controlStatus); err != nil {
		status.Running = true
		status.Health = health.Status
		return status
	}

	status.Running = controlStatus.Running
	status.Health = health.Status
	status.PID = controlStatus.PID
	status.UptimeSeconds = controlStatus.UptimeSeconds
	status.Gate = &controlStatus.Stats
	return status
}

// createUnixHTTPClient creates an HTTP client that connects via Unix socket.
func createUnixHTTPClient(socketPath string) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(_ context.Context, _, _ string) (net.Conn, error) {
				return net.Dial("unix", socketPath)
			},
		},
		Timeout: 2 * time.Second,
	}
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(status ProcessStatus) string {
	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "PROCESS\tSTATUS\tHEALTH\tPID\tUPTIME\tAUTHENTICATING\tENTRIES\tCODES")
	_, _ = fmt.Fprintln(w, "-------\t------\t------\t---\t------\t--------------\t-------\t-----")

	if status.Running {
		gate := control.Stats{}
		if status.Gate != nil {
			gate = *status.Gate
		}
		_, _ = fmt.Fprintf(w, "%s\trunning\t%s\t%d\t%s\t%d\t%d\t%d\n",
			status.Component, status.Health, status.PID, formatUptime(status.UptimeSeconds),
			gate.Authenticating, gate.PendingEntries, gate.PendingCodes)
	} else {
		reason := "not running"
		if status.Error != "" {
			reason = status.Error
		}
		_, _ = fmt.Fprintf(w, "%s\tstopped\t-\t-\t%s\t-\t-\t-\n", status.Component, reason)
	}

	_ = w.Flush()
	return string(buf)
}

// formatUptime formats seconds into a human-readable duration.
func formatUptime(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// byteWriter is a simple writer that appends to a byte slice.
type byteWriter []byte

func (w *byteWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
