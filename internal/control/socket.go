// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package control serves the local management API over a Unix socket: health,
// live gate state, and remote shutdown for the status and stop commands.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/gateward/gateward/internal/xdg"
)

// HealthResponse is returned by the /health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Stats is a point-in-time snapshot of the gate's live state.
type Stats struct {
	// Authenticating is the number of accounts currently mid-pipeline.
	Authenticating int `json:"authenticating"`

	// PendingEntries is the number of messenger confirmations waiting for
	// an accept or decline.
	PendingEntries int `json:"pending_entries"`

	// PendingCodes is the number of issued link codes not yet consumed.
	PendingCodes int `json:"pending_codes"`
}

// StatsFunc reports the current gate state. Called per /status request.
type StatsFunc func() Stats

// StatusResponse is returned by the /status endpoint.
type StatusResponse struct {
	Running       bool   `json:"running"`
	PID           int    `json:"pid"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Component     string `json:"component,omitempty"`
	Stats
}

// ShutdownResponse is returned by the /shutdown endpoint.
type ShutdownResponse struct {
	Message string `json:"message"`
}

// ShutdownFunc is called when shutdown is requested.
type ShutdownFunc func()

// Server runs HTTP over a Unix socket for process management.
type Server struct {
	component  string
	startTime  time.Time
	listener   net.Listener
	httpServer *http.Server
	socketPath string
	shutdown   ShutdownFunc
	stats      StatsFunc
	running    atomic.Bool
}

// NewServer creates a control socket server for the named process component.
// stats may be nil; /status then reports zero gate state.
func NewServer(component string, shutdown ShutdownFunc, stats StatsFunc) *Server {
	s := &Server{
		component: component,
		startTime: time.Now(),
		shutdown:  shutdown,
		stats:     stats,
	}
	s.running.Store(true)
	return s
}

// SocketPath returns the Unix socket path for a component.
func SocketPath(component string) (string, error) {
	runtimeDir, err := xdg.RuntimeDir()
	if err != nil {
		return "", oops.Code("CONTROL_RUNTIME_DIR_FAILED").Wrap(err)
	}
	return filepath.Join(runtimeDir, fmt.Sprintf("gateward-%s.sock", component)), nil
}

// Start begins listening on the Unix socket.
func (s *Server) Start() error {
	socketPath, err := SocketPath(s.component)
	if err != nil {
		return err
	}
	s.socketPath = socketPath

	if err := xdg.EnsureDir(filepath.Dir(socketPath)); err != nil {
		return oops.Code("CONTROL_RUNTIME_DIR_FAILED").With("path", socketPath).Wrap(err)
	}

	// A socket file left over from a crashed process would block the bind.
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return oops.Code("CONTROL_SOCKET_BUSY").With("path", socketPath).Wrap(err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return oops.Code("CONTROL_LISTEN_FAILED").With("path", socketPath).Wrap(err)
	}
	s.listener = listener

	// Management API is owner-only.
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = listener.Close()
		return oops.Code("CONTROL_CHMOD_FAILED").With("path", socketPath).Wrap(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /shutdown", s.handleShutdown)

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("control socket server error",
				"component", s.component,
				"error", err,
			)
		}
	}()

	return nil
}

// Stop gracefully shuts down the control socket server.
func (s *Server) Stop(ctx context.Context) error {
	s.running.Store(false)

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return oops.Code("CONTROL_STOP_FAILED").Wrap(err)
		}
	}

	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Warn("failed to close control socket listener",
				"component", s.component,
				"error", err,
			)
		}
	}

	if s.socketPath != "" {
		if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove control socket file",
				"component", s.component,
				"path", s.socketPath,
				"error", err,
			)
		}
	}

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	s.writeJSON(w, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Running:       s.running.Load(),
		PID:           os.Getpid(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Component:     s.component,
	}
	if s.stats != nil {
		resp.Stats = s.stats()
	}
	s.writeJSON(w, resp)
}

func (s *Server) handleShutdown(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, ShutdownResponse{Message: "shutdown initiated"})

	// The response must flush before the process starts tearing down.
	if s.shutdown != nil {
		go s.shutdown()
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode control response",
			"component", s.component,
			"error", err,
		)
	}
}
