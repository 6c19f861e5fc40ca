// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package telnet provides the line-protocol player frontend. Each connection
// drives one player through the authentication pipeline via the command
// service.
package telnet

import (
	"context"
	"log/slog"
	"net"
	"sync"

	"github.com/samber/oops"

	"github.com/gateward/gateward/internal/account"
	"github.com/gateward/gateward/internal/command"
	"github.com/gateward/gateward/internal/config"
)

// Server accepts player connections.
type Server struct {
	addr     string
	listener net.Listener
	svc      *command.Service
	accounts account.Repository
	hub      *command.PlayerHub
	cfg      *config.Config
	mu       sync.RWMutex
}

// NewServer creates a player frontend listening on addr.
func NewServer(addr string, svc *command.Service, accounts account.Repository, hub *command.PlayerHub, cfg *config.Config) *Server {
	return &Server{
		addr:     addr,
		svc:      svc,
		accounts: accounts,
		hub:      hub,
		cfg:      cfg,
	}
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run starts the server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return oops.Code("TELNET_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	slog.Info("player frontend started", "addr", listener.Addr())

	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			slog.Debug("error closing listener", "error", err)
		}
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				slog.Error("accept failed", "error", err)
				continue
			}
		}
		handler := NewConnectionHandler(conn, s.svc, s.accounts, s.hub, s.cfg)
		go handler.Handle(ctx)
	}
}
