// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package telnet

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/pipeline"
)

// connPlayer adapts one accepted connection to the pipeline's player
// contract. Pipeline steps and messenger confirmations may write from other
// goroutines, so every write is serialized.
type connPlayer struct {
	id   ulid.ULID
	name string
	conn net.Conn
	cfg  *config.Config

	mu     sync.Mutex
	closed bool
}

var _ pipeline.Player = (*connPlayer)(nil)

func newConnPlayer(id ulid.ULID, name string, conn net.Conn, cfg *config.Config) *connPlayer {
	return &connPlayer{id: id, name: name, conn: conn, cfg: cfg}
}

// AccountID returns the stable player identifier.
func (p *connPlayer) AccountID() ulid.ULID {
	return p.id
}

// Name returns the display name.
func (p *connPlayer) Name() string {
	return p.name
}

// SendMessage renders the configured text for key and writes it to the
// connection.
func (p *connPlayer) SendMessage(_ context.Context, messageKey string) {
	p.write(p.cfg.Message(messageKey))
}

// ConnectToServer hands the player to a backend server. The frontend has no
// backend fleet to switch to, so the handoff is announced on the line and
// the session stays on this connection.
func (p *connPlayer) ConnectToServer(_ context.Context, server string) error {
	p.write(fmt.Sprintf("Entering %s.", server))
	return nil
}

// Disconnect sends a final configured message and closes the connection.
func (p *connPlayer) Disconnect(_ context.Context, messageKey string) {
	p.write(p.cfg.Message(messageKey))

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if err := p.conn.Close(); err != nil {
		slog.Debug("error closing connection", "account", p.name, "error", err)
	}
}

func (p *connPlayer) write(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if _, err := p.conn.Write([]byte(line + "\r\n")); err != nil {
		slog.Debug("connection write failed", "account", p.name, "error", err)
	}
}
