// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package telnet

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/gateward/gateward/internal/account"
	"github.com/gateward/gateward/internal/command"
	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/pkg/errutil"
)

// ConnectionHandler handles a single player connection.
type ConnectionHandler struct {
	conn     net.Conn
	reader   *bufio.Reader
	svc      *command.Service
	accounts account.Repository
	hub      *command.PlayerHub
	cfg      *config.Config

	player   *connPlayer
	ip       string
	quitting bool
}

// NewConnectionHandler creates a handler for one accepted connection.
func NewConnectionHandler(conn net.Conn, svc *command.Service, accounts account.Repository, hub *command.PlayerHub, cfg *config.Config) *ConnectionHandler {
	return &ConnectionHandler{
		conn:     conn,
		reader:   bufio.NewReader(conn),
		svc:      svc,
		accounts: accounts,
		hub:      hub,
		cfg:      cfg,
		ip:       remoteIP(conn),
	}
}

// Handle processes the connection until closed.
func (h *ConnectionHandler) Handle(ctx context.Context) {
	defer func() {
		h.leave(ctx)
		if err := h.conn.Close(); err != nil {
			slog.Debug("error closing connection", "error", err)
		}
	}()

	h.send("Gateward authentication gateway.")
	h.send("Use: join <name>")

	lineCh := make(chan string)
	errCh := make(chan error)

	go func() {
		for {
			line, err := h.reader.ReadString('\n')
			if err != nil {
				errCh <- err
				return
			}
			lineCh <- strings.TrimSpace(line)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-errCh:
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				slog.Debug("connection read error", "error", err)
			}
			return

		case line := <-lineCh:
			h.processLine(ctx, line)
			if h.quitting {
				return
			}
		}
	}
}

func (h *ConnectionHandler) processLine(ctx context.Context, line string) {
	cmd, arg := parseCommand(line)

	switch cmd {
	case "join":
		h.handleJoin(ctx, arg)
	case "register":
		h.handleRegister(ctx, arg)
	case "login":
		h.handleLogin(ctx, arg)
	case "passwd":
		h.handlePasswd(ctx, arg)
	case "2fa":
		h.handleTOTP(ctx, arg)
	case "google":
		h.handleGoogle(ctx)
	case "confirm":
		h.handleConfirm(ctx, arg)
	case "link":
		h.handleLink(ctx, arg)
	case "toggle":
		h.handleToggle(ctx, arg)
	case "unlink":
		h.handleUnlink(ctx, arg)
	case "quit":
		h.handleQuit()
	default:
		if cmd != "" {
			h.send("Unknown command: " + cmd)
		}
	}
}

func (h *ConnectionHandler) handleJoin(ctx context.Context, arg string) {
	if h.player != nil {
		h.send("Already joined.")
		return
	}
	name := strings.TrimSpace(arg)
	if err := account.ValidateName(name); err != nil {
		h.send("Usage: join <name>")
		return
	}

	id, err := h.resolveAccountID(ctx, name)
	if err != nil {
		errutil.LogError(slog.Default(), "join: account lookup failed", err, "name", name)
		h.send("Try again later.")
		return
	}

	player := newConnPlayer(id, name, h.conn, h.cfg)
	h.hub.Attach(id, player)
	if err := h.svc.HandleJoin(ctx, player, h.ip); err != nil {
		errutil.LogError(slog.Default(), "join failed", err, "name", name)
		h.hub.Detach(id)
		h.send("Try again later.")
		return
	}
	h.player = player
}

// resolveAccountID maps a player name to its stable account ID. First-seen
// names get a fresh ULID; the command service creates the account record.
func (h *ConnectionHandler) resolveAccountID(ctx context.Context, name string) (ulid.ULID, error) {
	acct, err := h.accounts.GetByName(ctx, name)
	if err == nil {
		return acct.ID, nil
	}
	if errors.Is(err, account.ErrNotFound) {
		return ulid.Make(), nil
	}
	return ulid.ULID{}, err
}

func (h *ConnectionHandler) handleRegister(ctx context.Context, arg string) {
	if !h.requireJoin() {
		return
	}
	o := h.svc.Register(ctx, h.player, h.ip, arg)
	h.sendOutcome(o)
}

func (h *ConnectionHandler) handleLogin(ctx context.Context, arg string) {
	if !h.requireJoin() {
		return
	}
	o := h.svc.Login(ctx, h.player, h.ip, arg)
	h.sendOutcome(o)
}

func (h *ConnectionHandler) handlePasswd(ctx context.Context, arg string) {
	if !h.requireJoin() {
		return
	}
	parts := strings.SplitN(arg, " ", 2)
	if len(parts) != 2 {
		h.send("Usage: passwd <old> <new>")
		return
	}
	o := h.svc.ChangePassword(ctx, h.player, parts[0], parts[1])
	h.sendOutcome(o)
}

func (h *ConnectionHandler) handleTOTP(ctx context.Context, arg string) {
	if !h.requireJoin() {
		return
	}
	code := strings.TrimSpace(arg)
	if code == "" {
		h.send("Usage: 2fa <code>")
		return
	}
	o := h.svc.TOTPCode(ctx, h.player, code)
	h.sendOutcome(o)
}

func (h *ConnectionHandler) handleGoogle(ctx context.Context) {
	if !h.requireJoin() {
		return
	}
	key, o := h.svc.IssueGoogleKey(ctx, h.player)
	if o.OK {
		h.send("Secret: " + key.Secret)
		h.send(key.URL)
	}
	h.sendOutcome(o)
}

func (h *ConnectionHandler) handleConfirm(ctx context.Context, arg string) {
	if !h.requireJoin() {
		return
	}
	code := strings.TrimSpace(arg)
	if code == "" {
		h.send("Usage: confirm <code>")
		return
	}
	o := h.svc.ConfirmGoogleLink(ctx, h.player, code)
	h.sendOutcome(o)
}

func (h *ConnectionHandler) handleLink(ctx context.Context, arg string) {
	if !h.requireJoin() {
		return
	}
	t, ok := parseLinkType(arg)
	if !ok {
		h.send("Usage: link <google|discord|telegram|vk>")
		return
	}
	code, o := h.svc.IssueLinkCode(ctx, h.player, t)
	if o.OK {
		h.send("Code: " + code)
	}
	h.sendOutcome(o)
}

func (h *ConnectionHandler) handleToggle(ctx context.Context, arg string) {
	if !h.requireJoin() {
		return
	}
	t, ok := parseLinkType(arg)
	if !ok {
		h.send("Usage: toggle <google|discord|telegram|vk>")
		return
	}
	o := h.svc.ToggleConfirmation(ctx, h.player, t)
	h.sendOutcome(o)
}

func (h *ConnectionHandler) handleUnlink(ctx context.Context, arg string) {
	if !h.requireJoin() {
		return
	}
	t, ok := parseLinkType(arg)
	if !ok {
		h.send("Usage: unlink <google|discord|telegram|vk>")
		return
	}
	o := h.svc.Unlink(ctx, h.player, t)
	h.sendOutcome(o)
}

func (h *ConnectionHandler) handleQuit() {
	h.send("Goodbye.")
	h.quitting = true
}

// leave detaches the player and records the session end. Safe to call when
// the connection never joined.
func (h *ConnectionHandler) leave(ctx context.Context) {
	if h.player == nil {
		return
	}
	id := h.player.AccountID()
	h.hub.Detach(id)
	h.svc.HandleQuit(ctx, id)
	h.player = nil
}

func (h *ConnectionHandler) requireJoin() bool {
	if h.player == nil {
		h.send("Join first: join <name>")
		return false
	}
	return true
}

func (h *ConnectionHandler) sendOutcome(o command.Outcome) {
	if msg := h.cfg.Message(o.MessageKey); msg != "" {
		h.send(msg)
	}
}

// send writes one line to the connection. After join, writes go through the
// player so they serialize with messages sent from pipeline goroutines.
func (h *ConnectionHandler) send(line string) {
	if h.player != nil {
		h.player.write(line)
		return
	}
	if _, err := h.conn.Write([]byte(line + "\r\n")); err != nil {
		slog.Debug("connection write failed", "error", err)
	}
}

// parseCommand splits a line into a lowercased command word and the rest.
func parseCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ""
	}
	parts := strings.SplitN(line, " ", 2)
	cmd := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return cmd, ""
	}
	return cmd, strings.TrimSpace(parts[1])
}

func parseLinkType(arg string) (account.LinkType, bool) {
	t := account.LinkType(strings.ToLower(strings.TrimSpace(arg)))
	if !t.Valid() {
		return "", false
	}
	return t, true
}

func remoteIP(conn net.Conn) string {
	addr := conn.RemoteAddr().String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
