// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package command

import (
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/gateward/gateward/internal/pipeline"
)

// PlayerHub tracks live player handles by account ID. The wire frontend
// attaches a handle when a connection is established and detaches it on
// disconnect; handlers resolve handles through the PlayerProvider interface.
type PlayerHub struct {
	mu      sync.RWMutex
	players map[ulid.ULID]pipeline.Player
}

// NewPlayerHub creates an empty hub.
func NewPlayerHub() *PlayerHub {
	return &PlayerHub{players: make(map[ulid.ULID]pipeline.Player)}
}

// Attach registers a live player handle, replacing any previous handle for
// the same account.
func (h *PlayerHub) Attach(accountID ulid.ULID, p pipeline.Player) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.players[accountID] = p
}

// Detach removes the handle for an account. Detaching an absent account is a no-op.
func (h *PlayerHub) Detach(accountID ulid.ULID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.players, accountID)
}

// Get resolves a live player handle.
func (h *PlayerHub) Get(accountID ulid.ULID) (pipeline.Player, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.players[accountID]
	return p, ok
}

// Len returns the number of attached players.
func (h *PlayerHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.players)
}

// Compile-time interface check.
var _ PlayerProvider = (*PlayerHub)(nil)
