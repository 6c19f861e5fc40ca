// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package event provides the pre-mutation hook chain and post-mutation
// notification fan-out used around authentication state changes. Hooks run
// synchronously and may veto the mutation; notifications are asynchronous
// and best-effort.
package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gateward/gateward/internal/account"
)

// Type identifies an authentication-relevant state change.
type Type string

// Event types published around account mutations.
const (
	TypePasswordChange     Type = "password_change"
	TypeRegister           Type = "register"
	TypeLink               Type = "link"
	TypeUnlink             Type = "unlink"
	TypeConfirmationToggle Type = "confirmation_toggle"
	TypeSessionStart       Type = "session_start"
	TypeSessionEnd         Type = "session_end"
)

// Event describes one state change about to happen (pre-hooks) or that has
// happened (notifications).
type Event struct {
	Type      Type
	AccountID ulid.ULID
	Account   *account.Account
	LinkType  account.LinkType
	Timestamp time.Time
}

// Decision is the outcome of the pre-mutation hook chain.
type Decision int

// Hook decisions.
const (
	Continue Decision = iota
	Cancel
)

// PreHook inspects an event before the mutation is applied. Returning Cancel
// vetoes the mutation.
type PreHook func(ctx context.Context, e Event) Decision

// Hooks runs registered pre-hooks synchronously and fans out post-mutation
// notifications to subscribers.
type Hooks struct {
	mu     sync.RWMutex
	pre    map[Type][]PreHook
	subs   map[Type][]chan Event
	logger *slog.Logger
}

// NewHooks creates an empty hook bus.
func NewHooks(logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hooks{
		pre:    make(map[Type][]PreHook),
		subs:   make(map[Type][]chan Event),
		logger: logger,
	}
}

// RegisterPre adds a pre-mutation hook for the given event type.
func (h *Hooks) RegisterPre(t Type, hook PreHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pre[t] = append(h.pre[t], hook)
}

// Subscribe creates a buffered channel receiving post-mutation notifications
// for the given event type.
func (h *Hooks) Subscribe(t Type) chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 100)
	h.subs[t] = append(h.subs[t], ch)
	return ch
}

// Unsubscribe removes and closes a notification channel.
func (h *Hooks) Unsubscribe(t Type, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subs[t]
	for i, sub := range subs {
		if sub == ch {
			h.subs[t] = append(subs[:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Before runs the pre-hook chain for the event. The first Cancel wins; the
// caller must then skip the mutation entirely.
func (h *Hooks) Before(ctx context.Context, e Event) Decision {
	h.mu.RLock()
	hooks := h.pre[e.Type]
	h.mu.RUnlock()

	for _, hook := range hooks {
		if hook(ctx, e) == Cancel {
			return Cancel
		}
	}
	return Continue
}

// Notify fans out a post-mutation notification. Delivery is best-effort:
// a subscriber with a full buffer misses the event.
func (h *Hooks) Notify(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs[e.Type] {
		select {
		case ch <- e:
		default:
			h.logger.Warn("notification dropped: subscriber buffer full",
				"event_type", string(e.Type),
				"account_id", e.AccountID.String(),
			)
		}
	}
}
