// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package messenger defines the transport boundary to external identity
// channels. Concrete SDK bindings live outside this module; the core only
// needs to hand a rendered message to the right platform for an external
// identificator, fire-and-forget.
package messenger

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/oops"

	"github.com/gateward/gateward/internal/account"
)

// Transport delivers messages to one platform. Implementations must not
// block on delivery longer than the passed context allows.
type Transport interface {
	// LinkType returns the platform this transport serves.
	LinkType() account.LinkType

	// Send delivers a rendered message to the external identity. Errors are
	// logged by the caller and never retried by the core.
	Send(ctx context.Context, to account.Identificator, text string) error
}

// Registry maps link types to their transports.
type Registry struct {
	mu         sync.RWMutex
	transports map[account.LinkType]Transport
	logger     *slog.Logger
}

// NewRegistry creates an empty transport registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		transports: make(map[account.LinkType]Transport),
		logger:     logger,
	}
}

// Register adds a transport. A transport registered for the same link type
// overwrites the previous one with a warning.
func (r *Registry) Register(t Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.transports[t.LinkType()]; ok {
		r.logger.Warn("transport conflict: overwriting existing transport",
			"link_type", string(t.LinkType()),
		)
	}
	r.transports[t.LinkType()] = t
}

// Get returns the transport for a link type.
func (r *Registry) Get(t account.LinkType) (Transport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	transport, ok := r.transports[t]
	return transport, ok
}

// Send delivers a message via the registered transport for the link type.
// A missing transport is an error; a delivery failure is logged and swallowed
// because the pipeline state must remain as if the prompt was attempted.
func (r *Registry) Send(ctx context.Context, t account.LinkType, to account.Identificator, text string) error {
	transport, ok := r.Get(t)
	if !ok {
		return oops.Code("MESSENGER_NO_TRANSPORT").
			With("link_type", string(t)).
			Errorf("no transport registered for link type %s", t)
	}

	if err := transport.Send(ctx, to, text); err != nil {
		r.logger.Error("messenger delivery failed",
			"link_type", string(t),
			"to", to.String(),
			"error", err,
		)
	}
	return nil
}
