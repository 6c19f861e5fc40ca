// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package pipeline implements the per-account authentication step pipeline:
// an open set of named steps, a configured total order over step names, and
// the recursive skip/pass resolver that decides where an account currently
// stands.
package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gateward/gateward/internal/account"
)

// NullStepName is the terminal no-op step produced when resolution walks off
// the end of the chain.
const NullStepName = "NULL"

// Player is the in-game side of a connecting account. Implementations live
// in the proxy/server plumbing outside this module.
type Player interface {
	// AccountID returns the stable player identifier.
	AccountID() ulid.ULID

	// Name returns the display name.
	Name() string

	// SendMessage delivers a configured message to the player. Keys map to
	// configurable texts; the core never sends raw internal errors.
	SendMessage(ctx context.Context, messageKey string)

	// ConnectToServer moves the player to a backend server.
	ConnectToServer(ctx context.Context, server string) error

	// Disconnect removes the player from the network with a configured
	// message, e.g. after a declined login confirmation.
	Disconnect(ctx context.Context, messageKey string)
}

// Step is one node of the authentication pipeline. Implementations are
// selected by name from a factory registry; the resolver never hard-codes
// the step set.
type Step interface {
	// Name returns the step's stable string key.
	Name() string

	// ShouldSkip is evaluated first during resolution. True means the step
	// has nothing to do for this account — either its precondition fails or
	// it already acted. Implementations may have idempotent side effects
	// (registering a link entry, dispatching a confirmation message).
	ShouldSkip() bool

	// ShouldPass is evaluated only when the step did not skip. True means
	// the step's success condition already holds and resolution moves on.
	ShouldPass() bool

	// Process sends the step's user-facing prompt. Invoked only for the
	// resolved current step and must be idempotent: re-invocation before a
	// state change re-sends the message and nothing else.
	Process(ctx context.Context, player Player)

	// Context returns the step's evaluation context.
	Context() *StepContext
}

// Factory constructs a step bound to a fresh context.
type Factory func(sc *StepContext) Step

// StepContext is the transient per-evaluation context wrapping one account.
// It is created fresh each time the resolver produces a step and is never
// persisted.
type StepContext struct {
	acct    *account.Account
	canPass atomic.Bool
}

// NewStepContext creates a context for the given account. A nil account is a
// fatal precondition violation, never silently accepted.
func NewStepContext(acct *account.Account) (*StepContext, error) {
	if acct == nil {
		return nil, oops.Code("PIPELINE_NIL_ACCOUNT").Errorf("step context requires an account")
	}
	return &StepContext{acct: acct}, nil
}

// Account returns the owning account.
func (sc *StepContext) Account() *account.Account {
	return sc.acct
}

// AllowAdvance marks the step's success condition as externally satisfied,
// e.g. after a correct password or 2FA code. Safe to call from transport
// goroutines.
func (sc *StepContext) AllowAdvance() {
	sc.canPass.Store(true)
}

// CanAdvance reports whether external confirmation arrived.
func (sc *StepContext) CanAdvance() bool {
	return sc.canPass.Load()
}

// NullStep is the terminal no-op step. It never skips, never passes, and
// processing it does nothing.
type NullStep struct {
	sc *StepContext
}

// NewNullStep creates the terminal step for a context.
func NewNullStep(sc *StepContext) Step {
	return &NullStep{sc: sc}
}

// Name returns NullStepName.
func (s *NullStep) Name() string { return NullStepName }

// ShouldSkip returns false.
func (s *NullStep) ShouldSkip() bool { return false }

// ShouldPass returns false.
func (s *NullStep) ShouldPass() bool { return false }

// Process does nothing.
func (s *NullStep) Process(context.Context, Player) {}

// Context returns the step's context.
func (s *NullStep) Context() *StepContext { return s.sc }
