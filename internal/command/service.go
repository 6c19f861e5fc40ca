// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package command implements the driving-event handlers of the
// authentication core: player join/quit, credential commands, and the
// accept/decline/code commands arriving from messenger transports. Argument
// parsing and wire dispatch live outside this module; handlers take typed
// arguments and return explicit outcomes.
package command

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gateward/gateward/internal/account"
	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/event"
	"github.com/gateward/gateward/internal/link"
	"github.com/gateward/gateward/internal/pipeline"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// PlayerProvider resolves a live in-game player handle by account ID.
// Implemented by the proxy plumbing; a player who already disconnected
// resolves to (nil, false).
type PlayerProvider interface {
	Get(accountID ulid.ULID) (pipeline.Player, bool)
}

// Params collects the collaborators a Service needs.
type Params struct {
	Config         *config.Config
	Accounts       account.Repository
	Hasher         account.PasswordHasher
	Saver          *account.Saver
	Locks          *account.LockTable
	Authenticating *pipeline.AuthenticatingBucket
	Entries        *link.EntryBucket
	Confirmations  *link.ConfirmationBucket
	Codes          *link.CodeSupplier
	Resolver       *pipeline.Resolver
	Hooks          *event.Hooks
	Players        PlayerProvider
	Logger         *slog.Logger
}

// Service hosts the driving-event handlers.
type Service struct {
	cfg            *config.Config
	accounts       account.Repository
	hasher         account.PasswordHasher
	saver          *account.Saver
	locks          *account.LockTable
	authenticating *pipeline.AuthenticatingBucket
	entries        *link.EntryBucket
	confirmations  *link.ConfirmationBucket
	codes          *link.CodeSupplier
	resolver       *pipeline.Resolver
	hooks          *event.Hooks
	players        PlayerProvider
	logger         *slog.Logger
}

// NewService creates a Service. Every collaborator except Logger is required.
func NewService(p Params) (*Service, error) {
	switch {
	case p.Config == nil:
		return nil, oops.Errorf("config is required")
	case p.Accounts == nil:
		return nil, oops.Errorf("account repository is required")
	case p.Hasher == nil:
		return nil, oops.Errorf("password hasher is required")
	case p.Saver == nil:
		return nil, oops.Errorf("saver is required")
	case p.Locks == nil:
		return nil, oops.Errorf("lock table is required")
	case p.Authenticating == nil:
		return nil, oops.Errorf("authenticating bucket is required")
	case p.Entries == nil:
		return nil, oops.Errorf("entry bucket is required")
	case p.Confirmations == nil:
		return nil, oops.Errorf("confirmation bucket is required")
	case p.Codes == nil:
		return nil, oops.Errorf("code supplier is required")
	case p.Resolver == nil:
		return nil, oops.Errorf("resolver is required")
	case p.Hooks == nil:
		return nil, oops.Errorf("hook bus is required")
	case p.Players == nil:
		return nil, oops.Errorf("player provider is required")
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		cfg:            p.Config,
		accounts:       p.Accounts,
		hasher:         p.Hasher,
		saver:          p.Saver,
		locks:          p.Locks,
		authenticating: p.Authenticating,
		entries:        p.Entries,
		confirmations:  p.Confirmations,
		codes:          p.Codes,
		resolver:       p.Resolver,
		hooks:          p.Hooks,
		players:        p.Players,
		logger:         logger,
	}, nil
}

// IsAuthenticating reports whether the account is mid-pipeline.
func (s *Service) IsAuthenticating(id ulid.ULID) bool {
	return s.authenticating.Contains(id)
}

// IsSessionActive reports whether the account's previous session still holds.
func (s *Service) IsSessionActive(a *account.Account) bool {
	return a.IsSessionActive(s.cfg.SessionDurability)
}

// HandleJoin drives the pipeline for a connecting player: the account is
// loaded (or created on first sight), entered into the authenticating set
// unless its previous session is still active, and its current step is
// resolved and processed.
func (s *Service) HandleJoin(ctx context.Context, player pipeline.Player, ip string) error {
	id := player.AccountID()
	unlock := s.locks.Lock(id)
	defer unlock()

	acct, err := s.loadOrCreate(ctx, id, player.Name())
	if err != nil {
		return err
	}
	acct.Authenticated = false

	if acct.IsSessionActive(s.cfg.SessionDurability) {
		// Session resume: skip the pipeline entirely.
		acct.MarkAuthenticated(ip, time.Now())
		s.hooks.Notify(event.Event{Type: event.TypeSessionStart, AccountID: id, Account: acct})
		s.saver.SaveAsync(ctx, acct)
		if err := player.ConnectToServer(ctx, s.cfg.AuthServer); err != nil {
			s.logger.Error("resume connect failed", "account", acct.Name, "error", err)
			player.SendMessage(ctx, config.MsgEnterServerFailed)
		}
		return nil
	}

	s.authenticating.Add(acct)
	return s.resolveAndProcess(ctx, acct, player)
}

// HandleQuit records the player leaving and drops any pipeline membership.
func (s *Service) HandleQuit(ctx context.Context, id ulid.ULID) {
	unlock := s.locks.Lock(id)
	defer unlock()

	var acct *account.Account
	if entry := s.authenticating.Get(id); entry != nil {
		acct = entry.Account
		s.authenticating.Remove(id)
	} else {
		loaded, err := s.accounts.GetByID(ctx, id)
		if err != nil {
			if !errors.Is(err, account.ErrNotFound) {
				s.logger.Error("quit: account load failed", "account_id", id.String(), "error", err)
			}
			return
		}
		acct = loaded
	}

	acct.MarkQuit(time.Now())
	s.hooks.Notify(event.Event{Type: event.TypeSessionEnd, AccountID: id, Account: acct})
	s.saver.SaveAsync(ctx, acct)
}

// loadOrCreate fetches the account or creates it for a first-seen player.
// A live mid-pipeline entry owns the account object; a duplicate join must
// keep mutating that same instance rather than loading a second copy.
func (s *Service) loadOrCreate(ctx context.Context, id ulid.ULID, name string) (*account.Account, error) {
	if entry := s.authenticating.Get(id); entry != nil {
		return entry.Account, nil
	}

	acct, err := s.accounts.GetByID(ctx, id)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, account.ErrNotFound) {
		return nil, oops.Code("COMMAND_ACCOUNT_LOAD_FAILED").
			With("account_id", id.String()).
			Wrap(err)
	}

	acct, err = account.NewAccount(id, name)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		// Created lazily; a failed insert leaves the in-memory account as
		// the source of truth until the next save succeeds.
		s.logger.Error("account create failed", "account", name, "error", err)
	}
	return acct, nil
}

// resolveAndProcess resolves the account's current step, stores the live
// instance on the bucket, and processes it for the player.
func (s *Service) resolveAndProcess(ctx context.Context, acct *account.Account, player pipeline.Player) error {
	step, err := s.resolver.ResolveCurrentStep(acct)
	if err != nil {
		return err
	}
	s.authenticating.SetCurrentStep(acct.ID, step)
	step.Process(ctx, player)
	return nil
}

// advanceFrom re-evaluates the stored current step after an external
// confirmation mutated its context, then stores and processes the new
// position.
func (s *Service) advanceFrom(ctx context.Context, entry *pipeline.Authenticating, player pipeline.Player) {
	step, err := s.resolver.Advance(entry.CurrentStep)
	if err != nil {
		s.logger.Error("pipeline advance failed", "account", entry.Account.Name, "error", err)
		return
	}
	s.authenticating.SetCurrentStep(entry.Account.ID, step)
	if player != nil {
		step.Process(ctx, player)
	}
}

// currentStep returns the bucket entry when the account is mid-pipeline on
// the expected step.
func (s *Service) currentStep(id ulid.ULID, stepName string) (*pipeline.Authenticating, bool) {
	entry := s.authenticating.Get(id)
	if entry == nil || entry.CurrentStep == nil {
		return nil, false
	}
	if entry.CurrentStep.Name() != stepName {
		return entry, false
	}
	return entry, true
}
