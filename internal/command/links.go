// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package command

import (
	"context"
	"strings"
	"time"

	"github.com/gateward/gateward/internal/account"
	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/event"
	"github.com/gateward/gateward/internal/link"
	"github.com/gateward/gateward/internal/pipeline"
)

// AcceptTargetAll selects every live entry for the caller instead of one
// account by name.
const AcceptTargetAll = "all"

// Accept resolves pending entry requests for the calling external identity.
// target narrows the selection to one account name; AcceptTargetAll (or an
// empty target) accepts every live entry within the enter-delay window.
func (s *Service) Accept(ctx context.Context, caller account.Identificator, t account.LinkType, target string) Outcome {
	matched := s.findEntries(caller, t, target)
	if len(matched) == 0 {
		return s.record("accept", Rejected(config.MsgNothingToAccept))
	}

	for _, e := range matched {
		e.Confirm()

		unlock := s.locks.Lock(e.AccountID)
		if entry := s.authenticating.Get(e.AccountID); entry != nil && entry.CurrentStep != nil {
			player, _ := s.players.Get(e.AccountID)
			s.advanceFrom(ctx, entry, player)
		}
		s.entries.Remove(e.AccountID, t)
		unlock()
	}

	return s.record("accept", Accepted(config.MsgEntryAccepted))
}

// Decline rejects pending entry requests for the calling external identity
// and disconnects the affected players.
func (s *Service) Decline(ctx context.Context, caller account.Identificator, t account.LinkType, target string) Outcome {
	matched := s.findEntries(caller, t, target)
	if len(matched) == 0 {
		return s.record("decline", Rejected(config.MsgNothingToDecline))
	}

	for _, e := range matched {
		unlock := s.locks.Lock(e.AccountID)
		s.entries.Remove(e.AccountID, t)
		s.authenticating.Remove(e.AccountID)
		unlock()

		if player, ok := s.players.Get(e.AccountID); ok {
			player.Disconnect(ctx, config.MsgEntryDeclined)
		}
	}

	return s.record("decline", Accepted(config.MsgEntryDeclined))
}

// findEntries selects live entries for the caller within the enter-delay
// window, optionally narrowed to one target account name.
func (s *Service) findEntries(caller account.Identificator, t account.LinkType, target string) []*link.EntryUser {
	now := time.Now()
	enterDelay := s.cfg.Link(t).EnterDelay
	all := target == "" || strings.EqualFold(target, AcceptTargetAll)

	return s.entries.FindAll(func(e *link.EntryUser) bool {
		if e.Type != t || !e.LinkUser.Info.Identificator.Equals(caller) {
			return false
		}
		if !e.WithinWindow(now, enterDelay) {
			return false
		}
		return all || strings.EqualFold(e.Account.Name, target)
	})
}

// IssueLinkCode handles the in-game link command: it creates a code-keyed
// confirmation request the player completes from the messenger side.
func (s *Service) IssueLinkCode(ctx context.Context, player pipeline.Player, t account.LinkType) (string, Outcome) {
	lc := s.cfg.Link(t)
	if !lc.Enabled {
		return "", s.record("link", Rejected(config.MsgLinkDisabled))
	}

	id := player.AccountID()
	unlock := s.locks.Lock(id)
	defer unlock()

	acct, err := s.resolveAccount(ctx, id)
	if err != nil {
		s.logger.Error("issue link code: account load failed", "account_id", id.String(), "error", err)
		return "", s.record("link", Rejected(config.MsgNotRegistered))
	}
	if acct.HasLink(t) {
		return "", s.record("link", Rejected(config.MsgAlreadyLinked))
	}

	c := &link.ConfirmationUser{
		Side:      link.SideFromGame,
		Type:      t,
		AccountID: id,
		Account:   acct,
		ExpiresAt: time.Now().Add(lc.LinkTimeout),
	}
	code, err := s.confirmations.GenerateCode(s.codes.Next, c)
	if err != nil {
		s.logger.Error("code generation failed", "link_type", string(t), "error", err)
		return "", s.record("link", Rejected(config.MsgNoCode))
	}
	link.CodesGenerated.WithLabelValues(string(t)).Inc()

	return code, s.record("link", Accepted(config.MsgGoogleKeyIssued))
}

// EnterLinkCode handles the messenger-side code entry: the calling external
// identity becomes the link identificator of the account that issued the
// code. Expired records are treated as absent; a consumed code never matches
// again.
func (s *Service) EnterLinkCode(ctx context.Context, caller account.Identificator, t account.LinkType, code string) Outcome {
	c := s.confirmations.FindByCode(code, t)
	if c == nil {
		return s.record("enter_code", Rejected(config.MsgNoCode))
	}
	now := time.Now()
	if c.IsExpiredAt(now) {
		// Not yet swept; reject without consuming the slot.
		return s.record("enter_code", Rejected(config.MsgCodeExpired))
	}

	unlock := s.locks.Lock(c.AccountID)
	defer unlock()

	acct := c.Account
	if acct.HasLink(t) {
		// The request can never succeed; drop it.
		s.confirmations.Remove(c.Code)
		return s.record("enter_code", Rejected(config.MsgAlreadyLinked))
	}

	if max := s.cfg.Link(t).MaxLinksPerIdentity; max > 0 {
		count, err := s.accounts.CountLinks(ctx, t, caller.String())
		if err != nil {
			s.logger.Error("link count failed", "link_type", string(t), "error", err)
		} else if count >= max {
			return s.record("enter_code", Rejected(config.MsgLinkLimitReached))
		}
	}

	if s.hooks.Before(ctx, event.Event{Type: event.TypeLink, AccountID: acct.ID, Account: acct, LinkType: t}) == event.Cancel {
		return s.record("enter_code", Rejected(config.MsgMutationCancelled))
	}

	// One-time consumption happens before the mutation lands anywhere else.
	if s.confirmations.Remove(c.Code) == nil {
		// Lost a race with another entry attempt for the same code.
		return s.record("enter_code", Rejected(config.MsgNoCode))
	}

	acct.Link(t).Bind(caller, now)
	s.hooks.Notify(event.Event{Type: event.TypeLink, AccountID: acct.ID, Account: acct, LinkType: t})
	s.saver.UpdateLinksAsync(ctx, acct)

	return s.record("enter_code", Accepted(config.MsgLinked))
}

// ToggleConfirmation flips whether a linked channel acts as a second factor.
func (s *Service) ToggleConfirmation(ctx context.Context, player pipeline.Player, t account.LinkType) Outcome {
	id := player.AccountID()
	unlock := s.locks.Lock(id)
	defer unlock()

	acct, err := s.resolveAccount(ctx, id)
	if err != nil {
		s.logger.Error("toggle confirmation: account load failed", "account_id", id.String(), "error", err)
		return s.record("toggle_confirmation", Rejected(config.MsgNotLinked))
	}
	lu := acct.FindLink(t)
	if lu == nil || !lu.IsLinked() {
		return s.record("toggle_confirmation", Rejected(config.MsgNotLinked))
	}

	if s.hooks.Before(ctx, event.Event{Type: event.TypeConfirmationToggle, AccountID: id, Account: acct, LinkType: t}) == event.Cancel {
		return s.record("toggle_confirmation", Rejected(config.MsgMutationCancelled))
	}

	lu.Info.ConfirmationEnabled = !lu.Info.ConfirmationEnabled
	s.hooks.Notify(event.Event{Type: event.TypeConfirmationToggle, AccountID: id, Account: acct, LinkType: t})
	s.saver.UpdateLinksAsync(ctx, acct)

	return s.record("toggle_confirmation", Accepted(config.MsgConfirmationToggled))
}

// Unlink removes the binding for a link type, returning it to the unlinked
// default.
func (s *Service) Unlink(ctx context.Context, player pipeline.Player, t account.LinkType) Outcome {
	id := player.AccountID()
	unlock := s.locks.Lock(id)
	defer unlock()

	acct, err := s.resolveAccount(ctx, id)
	if err != nil {
		s.logger.Error("unlink: account load failed", "account_id", id.String(), "error", err)
		return s.record("unlink", Rejected(config.MsgNotLinked))
	}
	lu := acct.FindLink(t)
	if lu == nil || !lu.IsLinked() {
		return s.record("unlink", Rejected(config.MsgNotLinked))
	}

	if s.hooks.Before(ctx, event.Event{Type: event.TypeUnlink, AccountID: id, Account: acct, LinkType: t}) == event.Cancel {
		return s.record("unlink", Rejected(config.MsgMutationCancelled))
	}

	lu.Unbind()
	s.hooks.Notify(event.Event{Type: event.TypeUnlink, AccountID: id, Account: acct, LinkType: t})
	s.saver.UpdateLinksAsync(ctx, acct)

	return s.record("unlink", Accepted(config.MsgUnlinked))
}
