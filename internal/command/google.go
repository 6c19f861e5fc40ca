// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package command

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gateward/gateward/internal/account"
	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/event"
	"github.com/gateward/gateward/internal/link"
	"github.com/gateward/gateward/internal/pipeline"
	"github.com/gateward/gateward/internal/totp"
)

// IssueGoogleKey handles the in-game command starting a TOTP link: a fresh
// key is generated and parked on a pending confirmation; the link completes
// when the player proves possession via ConfirmGoogleLink.
func (s *Service) IssueGoogleKey(ctx context.Context, player pipeline.Player) (totp.Key, Outcome) {
	lc := s.cfg.Link(account.LinkGoogle)
	if !lc.Enabled {
		return totp.Key{}, s.record("google_link", Rejected(config.MsgLinkDisabled))
	}

	id := player.AccountID()
	unlock := s.locks.Lock(id)
	defer unlock()

	acct, err := s.resolveAccount(ctx, id)
	if err != nil {
		s.logger.Error("issue google key: account load failed", "account_id", id.String(), "error", err)
		return totp.Key{}, s.record("google_link", Rejected(config.MsgNotRegistered))
	}
	if acct.HasLink(account.LinkGoogle) {
		return totp.Key{}, s.record("google_link", Rejected(config.MsgAlreadyLinked))
	}

	key, err := totp.GenerateKey(s.cfg.TOTPIssuer, acct.Name)
	if err != nil {
		s.logger.Error("totp key generation failed", "account", acct.Name, "error", err)
		return totp.Key{}, s.record("google_link", Rejected(config.MsgNoCode))
	}

	// A repeated issue command replaces the previous pending key.
	if prev := s.pendingGoogle(id); prev != nil {
		s.confirmations.Remove(prev.Code)
	}

	c := &link.ConfirmationUser{
		Side:      link.SideFromGame,
		Type:      account.LinkGoogle,
		AccountID: id,
		Account:   acct,
		Secret:    key.Secret,
		ExpiresAt: time.Now().Add(lc.LinkTimeout),
	}
	if _, err := s.confirmations.GenerateCode(s.codes.Next, c); err != nil {
		s.logger.Error("code generation failed", "link_type", string(account.LinkGoogle), "error", err)
		return totp.Key{}, s.record("google_link", Rejected(config.MsgNoCode))
	}
	link.CodesGenerated.WithLabelValues(string(account.LinkGoogle)).Inc()

	return key, s.record("google_link", Accepted(config.MsgGoogleKeyIssued))
}

// ConfirmGoogleLink completes a pending TOTP link: the entered code must be
// valid for the parked secret, which then becomes the google identificator.
func (s *Service) ConfirmGoogleLink(ctx context.Context, player pipeline.Player, code string) Outcome {
	id := player.AccountID()
	unlock := s.locks.Lock(id)
	defer unlock()

	c := s.pendingGoogle(id)
	if c == nil {
		return s.record("google_confirm", Rejected(config.MsgNoCode))
	}
	now := time.Now()
	if c.IsExpiredAt(now) {
		return s.record("google_confirm", Rejected(config.MsgCodeExpired))
	}

	acct := c.Account
	if acct.HasLink(account.LinkGoogle) {
		s.confirmations.Remove(c.Code)
		return s.record("google_confirm", Rejected(config.MsgAlreadyLinked))
	}
	if !totp.Validate(code, c.Secret) {
		return s.record("google_confirm", Rejected(config.MsgWrongTOTPCode))
	}

	if s.hooks.Before(ctx, event.Event{Type: event.TypeLink, AccountID: id, Account: acct, LinkType: account.LinkGoogle}) == event.Cancel {
		return s.record("google_confirm", Rejected(config.MsgMutationCancelled))
	}

	if s.confirmations.Remove(c.Code) == nil {
		return s.record("google_confirm", Rejected(config.MsgNoCode))
	}

	acct.Link(account.LinkGoogle).Bind(account.StringID(c.Secret), now)
	s.hooks.Notify(event.Event{Type: event.TypeLink, AccountID: id, Account: acct, LinkType: account.LinkGoogle})
	s.saver.UpdateLinksAsync(ctx, acct)

	return s.record("google_confirm", Accepted(config.MsgLinked))
}

// pendingGoogle finds the live pending TOTP provisioning request for an
// account.
func (s *Service) pendingGoogle(id ulid.ULID) *link.ConfirmationUser {
	return s.confirmations.FindFirst(func(c *link.ConfirmationUser) bool {
		return c.Type == account.LinkGoogle && c.Side == link.SideFromGame && c.AccountID == id && c.Secret != ""
	})
}
