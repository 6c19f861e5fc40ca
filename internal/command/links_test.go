// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package command_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateward/gateward/internal/account"
	"github.com/gateward/gateward/internal/command"
	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/event"
)

// seedLinked stores a registered account bound to an external telegram
// identity. Confirmation stays enabled, so joining gates on the messenger step.
func (h *harness) seedLinked(t *testing.T, name string, caller account.Identificator) *account.Account {
	t.Helper()
	acct := h.seedRegistered(t, name, "hunter2222")
	acct.Link(account.LinkTelegram).Bind(caller, time.Now())
	return acct
}

// loginToMessengerGate joins and logs in a telegram-linked account, leaving
// the player gated on the messenger confirmation step with a live entry.
func (h *harness) loginToMessengerGate(t *testing.T, acct *account.Account) *fakePlayer {
	t.Helper()
	player := h.joinAs(t, acct)
	require.True(t, h.svc.Login(context.Background(), player, "203.0.113.9", "hunter2222").OK)
	require.Equal(t, config.MsgMessengerPrompt, player.lastSent())
	require.NotNil(t, h.entries.Find(acct.ID, account.LinkTelegram))
	return player
}

func TestAccept(t *testing.T) {
	ctx := context.Background()
	caller := account.NumericID(42)

	t.Run("accept all confirms the entry and enters the server", func(t *testing.T) {
		h := newHarness(t)
		acct := h.seedLinked(t, "alice", caller)
		player := h.loginToMessengerGate(t, acct)

		o := h.svc.Accept(ctx, caller, account.LinkTelegram, command.AcceptTargetAll)
		assert.True(t, o.OK)
		assert.Equal(t, config.MsgEntryAccepted, o.MessageKey)
		assert.Equal(t, []string{h.cfg.AuthServer}, player.connected())
		assert.False(t, h.svc.IsAuthenticating(player.id))
		assert.Nil(t, h.entries.Find(acct.ID, account.LinkTelegram))
	})

	t.Run("accept all confirms every gated account", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedLinked(t, "alice", caller)
		bob := h.seedLinked(t, "bob", caller)
		alicePlayer := h.loginToMessengerGate(t, alice)
		bobPlayer := h.loginToMessengerGate(t, bob)

		o := h.svc.Accept(ctx, caller, account.LinkTelegram, command.AcceptTargetAll)
		require.True(t, o.OK)
		assert.Equal(t, []string{h.cfg.AuthServer}, alicePlayer.connected())
		assert.Equal(t, []string{h.cfg.AuthServer}, bobPlayer.connected())
		assert.False(t, h.svc.IsAuthenticating(alice.ID))
		assert.False(t, h.svc.IsAuthenticating(bob.ID))
		assert.Nil(t, h.entries.Find(alice.ID, account.LinkTelegram))
		assert.Nil(t, h.entries.Find(bob.ID, account.LinkTelegram))
	})

	t.Run("empty target behaves like all", func(t *testing.T) {
		h := newHarness(t)
		acct := h.seedLinked(t, "alice", caller)
		player := h.loginToMessengerGate(t, acct)

		o := h.svc.Accept(ctx, caller, account.LinkTelegram, "")
		assert.True(t, o.OK)
		assert.Equal(t, []string{h.cfg.AuthServer}, player.connected())
		assert.Nil(t, h.entries.Find(acct.ID, account.LinkTelegram))
	})

	t.Run("target narrows to one account name", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedLinked(t, "alice", caller)
		bob := h.seedLinked(t, "bob", caller)
		alicePlayer := h.loginToMessengerGate(t, alice)
		bobPlayer := h.loginToMessengerGate(t, bob)

		o := h.svc.Accept(ctx, caller, account.LinkTelegram, "BOB")
		require.True(t, o.OK)
		assert.Equal(t, []string{h.cfg.AuthServer}, bobPlayer.connected())
		assert.Empty(t, alicePlayer.connected())
		assert.True(t, h.svc.IsAuthenticating(alice.ID))
		assert.NotNil(t, h.entries.Find(alice.ID, account.LinkTelegram))
	})

	t.Run("foreign identity has nothing to accept", func(t *testing.T) {
		h := newHarness(t)
		acct := h.seedLinked(t, "alice", caller)
		h.loginToMessengerGate(t, acct)

		o := h.svc.Accept(ctx, account.NumericID(999), account.LinkTelegram, command.AcceptTargetAll)
		assert.False(t, o.OK)
		assert.Equal(t, config.MsgNothingToAccept, o.MessageKey)
	})

	t.Run("entry outside the enter-delay window is ignored", func(t *testing.T) {
		h := newHarness(t)
		lc := h.cfg.Links[string(account.LinkTelegram)]
		lc.EnterDelay = -time.Second
		h.cfg.Links[string(account.LinkTelegram)] = lc

		acct := h.seedLinked(t, "alice", caller)
		player := h.joinAs(t, acct)
		require.True(t, h.svc.Login(ctx, player, "203.0.113.9", "hunter2222").OK)

		o := h.svc.Accept(ctx, caller, account.LinkTelegram, command.AcceptTargetAll)
		assert.False(t, o.OK)
		assert.Equal(t, config.MsgNothingToAccept, o.MessageKey)
	})
}

func TestDecline(t *testing.T) {
	ctx := context.Background()
	caller := account.NumericID(42)

	t.Run("decline disconnects the player", func(t *testing.T) {
		h := newHarness(t)
		acct := h.seedLinked(t, "alice", caller)
		player := h.loginToMessengerGate(t, acct)

		o := h.svc.Decline(ctx, caller, account.LinkTelegram, command.AcceptTargetAll)
		assert.True(t, o.OK)
		assert.Equal(t, config.MsgEntryDeclined, o.MessageKey)
		assert.Equal(t, []string{config.MsgEntryDeclined}, player.disconnected)
		assert.False(t, h.svc.IsAuthenticating(acct.ID))
		assert.Nil(t, h.entries.Find(acct.ID, account.LinkTelegram))
		assert.Empty(t, player.connected())
	})

	t.Run("nothing to decline", func(t *testing.T) {
		h := newHarness(t)
		o := h.svc.Decline(ctx, caller, account.LinkTelegram, command.AcceptTargetAll)
		assert.False(t, o.OK)
		assert.Equal(t, config.MsgNothingToDecline, o.MessageKey)
	})
}

func TestIssueLinkCode(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a code", func(t *testing.T) {
		h := newHarness(t)
		acct := h.seedRegistered(t, "alice", "hunter2222")
		player := &fakePlayer{id: acct.ID, name: acct.Name}

		code, o := h.svc.IssueLinkCode(ctx, player, account.LinkTelegram)
		require.True(t, o.OK)
		assert.Len(t, code, h.cfg.Codes.Length)
		assert.NotNil(t, h.confirmations.FindByCode(code, account.LinkTelegram))
	})

	t.Run("disabled link type", func(t *testing.T) {
		h := newHarness(t)
		lc := h.cfg.Links[string(account.LinkTelegram)]
		lc.Enabled = false
		h.cfg.Links[string(account.LinkTelegram)] = lc

		acct := h.seedRegistered(t, "alice", "hunter2222")
		player := &fakePlayer{id: acct.ID, name: acct.Name}

		code, o := h.svc.IssueLinkCode(ctx, player, account.LinkTelegram)
		assert.False(t, o.OK)
		assert.Equal(t, config.MsgLinkDisabled, o.MessageKey)
		assert.Empty(t, code)
	})

	t.Run("already linked", func(t *testing.T) {
		h := newHarness(t)
		acct := h.seedLinked(t, "alice", account.NumericID(42))
		player := &fakePlayer{id: acct.ID, name: acct.Name}

		_, o := h.svc.IssueLinkCode(ctx, player, account.LinkTelegram)
		assert.False(t, o.OK)
		assert.Equal(t, config.MsgAlreadyLinked, o.MessageKey)
	})
}

func TestEnterLinkCode(t *testing.T) {
	ctx := context.Background()
	caller := account.NumericID(7)

	issue := func(t *testing.T, h *harness, acct *account.Account) string {
		t.Helper()
		player := &fakePlayer{id: acct.ID, name: acct.Name}
		code, o := h.svc.IssueLinkCode(ctx, player, account.LinkTelegram)
		require.True(t, o.OK)
		return code
	}

	t.Run("binds the calling identity", func(t *testing.T) {
		h := newHarness(t)
		acct := h.seedRegistered(t, "alice", "hunter2222")
		code := issue(t, h, acct)

		o := h.svc.EnterLinkCode(ctx, caller, account.LinkTelegram, code)
		assert.True(t, o.OK)
		assert.Equal(t, config.MsgLinked, o.MessageKey)
		assert.True(t, acct.HasLink(account.LinkTelegram))
		assert.True(t, acct.FindLink(account.LinkTelegram).Info.Identificator.Equals(caller))
	})

	t.Run("code is consumed exactly once", func(t *testing.T) {
		h := newHarness(t)
		acct := h.seedRegistered(t, "alice", "hunter2222")
		code := issue(t, h, acct)

		require.True(t, h.svc.EnterLinkCode(ctx, caller, account.LinkTelegram, code).OK)
		acct.Link(account.LinkTelegram).Unbind()

		o := h.svc.EnterLinkCode(ctx, caller, account.LinkTelegram, code)
		assert.False(t, o.OK)
		assert.Equal(t, config.MsgNoCode, o.MessageKey)
	})

	t.Run("matches case-insensitively", func(t *testing.T) {
		h := newHarness(t)
		acct := h.seedRegistered(t, "alice", "hunter2222")
		code := issue(t, h, acct)

		o := h.svc.EnterLinkCode(ctx, caller, account.LinkTelegram, strings.ToLower(code))
		assert.True(t, o.OK)
	})

	t.Run("unknown code", func(t *testing.T) {
		h := newHarness(t)
		o := h.svc.EnterLinkCode(ctx, caller, account.LinkTelegram, "ZZZZZZ")
		assert.False(t, o.OK)
		assert.Equal(t, config.MsgNoCode, o.MessageKey)
	})

	t.Run("expired code is rejected without consuming", func(t *testing.T) {
		h := newHarness(t)
		acct := h.seedRegistered(t, "alice", "hunter2222")
		code := issue(t, h, acct)

		c := h.confirmations.FindByCode(code, account.LinkTelegram)
		require.NotNil(t, c)
		c.ExpiresAt = time.Now().Add(-time.Minute)

		o := h.svc.EnterLinkCode(ctx, caller, account.LinkTelegram, code)
		assert.False(t, o.OK)
		assert.Equal(t, config.MsgCodeExpired, o.MessageKey)
		assert.NotNil(t, h.confirmations.FindByCode(code, account.LinkTelegram))
	})

	t.Run("identity at the link limit", func(t *testing.T) {
		h := newHarness(t)
		h.seedLinked(t, "bob", caller)
		acct := h.seedRegistered(t, "alice", "hunter2222")
		code := issue(t, h, acct)

		o := h.svc.EnterLinkCode(ctx, caller, account.LinkTelegram, code)
		assert.False(t, o.OK)
		assert.Equal(t, config.MsgLinkLimitReached, o.MessageKey)
		assert.False(t, acct.HasLink(account.LinkTelegram))
	})

	t.Run("pre-hook cancels without consuming the code", func(t *testing.T) {
		h := newHarness(t)
		h.hooks.RegisterPre(event.TypeLink, func(context.Context, event.Event) event.Decision {
			return event.Cancel
		})
		acct := h.seedRegistered(t, "alice", "hunter2222")
		code := issue(t, h, acct)

		o := h.svc.EnterLinkCode(ctx, caller, account.LinkTelegram, code)
		assert.False(t, o.OK)
		assert.Equal(t, config.MsgMutationCancelled, o.MessageKey)
		assert.NotNil(t, h.confirmations.FindByCode(code, account.LinkTelegram))
	})
}

func TestToggleConfirmation(t *testing.T) {
	ctx := context.Background()

	t.Run("flips the preference", func(t *testing.T) {
		h := newHarness(t)
		acct := h.seedLinked(t, "alice", account.NumericID(42))
		player := &fakePlayer{id: acct.ID, name: acct.Name}
		require.True(t, acct.FindLink(account.LinkTelegram).Info.ConfirmationEnabled)

		o := h.svc.ToggleConfirmation(ctx, player, account.LinkTelegram)
		assert.True(t, o.OK)
		assert.Equal(t, config.MsgConfirmationToggled, o.MessageKey)
		assert.False(t, acct.FindLink(account.LinkTelegram).Info.ConfirmationEnabled)

		require.True(t, h.svc.ToggleConfirmation(ctx, player, account.LinkTelegram).OK)
		assert.True(t, acct.FindLink(account.LinkTelegram).Info.ConfirmationEnabled)
	})

	t.Run("not linked", func(t *testing.T) {
		h := newHarness(t)
		acct := h.seedRegistered(t, "alice", "hunter2222")
		player := &fakePlayer{id: acct.ID, name: acct.Name}

		o := h.svc.ToggleConfirmation(ctx, player, account.LinkTelegram)
		assert.False(t, o.OK)
		assert.Equal(t, config.MsgNotLinked, o.MessageKey)
	})
}

func TestUnlink(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the binding", func(t *testing.T) {
		h := newHarness(t)
		acct := h.seedLinked(t, "alice", account.NumericID(42))
		player := &fakePlayer{id: acct.ID, name: acct.Name}

		o := h.svc.Unlink(ctx, player, account.LinkTelegram)
		assert.True(t, o.OK)
		assert.Equal(t, config.MsgUnlinked, o.MessageKey)
		assert.False(t, acct.HasLink(account.LinkTelegram))

		o = h.svc.Unlink(ctx, player, account.LinkTelegram)
		assert.False(t, o.OK)
		assert.Equal(t, config.MsgNotLinked, o.MessageKey)
	})

	t.Run("unknown account", func(t *testing.T) {
		h := newHarness(t)
		player := &fakePlayer{id: ulid.Make(), name: "ghost"}

		o := h.svc.Unlink(ctx, player, account.LinkTelegram)
		assert.False(t, o.OK)
		assert.Equal(t, config.MsgNotLinked, o.MessageKey)
	})
}
