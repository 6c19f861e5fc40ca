// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package steps_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateward/gateward/internal/account"
	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/link"
	"github.com/gateward/gateward/internal/pipeline"
	"github.com/gateward/gateward/internal/pipeline/steps"
)

// recordingSender counts confirmation dispatches per account.
type recordingSender struct {
	mu    sync.Mutex
	sends []*link.EntryUser
}

func (r *recordingSender) send(_ context.Context, _ *steps.Deps, e *link.EntryUser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends = append(r.sends, e)
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sends)
}

func telegramFactory(env *testEnv, sender *recordingSender) pipeline.Factory {
	return steps.NewMessengerLinkFactoryWithSender(
		steps.StepTelegramLink, account.LinkTelegram, env.deps, sender.send)
}

func TestMessengerLinkStep_SkipConditions(t *testing.T) {
	env := newTestEnv(t)
	sender := &recordingSender{}
	factory := telegramFactory(env, sender)

	t.Run("skips unlinked account", func(t *testing.T) {
		acct := env.joinedAccount(t, "unlinked")
		assert.True(t, stepFor(t, factory, acct).ShouldSkip())
	})

	t.Run("skips when confirmation toggled off", func(t *testing.T) {
		acct := env.joinedAccount(t, "quiet")
		lu := acct.Link(account.LinkTelegram)
		lu.Bind(account.NumericID(100), time.Now())
		lu.Info.ConfirmationEnabled = false
		assert.True(t, stepFor(t, factory, acct).ShouldSkip())
	})

	t.Run("skips when link type disabled", func(t *testing.T) {
		acct := env.joinedAccount(t, "offplatform")
		acct.Link(account.LinkTelegram).Bind(account.NumericID(101), time.Now())

		lc := env.cfg.Links[string(account.LinkTelegram)]
		lc.Enabled = false
		env.cfg.Links[string(account.LinkTelegram)] = lc
		defer func() {
			lc.Enabled = true
			env.cfg.Links[string(account.LinkTelegram)] = lc
		}()

		assert.True(t, stepFor(t, factory, acct).ShouldSkip())
	})

	assert.Zero(t, sender.count(), "skipping evaluations must not dispatch")
}

func TestMessengerLinkStep_RegistersEntryOnce(t *testing.T) {
	env := newTestEnv(t)
	sender := &recordingSender{}
	factory := telegramFactory(env, sender)

	acct := env.joinedAccount(t, "linked")
	acct.Link(account.LinkTelegram).Bind(account.NumericID(4242), time.Now())

	step := stepFor(t, factory, acct)
	assert.False(t, step.ShouldSkip())
	require.NotNil(t, env.entries.Find(acct.ID, account.LinkTelegram))
	assert.Equal(t, 1, sender.count())

	// Re-evaluation without a state change: same result, no second entry,
	// no second message.
	again := stepFor(t, factory, acct)
	assert.False(t, again.ShouldSkip())
	assert.Equal(t, 1, env.entries.Len())
	assert.Equal(t, 1, sender.count())
}

func TestMessengerLinkStep_PassesOnConfirmedEntry(t *testing.T) {
	env := newTestEnv(t)
	sender := &recordingSender{}
	factory := telegramFactory(env, sender)

	acct := env.joinedAccount(t, "waiting")
	acct.Link(account.LinkTelegram).Bind(account.NumericID(7), time.Now())

	step := stepFor(t, factory, acct)
	require.False(t, step.ShouldSkip())
	assert.False(t, step.ShouldPass())

	env.entries.Find(acct.ID, account.LinkTelegram).Confirm()
	assert.True(t, step.ShouldPass())
}

func TestMessengerLinkStep_Process(t *testing.T) {
	env := newTestEnv(t)
	sender := &recordingSender{}
	factory := telegramFactory(env, sender)

	acct := env.joinedAccount(t, "mprompt")
	player := &fakePlayer{id: acct.ID, name: acct.Name}
	stepFor(t, factory, acct).Process(context.Background(), player)
	assert.Equal(t, []string{config.MsgMessengerPrompt}, player.sent())
}
