// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package steps_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"

	"github.com/gateward/gateward/internal/account"
	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/event"
	"github.com/gateward/gateward/internal/link"
	"github.com/gateward/gateward/internal/messenger"
	"github.com/gateward/gateward/internal/pipeline"
	"github.com/gateward/gateward/internal/pipeline/steps"
)

// nopRepo satisfies account.Repository for saver wiring in step tests.
type nopRepo struct{}

func (nopRepo) Create(context.Context, *account.Account) error { return nil }
func (nopRepo) GetByID(context.Context, ulid.ULID) (*account.Account, error) {
	return nil, account.ErrNotFound
}
func (nopRepo) GetByName(context.Context, string) (*account.Account, error) {
	return nil, account.ErrNotFound
}
func (nopRepo) Update(context.Context, *account.Account) error      { return nil }
func (nopRepo) UpdateLinks(context.Context, *account.Account) error { return nil }
func (nopRepo) CountLinks(context.Context, account.LinkType, string) (int, error) {
	return 0, nil
}
func (nopRepo) Delete(context.Context, ulid.ULID) error { return nil }

// fakePlayer records messages and connects.
type fakePlayer struct {
	mu       sync.Mutex
	id       ulid.ULID
	name     string
	messages []string
	servers  []string
	connerr  error
	disconns []string
}

func (p *fakePlayer) AccountID() ulid.ULID { return p.id }
func (p *fakePlayer) Name() string         { return p.name }

func (p *fakePlayer) SendMessage(_ context.Context, key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, key)
}

func (p *fakePlayer) ConnectToServer(_ context.Context, server string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connerr != nil {
		return p.connerr
	}
	p.servers = append(p.servers, server)
	return nil
}

func (p *fakePlayer) Disconnect(_ context.Context, key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconns = append(p.disconns, key)
}

func (p *fakePlayer) sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.messages...)
}

type testEnv struct {
	cfg            *config.Config
	deps           *steps.Deps
	authenticating *pipeline.AuthenticatingBucket
	entries        *link.EntryBucket
	hooks          *event.Hooks
	saver          *account.Saver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Default()
	env := &testEnv{
		cfg:            &cfg,
		authenticating: pipeline.NewAuthenticatingBucket(),
		entries:        link.NewEntryBucket(),
		hooks:          event.NewHooks(nil),
		saver:          account.NewSaver(nopRepo{}, nil),
	}
	env.deps = &steps.Deps{
		Config:         env.cfg,
		Authenticating: env.authenticating,
		Entries:        env.entries,
		Transports:     messenger.NewRegistry(nil),
		Saver:          env.saver,
		Hooks:          env.hooks,
		Logger:         slog.New(slog.DiscardHandler),
	}
	return env
}

func (e *testEnv) joinedAccount(t *testing.T, name string) *account.Account {
	t.Helper()
	acct, err := account.NewAccount(ulid.Make(), name)
	require.NoError(t, err)
	e.authenticating.Add(acct)
	return acct
}

func stepFor(t *testing.T, factory pipeline.Factory, acct *account.Account) pipeline.Step {
	t.Helper()
	sc, err := pipeline.NewStepContext(acct)
	require.NoError(t, err)
	return factory(sc)
}
