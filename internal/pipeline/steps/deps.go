// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package steps provides the concrete authentication steps: register, login,
// Google 2FA, messenger link confirmation, and enter-server.
package steps

import (
	"log/slog"

	"github.com/gateward/gateward/internal/account"
	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/event"
	"github.com/gateward/gateward/internal/link"
	"github.com/gateward/gateward/internal/messenger"
	"github.com/gateward/gateward/internal/pipeline"
)

// Step names registered by this package.
const (
	StepRegister     = "REGISTER"
	StepLogin        = "LOGIN"
	StepGoogleLink   = "GOOGLE_LINK"
	StepDiscordLink  = "DISCORD_LINK"
	StepTelegramLink = "TELEGRAM_LINK"
	StepVKLink       = "VK_LINK"
	StepEnterServer  = "ENTER_SERVER"
)

// Deps carries the shared collaborators steps need. It is assembled once at
// startup and passed into every factory; steps must not hold global state.
type Deps struct {
	Config         *config.Config
	Authenticating *pipeline.AuthenticatingBucket
	Entries        *link.EntryBucket
	Transports     *messenger.Registry
	Saver          *account.Saver
	Hooks          *event.Hooks
	Logger         *slog.Logger
}

// RegisterAll registers every built-in step factory. The chain configuration
// decides which of them actually participate and in what order.
func RegisterAll(reg *pipeline.Registry, deps *Deps) {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	reg.Register(StepRegister, NewRegisterFactory(deps))
	reg.Register(StepLogin, NewLoginFactory(deps))
	reg.Register(StepGoogleLink, NewGoogleLinkFactory(deps))
	reg.Register(StepDiscordLink, NewMessengerLinkFactory(StepDiscordLink, account.LinkDiscord, deps))
	reg.Register(StepTelegramLink, NewMessengerLinkFactory(StepTelegramLink, account.LinkTelegram, deps))
	reg.Register(StepVKLink, NewMessengerLinkFactory(StepVKLink, account.LinkVK, deps))
	reg.Register(StepEnterServer, NewEnterServerFactory(deps))
}

// outsidePipeline is the skip condition shared by every step: an account not
// in the authenticating set, or one whose previous session is still active,
// has nothing to authenticate.
func (d *Deps) outsidePipeline(a *account.Account) bool {
	if !d.Authenticating.Contains(a.ID) {
		return true
	}
	return a.IsSessionActive(d.Config.SessionDurability)
}
