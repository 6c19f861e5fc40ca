// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package steps

import (
	"context"

	"github.com/gateward/gateward/internal/account"
	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/pipeline"
)

// GoogleLinkStep gates accounts with a bound TOTP key until a valid code
// arrives through the 2FA command.
type GoogleLinkStep struct {
	sc   *pipeline.StepContext
	deps *Deps
}

// NewGoogleLinkFactory returns the factory for the GOOGLE_LINK step.
func NewGoogleLinkFactory(deps *Deps) pipeline.Factory {
	return func(sc *pipeline.StepContext) pipeline.Step {
		return &GoogleLinkStep{sc: sc, deps: deps}
	}
}

// Name returns StepGoogleLink.
func (s *GoogleLinkStep) Name() string { return StepGoogleLink }

// ShouldSkip skips when the feature is disabled, the account carries no TOTP
// key, or the player turned confirmation off.
func (s *GoogleLinkStep) ShouldSkip() bool {
	a := s.sc.Account()
	if s.deps.outsidePipeline(a) {
		return true
	}
	if !s.deps.Config.Link(account.LinkGoogle).Enabled {
		return true
	}
	lu := a.FindLink(account.LinkGoogle)
	if lu == nil || !lu.IsLinked() {
		return true
	}
	return !lu.Info.ConfirmationEnabled
}

// ShouldPass passes when the 2FA command validated a code against this
// step's context.
func (s *GoogleLinkStep) ShouldPass() bool {
	return s.sc.CanAdvance()
}

// Process prompts the player for their authenticator code.
func (s *GoogleLinkStep) Process(ctx context.Context, player pipeline.Player) {
	player.SendMessage(ctx, config.MsgGooglePrompt)
	pipeline.RecordPrompt(StepGoogleLink)
}

// Context returns the step's context.
func (s *GoogleLinkStep) Context() *pipeline.StepContext { return s.sc }
