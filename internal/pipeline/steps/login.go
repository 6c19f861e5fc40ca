// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package steps

import (
	"context"

	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/pipeline"
)

// LoginStep gates registered accounts until the correct password arrives.
type LoginStep struct {
	sc   *pipeline.StepContext
	deps *Deps
}

// NewLoginFactory returns the factory for the LOGIN step.
func NewLoginFactory(deps *Deps) pipeline.Factory {
	return func(sc *pipeline.StepContext) pipeline.Step {
		return &LoginStep{sc: sc, deps: deps}
	}
}

// Name returns StepLogin.
func (s *LoginStep) Name() string { return StepLogin }

// ShouldSkip skips outside the pipeline and for accounts that already
// authenticated during this connection — a fresh registration auto-logs-in.
func (s *LoginStep) ShouldSkip() bool {
	a := s.sc.Account()
	if s.deps.outsidePipeline(a) {
		return true
	}
	return a.Authenticated
}

// ShouldPass passes when the login command verified the password against
// this step's context.
func (s *LoginStep) ShouldPass() bool {
	return s.sc.CanAdvance()
}

// Process prompts the player to log in.
func (s *LoginStep) Process(ctx context.Context, player pipeline.Player) {
	player.SendMessage(ctx, config.MsgLoginPrompt)
	pipeline.RecordPrompt(StepLogin)
}

// Context returns the step's context.
func (s *LoginStep) Context() *pipeline.StepContext { return s.sc }
