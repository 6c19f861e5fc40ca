// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package steps

import (
	"context"

	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/pipeline"
)

// RegisterStep gates unregistered accounts until they choose a password.
type RegisterStep struct {
	sc   *pipeline.StepContext
	deps *Deps
}

// NewRegisterFactory returns the factory for the REGISTER step.
func NewRegisterFactory(deps *Deps) pipeline.Factory {
	return func(sc *pipeline.StepContext) pipeline.Step {
		return &RegisterStep{sc: sc, deps: deps}
	}
}

// Name returns StepRegister.
func (s *RegisterStep) Name() string { return StepRegister }

// ShouldSkip skips accounts that are not mid-pipeline or ride an active session.
func (s *RegisterStep) ShouldSkip() bool {
	return s.deps.outsidePipeline(s.sc.Account())
}

// ShouldPass passes once the account is registered.
func (s *RegisterStep) ShouldPass() bool {
	return s.sc.Account().Registered || s.sc.CanAdvance()
}

// Process prompts the player to register.
func (s *RegisterStep) Process(ctx context.Context, player pipeline.Player) {
	player.SendMessage(ctx, config.MsgRegisterPrompt)
	pipeline.RecordPrompt(StepRegister)
}

// Context returns the step's context.
func (s *RegisterStep) Context() *pipeline.StepContext { return s.sc }
