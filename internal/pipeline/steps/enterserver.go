// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package steps

import (
	"context"
	"time"

	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/event"
	"github.com/gateward/gateward/internal/pipeline"
)

// EnterServerStep is the terminal action step: it moves the player onto the
// configured backend server and ends the account's pipeline membership.
type EnterServerStep struct {
	sc   *pipeline.StepContext
	deps *Deps
}

// NewEnterServerFactory returns the factory for the ENTER_SERVER step.
func NewEnterServerFactory(deps *Deps) pipeline.Factory {
	return func(sc *pipeline.StepContext) pipeline.Step {
		return &EnterServerStep{sc: sc, deps: deps}
	}
}

// Name returns StepEnterServer.
func (s *EnterServerStep) Name() string { return StepEnterServer }

// ShouldSkip skips only accounts that are not mid-pipeline; an account that
// reached this step with an active session still needs the connect.
func (s *EnterServerStep) ShouldSkip() bool {
	return !s.deps.Authenticating.Contains(s.sc.Account().ID)
}

// ShouldPass never passes; the step completes through Process.
func (s *EnterServerStep) ShouldPass() bool { return false }

// Process connects the player and clears the authenticating-set membership.
// A failed connect leaves the membership intact so the next trigger retries.
func (s *EnterServerStep) Process(ctx context.Context, player pipeline.Player) {
	a := s.sc.Account()

	if err := player.ConnectToServer(ctx, s.deps.Config.AuthServer); err != nil {
		s.deps.Logger.Error("server connect failed",
			"account", a.Name,
			"server", s.deps.Config.AuthServer,
			"error", err,
		)
		player.SendMessage(ctx, config.MsgEnterServerFailed)
		return
	}

	s.deps.Authenticating.Remove(a.ID)
	a.CurrentStepName = pipeline.NullStepName

	s.deps.Hooks.Notify(event.Event{
		Type:      event.TypeSessionStart,
		AccountID: a.ID,
		Account:   a,
		Timestamp: time.Now(),
	})
	s.deps.Saver.SaveAsync(ctx, a)
	pipeline.RecordPrompt(StepEnterServer)
}

// Context returns the step's context.
func (s *EnterServerStep) Context() *pipeline.StepContext { return s.sc }
