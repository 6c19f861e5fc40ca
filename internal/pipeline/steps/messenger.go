// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package steps

import (
	"context"
	"time"

	"github.com/gateward/gateward/internal/account"
	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/link"
	"github.com/gateward/gateward/internal/pipeline"
)

// ConfirmationSender dispatches the platform-specific confirmation message
// for a pending entry. The default sends the configured text through the
// transport registry; tests and platform bindings may substitute their own.
type ConfirmationSender func(ctx context.Context, deps *Deps, e *link.EntryUser)

// MessengerLinkStep is the reusable second-factor step for messenger link
// types. On first eligible evaluation it registers an entry request and
// dispatches a confirmation message to the linked external identity; it then
// holds the account until an accept command confirms the entry.
type MessengerLinkStep struct {
	sc       *pipeline.StepContext
	deps     *Deps
	name     string
	linkType account.LinkType
	send     ConfirmationSender
}

// NewMessengerLinkFactory returns a factory producing the step under the
// given name for one link type.
func NewMessengerLinkFactory(name string, t account.LinkType, deps *Deps) pipeline.Factory {
	return NewMessengerLinkFactoryWithSender(name, t, deps, sendConfirmationMessage)
}

// NewMessengerLinkFactoryWithSender is NewMessengerLinkFactory with a custom
// confirmation sender.
func NewMessengerLinkFactoryWithSender(name string, t account.LinkType, deps *Deps, send ConfirmationSender) pipeline.Factory {
	return func(sc *pipeline.StepContext) pipeline.Step {
		return &MessengerLinkStep{
			sc:       sc,
			deps:     deps,
			name:     name,
			linkType: t,
			send:     send,
		}
	}
}

// Name returns the configured step name.
func (s *MessengerLinkStep) Name() string { return s.name }

// ShouldSkip skips when the account is outside the pipeline, the link type is
// disabled, no link is configured, or confirmation is toggled off. For an
// eligible account it registers the entry request and sends the confirmation
// message exactly once, then returns false: the account stays on this step
// until the entry is confirmed. Repeated evaluation without a state change
// yields the same result and never registers a second entry.
func (s *MessengerLinkStep) ShouldSkip() bool {
	a := s.sc.Account()
	if s.deps.outsidePipeline(a) {
		return true
	}
	if !s.deps.Config.Link(s.linkType).Enabled {
		return true
	}
	lu := a.FindLink(s.linkType)
	if lu == nil || !lu.IsLinked() {
		return true
	}
	if !lu.Info.ConfirmationEnabled {
		return true
	}

	if s.deps.Entries.Find(a.ID, s.linkType) == nil {
		e := link.NewEntryUser(a, lu, time.Now())
		// Add loses against a concurrent evaluation that registered first;
		// only the winner dispatches the message.
		if s.deps.Entries.Add(e) {
			s.send(context.Background(), s.deps, e)
		}
	}
	return false
}

// ShouldPass passes once an accept command confirmed the pending entry.
func (s *MessengerLinkStep) ShouldPass() bool {
	e := s.deps.Entries.Find(s.sc.Account().ID, s.linkType)
	return e != nil && e.IsConfirmed()
}

// Process reminds the player to confirm from their messenger.
func (s *MessengerLinkStep) Process(ctx context.Context, player pipeline.Player) {
	player.SendMessage(ctx, config.MsgMessengerPrompt)
	pipeline.RecordPrompt(s.name)
}

// Context returns the step's context.
func (s *MessengerLinkStep) Context() *pipeline.StepContext { return s.sc }

// sendConfirmationMessage delivers the confirmation text to the entry's
// external identity. Delivery failures are logged inside the registry; the
// entry stays registered either way so a later accept still works.
func sendConfirmationMessage(ctx context.Context, deps *Deps, e *link.EntryUser) {
	text := deps.Config.Message(config.MsgMessengerConfirm)
	if err := deps.Transports.Send(ctx, e.Type, e.LinkUser.Info.Identificator, text); err != nil {
		deps.Logger.Warn("confirmation message not sent",
			"link_type", string(e.Type),
			"account", e.Account.Name,
			"error", err,
		)
	}
}
