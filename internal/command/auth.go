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
	"github.com/gateward/gateward/internal/pipeline"
	"github.com/gateward/gateward/internal/pipeline/steps"
	"github.com/gateward/gateward/internal/totp"
)

// Register handles the in-game register command. On success the account is
// marked authenticated (a fresh registration auto-logs-in) and the pipeline
// advances past LOGIN.
func (s *Service) Register(ctx context.Context, player pipeline.Player, ip, password string) Outcome {
	id := player.AccountID()
	unlock := s.locks.Lock(id)
	defer unlock()

	entry, onStep := s.currentStep(id, steps.StepRegister)
	if entry == nil {
		return s.record("register", Rejected(config.MsgAlreadyAuthenticated))
	}
	acct := entry.Account
	if acct.Registered {
		return s.record("register", Rejected(config.MsgAlreadyRegistered))
	}
	if !onStep {
		return s.record("register", Rejected(config.MsgRegisterPrompt))
	}
	if len(password) < MinPasswordLength {
		return s.record("register", Rejected(config.MsgInvalidPassword))
	}

	if s.hooks.Before(ctx, event.Event{Type: event.TypeRegister, AccountID: id, Account: acct}) == event.Cancel {
		return s.record("register", Rejected(config.MsgMutationCancelled))
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("password hash failed", "account", acct.Name, "error", err)
		return s.record("register", Rejected(config.MsgInvalidPassword))
	}

	acct.SetPassword(hash, s.hasher.Algorithm())
	acct.MarkAuthenticated(ip, time.Now())
	s.hooks.Notify(event.Event{Type: event.TypeRegister, AccountID: id, Account: acct})
	s.saver.SaveAsync(ctx, acct)

	entry.CurrentStep.Context().AllowAdvance()
	s.advanceFrom(ctx, entry, player)

	return s.record("register", Accepted(config.MsgRegistered))
}

// Login handles the in-game login command.
func (s *Service) Login(ctx context.Context, player pipeline.Player, ip, password string) Outcome {
	id := player.AccountID()
	unlock := s.locks.Lock(id)
	defer unlock()

	entry, onStep := s.currentStep(id, steps.StepLogin)
	if entry == nil {
		return s.record("login", Rejected(config.MsgAlreadyAuthenticated))
	}
	acct := entry.Account
	if !acct.Registered {
		return s.record("login", Rejected(config.MsgNotRegistered))
	}
	if !onStep {
		return s.record("login", Rejected(config.MsgLoginPrompt))
	}
	throttle := account.CheckFailures(acct.FailedAttempts, acct.LastFailedAt, acct.LockedUntil)
	if throttle.LockedOut {
		return s.record("login", Rejected(config.MsgAccountLocked))
	}
	if throttle.RetryAfter > 0 {
		return s.record("login", Rejected(config.MsgRetryLater))
	}

	ok, err := s.hasher.Verify(password, acct.PasswordHash)
	if err != nil {
		s.logger.Error("password verify failed", "account", acct.Name, "error", err)
		return s.record("login", Rejected(config.MsgWrongPassword))
	}
	if !ok {
		acct.RecordFailure()
		s.saver.SaveAsync(ctx, acct)
		return s.record("login", Rejected(config.MsgWrongPassword))
	}

	acct.RecordSuccess()
	if s.hasher.NeedsUpgrade(acct.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			acct.SetPassword(newHash, s.hasher.Algorithm())
		}
	}
	acct.MarkAuthenticated(ip, time.Now())
	s.saver.SaveAsync(ctx, acct)

	entry.CurrentStep.Context().AllowAdvance()
	s.advanceFrom(ctx, entry, player)

	return s.record("login", Accepted(config.MsgLoggedIn))
}

// ChangePassword handles the in-game password change command for an already
// authenticated player.
func (s *Service) ChangePassword(ctx context.Context, player pipeline.Player, oldPassword, newPassword string) Outcome {
	id := player.AccountID()
	unlock := s.locks.Lock(id)
	defer unlock()

	acct, err := s.resolveAccount(ctx, id)
	if err != nil {
		s.logger.Error("change password: account load failed", "account_id", id.String(), "error", err)
		return s.record("change_password", Rejected(config.MsgNotRegistered))
	}
	if !acct.Registered {
		return s.record("change_password", Rejected(config.MsgNotRegistered))
	}

	ok, err := s.hasher.Verify(oldPassword, acct.PasswordHash)
	if err != nil || !ok {
		return s.record("change_password", Rejected(config.MsgWrongPassword))
	}
	if len(newPassword) < MinPasswordLength {
		return s.record("change_password", Rejected(config.MsgInvalidPassword))
	}

	if s.hooks.Before(ctx, event.Event{Type: event.TypePasswordChange, AccountID: id, Account: acct}) == event.Cancel {
		return s.record("change_password", Rejected(config.MsgMutationCancelled))
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Error("password hash failed", "account", acct.Name, "error", err)
		return s.record("change_password", Rejected(config.MsgInvalidPassword))
	}
	acct.SetPassword(hash, s.hasher.Algorithm())
	s.hooks.Notify(event.Event{Type: event.TypePasswordChange, AccountID: id, Account: acct})
	s.saver.SaveAsync(ctx, acct)

	return s.record("change_password", Accepted(config.MsgPasswordChanged))
}

// TOTPCode handles the in-game 2FA code command during authentication.
func (s *Service) TOTPCode(ctx context.Context, player pipeline.Player, code string) Outcome {
	id := player.AccountID()
	unlock := s.locks.Lock(id)
	defer unlock()

	entry, onStep := s.currentStep(id, steps.StepGoogleLink)
	if entry == nil || !onStep {
		return s.record("totp_code", Rejected(config.MsgAlreadyAuthenticated))
	}
	acct := entry.Account

	lu := acct.FindLink(account.LinkGoogle)
	if lu == nil || !lu.IsLinked() {
		return s.record("totp_code", Rejected(config.MsgNotLinked))
	}
	if !totp.Validate(code, lu.Info.Identificator.String()) {
		return s.record("totp_code", Rejected(config.MsgWrongTOTPCode))
	}

	entry.CurrentStep.Context().AllowAdvance()
	s.advanceFrom(ctx, entry, player)

	return s.record("totp_code", Accepted(config.MsgLoggedIn))
}

// resolveAccount returns the live mid-pipeline account when present, else
// loads from storage.
func (s *Service) resolveAccount(ctx context.Context, id ulid.ULID) (*account.Account, error) {
	if entry := s.authenticating.Get(id); entry != nil {
		return entry.Account, nil
	}
	return s.accounts.GetByID(ctx, id)
}
