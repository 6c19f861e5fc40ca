// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package account provides the player account model and its persistence contracts.
package account

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Name validation constraints.
const (
	MinNameLength = 3
	MaxNameLength = 16
)

// nameRegex matches player names that start with a letter and contain only
// letters, numbers, and underscores.
var nameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Account is a persisted player identity with credential, session, and link state.
type Account struct {
	ID            ulid.ULID
	Name          string
	PasswordHash  string
	HashAlgorithm string
	Registered    bool

	LastIP           string
	LastSessionStart time.Time
	LastQuit         time.Time

	// Links holds at most one LinkUser per link type.
	Links map[LinkType]*LinkUser

	// CurrentStepName is the resolved pipeline position, persisted so a
	// reconnecting player resumes where they left off.
	CurrentStepName string

	FailedAttempts int
	LockedUntil    *time.Time

	// LastFailedAt is transient: the progressive retry delay is enforced in
	// memory only and resets on restart. The lockout is what persists.
	LastFailedAt time.Time

	// Authenticated is transient: true once the player completed the login or
	// register step during the current connection. Never persisted.
	Authenticated bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccount creates an unregistered account for a player seen for the first time.
func NewAccount(id ulid.ULID, name string) (*Account, error) {
	if id.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("ACCOUNT_INVALID_ID").Errorf("account ID cannot be zero")
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Account{
		ID:        id,
		Name:      name,
		Links:     make(map[LinkType]*LinkUser),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Link returns the LinkUser for the given type, creating an unlinked record
// on first access so callers can mutate preferences before linking.
func (a *Account) Link(t LinkType) *LinkUser {
	if a.Links == nil {
		a.Links = make(map[LinkType]*LinkUser)
	}
	lu, ok := a.Links[t]
	if !ok {
		lu = NewLinkUser(t, a.ID)
		a.Links[t] = lu
	}
	return lu
}

// FindLink returns the LinkUser for the given type, or nil when the account
// has never touched that link type.
func (a *Account) FindLink(t LinkType) *LinkUser {
	if a.Links == nil {
		return nil
	}
	return a.Links[t]
}

// Snapshot returns a deep copy of the account, including its link records.
// Callers must hold the account lock; the copy is then safe to hand to
// another goroutine while handlers keep mutating the original.
func (a *Account) Snapshot() *Account {
	cp := *a
	cp.Links = make(map[LinkType]*LinkUser, len(a.Links))
	for t, lu := range a.Links {
		luCopy := *lu
		cp.Links[t] = &luCopy
	}
	if a.LockedUntil != nil {
		until := *a.LockedUntil
		cp.LockedUntil = &until
	}
	return &cp
}

// HasLink reports whether the account holds a non-default identificator for
// the given link type.
func (a *Account) HasLink(t LinkType) bool {
	lu := a.FindLink(t)
	return lu != nil && !lu.Info.Identificator.IsDefault()
}

// IsSessionActive reports whether the previous session is still within the
// configured durability window. A session can only be active for an account
// that completed authentication at least once.
func (a *Account) IsSessionActive(durability time.Duration) bool {
	return a.IsSessionActiveAt(time.Now(), durability)
}

// IsSessionActiveAt is IsSessionActive evaluated at a fixed instant.
func (a *Account) IsSessionActiveAt(now time.Time, durability time.Duration) bool {
	if !a.Registered || a.LastSessionStart.IsZero() || a.LastQuit.IsZero() {
		return false
	}
	return now.Sub(a.LastQuit) < durability
}

// MarkAuthenticated records a completed login or registration for the current
// connection and starts the session clock.
func (a *Account) MarkAuthenticated(ip string, now time.Time) {
	a.Authenticated = true
	a.LastIP = ip
	a.LastSessionStart = now
	a.UpdatedAt = now
}

// MarkQuit records the player leaving the network.
func (a *Account) MarkQuit(now time.Time) {
	a.Authenticated = false
	a.LastQuit = now
	a.UpdatedAt = now
}

// SetPassword stores a new credential hash.
func (a *Account) SetPassword(hash, algorithm string) {
	a.PasswordHash = hash
	a.HashAlgorithm = algorithm
	a.Registered = true
	a.UpdatedAt = time.Now()
}

// RecordFailure increments the failure counter and sets lockout if the
// threshold is reached.
func (a *Account) RecordFailure() {
	now := time.Now()
	a.FailedAttempts++
	a.LockedUntil = ComputeLockoutTime(a.FailedAttempts)
	a.LastFailedAt = now
	a.UpdatedAt = now
}

// RecordSuccess resets the failure counter and lockout.
func (a *Account) RecordSuccess() {
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.LastFailedAt = time.Time{}
	a.UpdatedAt = time.Now()
}

// IsLocked returns true if the account is currently locked out.
func (a *Account) IsLocked() bool {
	return IsLockedOut(a.LockedUntil)
}

// ValidateName validates a player name against the network's naming rules.
func ValidateName(name string) error {
	if name == "" {
		return oops.Code("ACCOUNT_INVALID_NAME").Errorf("player name cannot be empty")
	}
	if len(name) < MinNameLength {
		return oops.Code("ACCOUNT_INVALID_NAME").
			With("min", MinNameLength).
			Errorf("player name must be at least %d characters", MinNameLength)
	}
	if len(name) > MaxNameLength {
		return oops.Code("ACCOUNT_INVALID_NAME").
			With("max", MaxNameLength).
			Errorf("player name must be at most %d characters", MaxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return oops.Code("ACCOUNT_INVALID_NAME").
			Errorf("player name must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// Repository manages account persistence.
type Repository interface {
	// Create stores a new account.
	Create(ctx context.Context, acct *Account) error

	// GetByID retrieves an account by its stable player ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByName retrieves an account by player name (case-insensitive).
	GetByName(ctx context.Context, name string) (*Account, error)

	// Update updates an existing account row.
	Update(ctx context.Context, acct *Account) error

	// UpdateLinks replaces the link rows for an account.
	UpdateLinks(ctx context.Context, acct *Account) error

	// CountLinks returns how many accounts are bound to the given external
	// identificator for a link type.
	CountLinks(ctx context.Context, t LinkType, identificator string) (int, error)

	// Delete removes an account and its link rows.
	Delete(ctx context.Context, id ulid.ULID) error
}
