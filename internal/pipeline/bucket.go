// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package pipeline

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gateward/gateward/internal/account"
)

// Authenticating is one account mid-pipeline: joined but not yet holding an
// authenticated session. CurrentStep is the live resolved step instance; its
// context is where external confirmations land.
type Authenticating struct {
	Account     *account.Account
	CurrentStep Step
	StartedAt   time.Time
}

// AuthenticatingBucket is the set of accounts currently mid-pipeline. An
// account is a member from join until its enter-server step completes or the
// player disconnects.
type AuthenticatingBucket struct {
	mu       sync.RWMutex
	accounts map[ulid.ULID]*Authenticating
}

// NewAuthenticatingBucket creates an empty bucket.
func NewAuthenticatingBucket() *AuthenticatingBucket {
	return &AuthenticatingBucket{
		accounts: make(map[ulid.ULID]*Authenticating),
	}
}

// Add inserts the account into the authenticating set. Re-adding an account
// already present keeps the existing record, so a duplicate join event does
// not reset pipeline progress.
func (b *AuthenticatingBucket) Add(acct *account.Account) *Authenticating {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.accounts[acct.ID]; ok {
		return existing
	}
	entry := &Authenticating{
		Account:   acct,
		StartedAt: time.Now(),
	}
	b.accounts[acct.ID] = entry
	return entry
}

// Remove deletes the account from the authenticating set.
func (b *AuthenticatingBucket) Remove(id ulid.ULID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.accounts, id)
}

// Get returns the record for an account, or nil.
func (b *AuthenticatingBucket) Get(id ulid.ULID) *Authenticating {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.accounts[id]
}

// Contains reports whether the account is mid-pipeline.
func (b *AuthenticatingBucket) Contains(id ulid.ULID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.accounts[id]
	return ok
}

// SetCurrentStep stores the live resolved step for an account. No-op when
// the account left the set between resolution and storage.
func (b *AuthenticatingBucket) SetCurrentStep(id ulid.ULID, step Step) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if entry, ok := b.accounts[id]; ok {
		entry.CurrentStep = step
	}
}

// All returns a snapshot of the records in the set.
func (b *AuthenticatingBucket) All() []*Authenticating {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*Authenticating, 0, len(b.accounts))
	for _, entry := range b.accounts {
		out = append(out, entry)
	}
	return out
}

// Len returns the number of accounts mid-pipeline.
func (b *AuthenticatingBucket) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.accounts)
}
