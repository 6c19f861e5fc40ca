// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package link tracks in-flight link confirmation requests: entry records
// awaiting an accept/decline from a messenger channel, and code-keyed
// confirmation records awaiting code entry. Both buckets are shared between
// the step pipeline and the command layer and are safe for concurrent use.
package link

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gateward/gateward/internal/account"
)

// EntryUser is a pending "please confirm via channel X" request. It exists
// from the moment a messenger step sends its confirmation prompt until an
// accept/decline command resolves it or it expires.
type EntryUser struct {
	Type      account.LinkType
	AccountID ulid.ULID
	Account   *account.Account
	LinkUser  *account.LinkUser

	// ConfirmationStartedAt is when the prompt was dispatched. Accept and
	// decline only consider entries within the configured enter-delay window
	// measured from this instant.
	ConfirmationStartedAt time.Time

	mu        sync.Mutex
	confirmed bool
}

// NewEntryUser creates an entry for the given account and link type.
func NewEntryUser(acct *account.Account, lu *account.LinkUser, now time.Time) *EntryUser {
	return &EntryUser{
		Type:                  lu.Type,
		AccountID:             acct.ID,
		Account:               acct,
		LinkUser:              lu,
		ConfirmationStartedAt: now,
	}
}

// Confirm marks the entry as accepted by the external channel.
func (e *EntryUser) Confirm() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.confirmed = true
}

// IsConfirmed reports whether an accept command resolved this entry.
func (e *EntryUser) IsConfirmed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.confirmed
}

// WithinWindow reports whether the entry is still inside the enter-delay
// window at the given instant. Entries outside the window are treated as
// absent by every consumer even before the sweeper evicts them.
func (e *EntryUser) WithinWindow(now time.Time, enterDelay time.Duration) bool {
	return now.Sub(e.ConfirmationStartedAt) <= enterDelay
}

// entryKey uniquely identifies an entry while it is present in the bucket.
type entryKey struct {
	accountID ulid.ULID
	linkType  account.LinkType
}

// EntryBucket holds the live entry requests. It is the single shared mutable
// structure between messenger steps (which add) and accept/decline commands
// (which query and remove); all operations are linearizable.
type EntryBucket struct {
	mu      sync.RWMutex
	entries map[entryKey]*EntryUser
}

// NewEntryBucket creates an empty entry bucket.
func NewEntryBucket() *EntryBucket {
	return &EntryBucket{
		entries: make(map[entryKey]*EntryUser),
	}
}

// Find returns the live entry for (accountID, linkType), or nil.
func (b *EntryBucket) Find(accountID ulid.ULID, t account.LinkType) *EntryUser {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.entries[entryKey{accountID: accountID, linkType: t}]
}

// FindAll returns a snapshot of every live entry matching the predicate.
// Callers additionally filter by the enter-delay window via WithinWindow.
func (b *EntryBucket) FindAll(pred func(*EntryUser) bool) []*EntryUser {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []*EntryUser
	for _, e := range b.entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// Add inserts an entry. Returns false without inserting when an entry for the
// same (account, link type) pair is already present, which is what makes
// prompt registration idempotent under concurrent pipeline evaluation.
func (b *EntryBucket) Add(e *EntryUser) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := entryKey{accountID: e.AccountID, linkType: e.Type}
	if _, exists := b.entries[key]; exists {
		return false
	}
	b.entries[key] = e
	return true
}

// Remove deletes the entry for (accountID, linkType). Returns the removed
// entry, or nil if none was present.
func (b *EntryBucket) Remove(accountID ulid.ULID, t account.LinkType) *EntryUser {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := entryKey{accountID: accountID, linkType: t}
	e := b.entries[key]
	delete(b.entries, key)
	return e
}

// Len returns the number of live entries.
func (b *EntryBucket) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// sweep removes entries whose window expired before the given cutoff and
// returns how many were evicted.
func (b *EntryBucket) sweep(now time.Time, enterDelay time.Duration) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	evicted := 0
	for key, e := range b.entries {
		if !e.WithinWindow(now, enterDelay) {
			delete(b.entries, key)
			evicted++
		}
	}
	return evicted
}
