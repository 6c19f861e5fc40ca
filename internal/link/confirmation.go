// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package link

import (
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gateward/gateward/internal/account"
)

// ConfirmationSide records which side initiated a link request.
type ConfirmationSide string

// Confirmation sides.
const (
	// SideFromGame means the request was initiated by an in-game command and
	// the code travels to the messenger channel.
	SideFromGame ConfirmationSide = "FROM_GAME"

	// SideFromLink means the request was initiated from the messenger channel
	// and the code travels into the game.
	SideFromLink ConfirmationSide = "FROM_LINK"
)

// ConfirmationUser is a pending code-keyed link-completion request.
type ConfirmationUser struct {
	Side      ConfirmationSide
	Type      account.LinkType
	Code      string
	AccountID ulid.ULID
	Account   *account.Account

	// Secret carries provisioning data that must survive until the code is
	// consumed, e.g. the generated TOTP key for a pending Google link.
	Secret string

	// ExpiresAt is the absolute deadline. Consumers treat the record as
	// absent past this instant even before the sweeper evicts it.
	ExpiresAt time.Time
}

// IsExpiredAt reports whether the record is past its deadline.
func (c *ConfirmationUser) IsExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// ConfirmationBucket holds live code-keyed confirmation requests. Codes are
// unique among live records only; once a record is consumed or swept its
// code may be issued again.
type ConfirmationBucket struct {
	mu            sync.RWMutex
	byCode        map[string]*ConfirmationUser
	caseSensitive bool
}

// NewConfirmationBucket creates an empty bucket. When caseSensitive is false,
// codes match and collide case-insensitively.
func NewConfirmationBucket(caseSensitive bool) *ConfirmationBucket {
	return &ConfirmationBucket{
		byCode:        make(map[string]*ConfirmationUser),
		caseSensitive: caseSensitive,
	}
}

func (b *ConfirmationBucket) normalize(code string) string {
	if b.caseSensitive {
		return code
	}
	return strings.ToUpper(code)
}

// GenerateCode draws candidate codes from the supplier until one is not
// already held by a live record, inserts the record under it, and returns it.
// The record's Code field is set to the accepted candidate.
func (b *ConfirmationBucket) GenerateCode(supplier func() string, c *ConfirmationUser) (string, error) {
	if supplier == nil {
		return "", oops.Code("LINK_NIL_SUPPLIER").Errorf("code supplier is required")
	}
	if c == nil {
		return "", oops.Code("LINK_NIL_CONFIRMATION").Errorf("confirmation record is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Uniqueness is enforced against currently live records only. The
	// supplier space must be large enough that this terminates quickly; the
	// bound exists to turn a broken supplier into an error instead of a hang.
	const maxAttempts = 1000
	for range maxAttempts {
		code := supplier()
		key := b.normalize(code)
		if _, taken := b.byCode[key]; taken {
			continue
		}
		c.Code = code
		b.byCode[key] = c
		return code, nil
	}
	return "", oops.Code("LINK_CODE_SPACE_EXHAUSTED").
		With("live", len(b.byCode)).
		Errorf("could not generate a unique confirmation code")
}

// FindFirst returns the first live record matching the predicate, or nil.
// Callers must still check the deadline and treat expired records as absent.
func (b *ConfirmationBucket) FindFirst(pred func(*ConfirmationUser) bool) *ConfirmationUser {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, c := range b.byCode {
		if pred(c) {
			return c
		}
	}
	return nil
}

// FindByCode returns the live record for the given code (respecting the case
// rule) and link type, or nil.
func (b *ConfirmationBucket) FindByCode(code string, t account.LinkType) *ConfirmationUser {
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, ok := b.byCode[b.normalize(code)]
	if !ok || c.Type != t {
		return nil
	}
	return c
}

// Remove deletes the record holding the given code. Returns the removed
// record, or nil if none was present. Removal is the one-time-consumption
// point: a removed code can never match again.
func (b *ConfirmationBucket) Remove(code string) *ConfirmationUser {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := b.normalize(code)
	c := b.byCode[key]
	delete(b.byCode, key)
	return c
}

// Len returns the number of live records.
func (b *ConfirmationBucket) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byCode)
}

// sweep removes records past their deadline and returns how many were evicted.
func (b *ConfirmationBucket) sweep(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	evicted := 0
	for key, c := range b.byCode {
		if c.IsExpiredAt(now) {
			delete(b.byCode, key)
			evicted++
		}
	}
	return evicted
}
