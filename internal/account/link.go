// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package account

import (
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
)

// LinkType identifies one external identity channel.
type LinkType string

// Supported link types.
const (
	LinkGoogle   LinkType = "google"
	LinkDiscord  LinkType = "discord"
	LinkTelegram LinkType = "telegram"
	LinkVK       LinkType = "vk"
)

// AllLinkTypes returns every supported link type in declaration order.
func AllLinkTypes() []LinkType {
	return []LinkType{LinkGoogle, LinkDiscord, LinkTelegram, LinkVK}
}

// UsesNumericID reports whether identificators for this type are numeric
// external IDs rather than opaque strings. Google links carry a TOTP secret.
func (t LinkType) UsesNumericID() bool {
	return t != LinkGoogle
}

// Valid reports whether t is a known link type.
func (t LinkType) Valid() bool {
	switch t {
	case LinkGoogle, LinkDiscord, LinkTelegram, LinkVK:
		return true
	}
	return false
}

// Identificator is an external identity reference: either a numeric platform
// user ID (Discord, Telegram, VK) or an opaque string secret (TOTP key).
// The zero value is the "unlinked" default.
type Identificator struct {
	num int64
	str string
}

// NumericID builds a numeric identificator.
func NumericID(n int64) Identificator {
	return Identificator{num: n}
}

// StringID builds a string identificator.
func StringID(s string) Identificator {
	return Identificator{str: s}
}

// IsDefault reports whether the identificator is the unlinked default.
func (i Identificator) IsDefault() bool {
	return i.num == 0 && i.str == ""
}

// Number returns the numeric form, or 0 for string identificators.
func (i Identificator) Number() int64 {
	return i.num
}

// String returns the string form; numeric identificators render in decimal.
func (i Identificator) String() string {
	if i.str != "" {
		return i.str
	}
	if i.num != 0 {
		return strconv.FormatInt(i.num, 10)
	}
	return ""
}

// Equals compares two identificators for the same external identity.
func (i Identificator) Equals(other Identificator) bool {
	return i.num == other.num && i.str == other.str
}

// LinkUserInfo is the binding payload of one (account, link type) pair.
type LinkUserInfo struct {
	Identificator Identificator

	// ConfirmationEnabled toggles whether this channel acts as a second
	// factor on authentication. Defaults to on once linked.
	ConfirmationEnabled bool
}

// LinkUser is the per-(account, link type) binding record.
type LinkUser struct {
	Type      LinkType
	AccountID ulid.ULID
	Info      LinkUserInfo
	LinkedAt  time.Time
}

// NewLinkUser creates an unlinked record with confirmation enabled.
func NewLinkUser(t LinkType, accountID ulid.ULID) *LinkUser {
	return &LinkUser{
		Type:      t,
		AccountID: accountID,
		Info:      LinkUserInfo{ConfirmationEnabled: true},
	}
}

// Bind assigns the external identificator, completing the link.
func (l *LinkUser) Bind(id Identificator, now time.Time) {
	l.Info.Identificator = id
	l.LinkedAt = now
}

// Unbind resets the record to the unlinked default.
func (l *LinkUser) Unbind() {
	l.Info.Identificator = Identificator{}
	l.LinkedAt = time.Time{}
}

// IsLinked reports whether the record carries a non-default identificator.
func (l *LinkUser) IsLinked() bool {
	return !l.Info.Identificator.IsDefault()
}
