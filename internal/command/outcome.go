// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package command

// Outcome is the explicit result of a driving-event handler: either success
// or a user-facing rejection, both carrying a configurable message key. The
// transport layer renders the key for the player or bot user; raw internal
// errors never cross this boundary.
type Outcome struct {
	OK         bool
	MessageKey string
}

// Accepted builds a success outcome.
func Accepted(messageKey string) Outcome {
	return Outcome{OK: true, MessageKey: messageKey}
}

// Rejected builds a rejection outcome.
func Rejected(messageKey string) Outcome {
	return Outcome{OK: false, MessageKey: messageKey}
}
