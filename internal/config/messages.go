// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package config

// Message keys used by the pipeline and the command layer. Every player
// rejection path maps to a distinct, configurable key.
const (
	MsgRegisterPrompt       = "register-prompt"
	MsgLoginPrompt          = "login-prompt"
	MsgGooglePrompt         = "google-prompt"
	MsgMessengerPrompt      = "messenger-prompt"
	MsgMessengerConfirm     = "messenger-confirm"
	MsgEnterServerFailed    = "enter-server-failed"
	MsgRegistered           = "registered"
	MsgLoggedIn             = "logged-in"
	MsgWrongPassword        = "wrong-password"
	MsgAccountLocked        = "account-locked"
	MsgRetryLater           = "retry-later"
	MsgAlreadyRegistered    = "already-registered"
	MsgNotRegistered        = "not-registered"
	MsgInvalidPassword      = "invalid-password"
	MsgPasswordChanged      = "password-changed"
	MsgNothingToAccept      = "nothing-to-accept"
	MsgNothingToDecline     = "nothing-to-decline"
	MsgEntryAccepted        = "entry-accepted"
	MsgEntryDeclined        = "entry-declined"
	MsgNoCode               = "no-code"
	MsgCodeExpired          = "code-expired"
	MsgAlreadyLinked        = "already-linked"
	MsgLinkLimitReached     = "link-limit-reached"
	MsgLinked               = "linked"
	MsgUnlinked             = "unlinked"
	MsgNotLinked            = "not-linked"
	MsgLinkDisabled         = "link-disabled"
	MsgConfirmationToggled  = "confirmation-toggled"
	MsgWrongTOTPCode        = "wrong-totp-code"
	MsgGoogleKeyIssued      = "google-key-issued"
	MsgMutationCancelled    = "mutation-cancelled"
	MsgAlreadyAuthenticated = "already-authenticated"
)

// defaultMessages are the built-in texts, overridable per key from the
// configuration file.
var defaultMessages = map[string]string{
	MsgRegisterPrompt:       "Register with /register <password>.",
	MsgLoginPrompt:          "Log in with /login <password>.",
	MsgGooglePrompt:         "Enter your 2FA code with /2fa <code>.",
	MsgMessengerPrompt:      "Confirm this login from your linked messenger.",
	MsgMessengerConfirm:     "A login was requested for your account. Accept or decline it.",
	MsgEnterServerFailed:    "Could not connect you to the server, try again.",
	MsgRegistered:           "Account registered.",
	MsgLoggedIn:             "Logged in.",
	MsgWrongPassword:        "Wrong password.",
	MsgAccountLocked:        "Account is temporarily locked, try again later.",
	MsgRetryLater:           "Too many attempts, wait a moment before retrying.",
	MsgAlreadyRegistered:    "This account is already registered.",
	MsgNotRegistered:        "This account is not registered.",
	MsgInvalidPassword:      "That password cannot be used.",
	MsgPasswordChanged:      "Password changed.",
	MsgNothingToAccept:      "No link requests to accept.",
	MsgNothingToDecline:     "No link requests to decline.",
	MsgEntryAccepted:        "Login confirmed.",
	MsgEntryDeclined:        "Login declined.",
	MsgNoCode:               "No such code.",
	MsgCodeExpired:          "That code has expired.",
	MsgAlreadyLinked:        "That account is already linked.",
	MsgLinkLimitReached:     "You cannot link more accounts.",
	MsgLinked:               "Account linked.",
	MsgUnlinked:             "Account unlinked.",
	MsgNotLinked:            "No linked account found.",
	MsgLinkDisabled:         "This link type is disabled.",
	MsgConfirmationToggled:  "Confirmation preference updated.",
	MsgWrongTOTPCode:        "Wrong 2FA code.",
	MsgGoogleKeyIssued:      "Scan the key with your authenticator app, then enter a code.",
	MsgMutationCancelled:    "The operation was not allowed.",
	MsgAlreadyAuthenticated: "You are already authenticated.",
}
