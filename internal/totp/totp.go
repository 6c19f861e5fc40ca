// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package totp wraps time-based one-time password generation and validation
// for the Google link type.
package totp

import (
	"github.com/pquerna/otp/totp"
	"github.com/samber/oops"
)

// Key is a freshly generated TOTP secret with its provisioning URL.
type Key struct {
	// Secret is the base32 key stored as the google link identificator.
	Secret string

	// URL is the otpauth:// provisioning URL for authenticator apps.
	URL string
}

// GenerateKey creates a new TOTP key for the given account name.
func GenerateKey(issuer, accountName string) (Key, error) {
	if issuer == "" {
		return Key{}, oops.Code("TOTP_INVALID_ISSUER").Errorf("issuer cannot be empty")
	}
	if accountName == "" {
		return Key{}, oops.Code("TOTP_INVALID_ACCOUNT").Errorf("account name cannot be empty")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
	})
	if err != nil {
		return Key{}, oops.Code("TOTP_GENERATE_FAILED").Wrap(err)
	}

	return Key{Secret: key.Secret(), URL: key.URL()}, nil
}

// Validate checks a 6-digit code against the secret at the current time.
func Validate(code, secret string) bool {
	return totp.Validate(code, secret)
}
