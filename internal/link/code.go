// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package link

import (
	"crypto/rand"
	"math/big"
)

// DefaultCodeAlphabet excludes easily-confused characters (0/O, 1/I/L).
const DefaultCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// DefaultCodeLength is the default confirmation code length.
const DefaultCodeLength = 6

// CodeSupplier produces random confirmation codes from a fixed alphabet.
// The zero value is not usable; construct with NewCodeSupplier.
type CodeSupplier struct {
	alphabet string
	length   int
}

// NewCodeSupplier creates a supplier. Empty alphabet or non-positive length
// fall back to the defaults.
func NewCodeSupplier(alphabet string, length int) *CodeSupplier {
	if alphabet == "" {
		alphabet = DefaultCodeAlphabet
	}
	if length <= 0 {
		length = DefaultCodeLength
	}
	return &CodeSupplier{alphabet: alphabet, length: length}
}

// Next returns a fresh random code. Uses crypto/rand; confirmation codes are
// short-lived bearer secrets.
func (s *CodeSupplier) Next() string {
	buf := make([]byte, s.length)
	max := big.NewInt(int64(len(s.alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the platform source is broken; a
			// fixed character keeps the supplier total rather than panicking.
			buf[i] = s.alphabet[0]
			continue
		}
		buf[i] = s.alphabet[n.Int64()]
	}
	return string(buf)
}
