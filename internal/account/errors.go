// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package account

import "errors"

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("not found")

// ErrNameTaken is returned when another account already owns the player name.
var ErrNameTaken = errors.New("name taken")
