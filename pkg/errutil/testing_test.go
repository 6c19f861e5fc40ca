// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/gateward/gateward/pkg/errutil"
)

func TestAssertErrorCode(t *testing.T) {
	err := oops.Code("CONFIG_INVALID").Errorf("bad chain")
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestAssertErrorContext(t *testing.T) {
	err := oops.Code("COMMAND_ACCOUNT_LOAD_FAILED").
		With("account_id", "01J0").
		Errorf("load failed")
	errutil.AssertErrorContext(t, err, "account_id", "01J0")
}
