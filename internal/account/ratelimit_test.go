// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package account_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gateward/gateward/internal/account"
)

func TestCheckFailuresAt(t *testing.T) {
	now := time.Now()

	t.Run("no failures may proceed", func(t *testing.T) {
		th := account.CheckFailuresAt(now, 0, time.Time{}, nil)
		assert.Zero(t, th.RetryAfter)
		assert.False(t, th.LockedOut)
	})

	t.Run("retry wait doubles per failure", func(t *testing.T) {
		// Failures just happened, so the full window remains.
		assert.Equal(t, time.Second, account.CheckFailuresAt(now, 1, now, nil).RetryAfter)
		assert.Equal(t, 2*time.Second, account.CheckFailuresAt(now, 2, now, nil).RetryAfter)
		assert.Equal(t, 4*time.Second, account.CheckFailuresAt(now, 3, now, nil).RetryAfter)
		assert.Equal(t, 32*time.Second, account.CheckFailuresAt(now, 6, now, nil).RetryAfter)
	})

	t.Run("elapsed time shrinks the wait", func(t *testing.T) {
		th := account.CheckFailuresAt(now, 3, now.Add(-3*time.Second), nil)
		assert.Equal(t, time.Second, th.RetryAfter)
	})

	t.Run("expired window may proceed", func(t *testing.T) {
		th := account.CheckFailuresAt(now, 3, now.Add(-5*time.Second), nil)
		assert.Zero(t, th.RetryAfter)
		assert.False(t, th.LockedOut)
	})

	t.Run("unknown failure instant skips the delay", func(t *testing.T) {
		th := account.CheckFailuresAt(now, 3, time.Time{}, nil)
		assert.Zero(t, th.RetryAfter)
	})

	t.Run("threshold failures lock out", func(t *testing.T) {
		th := account.CheckFailuresAt(now, account.LockoutThreshold, now, nil)
		assert.True(t, th.LockedOut)
		assert.Equal(t, account.LockoutDuration, th.LockoutRemaining)
	})

	t.Run("existing lockout wins over the delay", func(t *testing.T) {
		until := now.Add(10 * time.Minute)
		th := account.CheckFailuresAt(now, 2, now, &until)
		assert.True(t, th.LockedOut)
		assert.Equal(t, 10*time.Minute, th.LockoutRemaining)
		assert.Zero(t, th.RetryAfter)
	})

	t.Run("lapsed lockout admits the next attempt", func(t *testing.T) {
		past := now.Add(-time.Minute)
		th := account.CheckFailuresAt(now, account.LockoutThreshold, now, &past)
		assert.False(t, th.LockedOut)
		assert.Zero(t, th.RetryAfter)
	})
}

func TestIsLockedOut(t *testing.T) {
	assert.False(t, account.IsLockedOut(nil))

	past := time.Now().Add(-time.Minute)
	assert.False(t, account.IsLockedOut(&past))

	future := time.Now().Add(time.Minute)
	assert.True(t, account.IsLockedOut(&future))
}

func TestComputeLockoutTime(t *testing.T) {
	assert.Nil(t, account.ComputeLockoutTime(account.LockoutThreshold-1))

	lockout := account.ComputeLockoutTime(account.LockoutThreshold)
	if assert.NotNil(t, lockout) {
		assert.True(t, lockout.After(time.Now()))
	}
}
