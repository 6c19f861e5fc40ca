// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package account

import (
	"time"
)

// Failed-attempt throttling: a progressive delay below the lockout
// threshold, then a fixed lockout.
const (
	// LockoutDuration is how long an account stays locked after too many
	// failures.
	LockoutDuration = 15 * time.Minute

	// LockoutThreshold is the failure count that triggers a lockout.
	LockoutThreshold = 7

	maxRetryDelay = 32 * time.Second
)

// Throttle is the outcome of a failed-attempt check.
type Throttle struct {
	// RetryAfter is how long the caller must still wait before the next
	// attempt. Zero means the attempt may proceed.
	RetryAfter time.Duration

	// LockedOut indicates the account is temporarily locked.
	LockedOut bool

	// LockoutRemaining is the time until the lockout expires.
	LockoutRemaining time.Duration
}

// CheckFailures evaluates the throttle state for an account with the given
// failure history. lastFailure is when the most recent failure happened;
// lockedUntil is the persisted lockout timestamp, nil when not locked.
func CheckFailures(failures int, lastFailure time.Time, lockedUntil *time.Time) Throttle {
	return CheckFailuresAt(time.Now(), failures, lastFailure, lockedUntil)
}

// CheckFailuresAt is CheckFailures evaluated at a fixed instant.
func CheckFailuresAt(now time.Time, failures int, lastFailure time.Time, lockedUntil *time.Time) Throttle {
	var t Throttle
	if lockedUntil != nil {
		if lockedUntil.After(now) {
			t.LockedOut = true
			t.LockoutRemaining = lockedUntil.Sub(now)
		}
		// A lapsed lockout admits the next attempt; success resets the
		// counter, another failure arms a fresh lockout.
		return t
	}
	if failures >= LockoutThreshold {
		t.LockedOut = true
		t.LockoutRemaining = LockoutDuration
		return t
	}
	if failures > 0 && !lastFailure.IsZero() {
		if wait := retryDelay(failures) - now.Sub(lastFailure); wait > 0 {
			t.RetryAfter = wait
		}
	}
	return t
}

// retryDelay doubles per failure: 1s, 2s, 4s, ... capped at maxRetryDelay.
func retryDelay(failures int) time.Duration {
	d := time.Duration(1<<(failures-1)) * time.Second
	if d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}

// IsLockedOut returns true if the lockout time is in the future.
func IsLockedOut(lockedUntil *time.Time) bool {
	return lockedUntil != nil && lockedUntil.After(time.Now())
}

// ComputeLockoutTime returns the lockout timestamp for the given failure
// count, or nil below the threshold.
func ComputeLockoutTime(failures int) *time.Time {
	if failures < LockoutThreshold {
		return nil
	}
	lockout := time.Now().Add(LockoutDuration)
	return &lockout
}
