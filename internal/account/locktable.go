// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package account

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// LockTable serializes mutations per account ID. Any path that writes account
// state (steps, commands, session bookkeeping) must hold the account's lock;
// concurrent triggers for the same account then apply their mutations in
// sequence instead of racing.
type LockTable struct {
	mu    sync.Mutex
	locks map[ulid.ULID]*accountLock
}

type accountLock struct {
	mu   sync.Mutex
	refs int
}

// NewLockTable creates an empty lock table.
func NewLockTable() *LockTable {
	return &LockTable{
		locks: make(map[ulid.ULID]*accountLock),
	}
}

// Lock acquires the mutation lock for the given account ID and returns the
// matching unlock function. Lock entries are reference-counted and removed
// when the last holder unlocks, so the table does not grow with player churn.
func (t *LockTable) Lock(id ulid.ULID) (unlock func()) {
	t.mu.Lock()
	l, ok := t.locks[id]
	if !ok {
		l = &accountLock{}
		t.locks[id] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		t.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(t.locks, id)
		}
		t.mu.Unlock()
	}
}

// Len returns the number of accounts with a live lock entry.
func (t *LockTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
