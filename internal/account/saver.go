// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package account

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// Saver persists accounts asynchronously. Saves are fire-and-forget from the
// caller's perspective: failures are retried with constant backoff, then
// logged. In-memory account state is never rolled back; the account object
// is the source of truth while a session is live, so a failed save only means
// a transient divergence from storage until the next successful one.
//
// Callers must hold the account lock when enqueueing. The saver snapshots the
// account at enqueue time, so the repository reads a frozen copy that later
// handler mutations cannot race.
type Saver struct {
	repo    Repository
	logger  *slog.Logger
	backoff time.Duration
	retries uint64
	wg      sync.WaitGroup
}

// NewSaver creates a Saver over the given repository.
func NewSaver(repo Repository, logger *slog.Logger) *Saver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Saver{
		repo:    repo,
		logger:  logger,
		backoff: time.Second,
		retries: 3,
	}
}

// SaveAsync persists the account in the background. The returned channel
// receives the terminal error (nil on success) and is then closed.
func (s *Saver) SaveAsync(ctx context.Context, acct *Account) <-chan error {
	return s.run(ctx, acct, "save account", s.repo.Update)
}

// UpdateLinksAsync persists the account's link rows in the background.
func (s *Saver) UpdateLinksAsync(ctx context.Context, acct *Account) <-chan error {
	return s.run(ctx, acct, "update account links", s.repo.UpdateLinks)
}

func (s *Saver) run(ctx context.Context, acct *Account, op string, fn func(context.Context, *Account) error) <-chan error {
	// Taken synchronously, while the caller still holds the account lock.
	snap := acct.Snapshot()

	done := make(chan error, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)

		b := retry.WithMaxRetries(s.retries, retry.NewConstant(s.backoff))
		err := retry.Do(ctx, b, func(ctx context.Context) error {
			if err := fn(ctx, snap); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})
		if err != nil {
			s.logger.Error("async persistence failed",
				"operation", op,
				"account_id", snap.ID.String(),
				"account", snap.Name,
				"error", err,
			)
		}
		done <- err
	}()
	return done
}

// Wait blocks until all in-flight saves have finished. Called on shutdown so
// pending writes are not dropped.
func (s *Saver) Wait() {
	s.wg.Wait()
}
