// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package link

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSweepInterval is how often the sweeper evicts expired records.
const DefaultSweepInterval = 5 * time.Second

// Sweeper periodically removes expired records from both buckets. Consumers
// already ignore expired records at read time; the sweep exists to bound
// memory growth from abandoned requests.
type Sweeper struct {
	entries       *EntryBucket
	confirmations *ConfirmationBucket
	enterDelay    time.Duration
	interval      time.Duration
	logger        *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewSweeper creates a sweeper over the given buckets. enterDelay is the
// entry bucket's confirmation window; interval <= 0 selects the default.
func NewSweeper(entries *EntryBucket, confirmations *ConfirmationBucket, enterDelay, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sweeper{
		entries:       entries,
		confirmations: confirmations,
		enterDelay:    enterDelay,
		interval:      interval,
		logger:        logger,
		done:          make(chan struct{}),
	}
}

// Start launches the background sweep loop. Subsequent calls are no-ops.
func (s *Sweeper) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		go s.loop(ctx)
	})
}

// Stop cancels the loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel == nil {
			close(s.done)
			return
		}
		s.cancel()
		<-s.done
	})
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(time.Now())
		}
	}
}

// SweepOnce evicts expired records from both buckets at the given instant.
// Exposed so tests and shutdown paths can run a deterministic sweep.
func (s *Sweeper) SweepOnce(now time.Time) {
	evictedEntries := s.entries.sweep(now, s.enterDelay)
	evictedCodes := s.confirmations.sweep(now)
	if evictedEntries > 0 || evictedCodes > 0 {
		s.logger.Debug("swept expired link requests",
			"entries", evictedEntries,
			"confirmations", evictedCodes,
		)
	}
	recordSweep(evictedEntries, evictedCodes)
}
