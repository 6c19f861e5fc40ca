// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gateward/gateward/internal/account"
	acctpostgres "github.com/gateward/gateward/internal/account/postgres"
	"github.com/gateward/gateward/internal/command"
	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/control"
	"github.com/gateward/gateward/internal/event"
	"github.com/gateward/gateward/internal/link"
	"github.com/gateward/gateward/internal/logging"
	"github.com/gateward/gateward/internal/messenger"
	"github.com/gateward/gateward/internal/observability"
	"github.com/gateward/gateward/internal/pipeline"
	"github.com/gateward/gateward/internal/pipeline/steps"
	"github.com/gateward/gateward/internal/store"
	"github.com/gateward/gateward/internal/telnet"
	"github.com/gateward/gateward/pkg/errutil"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication service",
		Long: `Start the gateward service: connect to PostgreSQL, build the step
pipeline from the configured chain, and serve metrics and health endpoints
until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	defaults := config.Default()
	cmd.Flags().String("database-url", "", "PostgreSQL connection string (overrides config and DATABASE_URL)")
	cmd.Flags().String("listen-addr", defaults.ListenAddr, "player frontend TCP address")
	cmd.Flags().String("metrics-addr", defaults.MetricsAddr, "metrics/health HTTP address")
	cmd.Flags().String("log-format", defaults.LogFormat, "log format (json or text)")

	return cmd
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database-url is required (flag, config, or DATABASE_URL)")
	}

	logging.SetDefault("gateward", version, cfg.LogFormat)
	logger := slog.Default()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Persistence and domain collaborators.
	accounts := acctpostgres.NewAccountRepository(pool)
	hasher := account.NewArgon2idHasher()
	saver := account.NewSaver(accounts, logger)
	locks := account.NewLockTable()

	authenticating := pipeline.NewAuthenticatingBucket()
	entries := link.NewEntryBucket()
	confirmations := link.NewConfirmationBucket(cfg.Codes.CaseSensitive)
	codes := link.NewCodeSupplier(cfg.Codes.Alphabet, cfg.Codes.Length)

	hooks := event.NewHooks(logger)
	transports := messenger.NewRegistry(logger)
	players := command.NewPlayerHub()

	// Pipeline: registry, chain, resolver.
	registry := pipeline.NewRegistry()
	steps.RegisterAll(registry, &steps.Deps{
		Config:         cfg,
		Authenticating: authenticating,
		Entries:        entries,
		Transports:     transports,
		Saver:          saver,
		Hooks:          hooks,
		Logger:         logger,
	})

	chain, err := pipeline.NewChain(cfg.Chain)
	if err != nil {
		return err
	}
	if err := chain.Validate(registry); err != nil {
		return err
	}
	resolver, err := pipeline.NewResolver(registry, chain)
	if err != nil {
		return err
	}

	svc, err := command.NewService(command.Params{
		Config:         cfg,
		Accounts:       accounts,
		Hasher:         hasher,
		Saver:          saver,
		Locks:          locks,
		Authenticating: authenticating,
		Entries:        entries,
		Confirmations:  confirmations,
		Codes:          codes,
		Resolver:       resolver,
		Hooks:          hooks,
		Players:        players,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	// Background eviction of expired link requests.
	sweeper := link.NewSweeper(entries, confirmations, maxEnterDelay(cfg), cfg.SweepInterval, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// Observability endpoints with domain metrics registered.
	obsServer := observability.NewServer(cfg.MetricsAddr, func() bool {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer pingCancel()
		return pool.Ping(pingCtx) == nil
	})
	reg := obsServer.Registry()
	pipeline.RegisterMetrics(reg)
	pipeline.RegisterBucketGauge(reg, authenticating)
	link.RegisterMetrics(reg)
	link.RegisterBucketGauges(reg, entries, confirmations)
	command.RegisterMetrics(reg)

	obsErrCh, err := obsServer.Start()
	if err != nil {
		return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, obsErrCh, "observability")

	// Session counters feed off the event bus.
	go countSessions(ctx, hooks, obsServer.Metrics())

	// Player frontend.
	frontend := telnet.NewServer(cfg.ListenAddr, svc, accounts, players, cfg)
	frontendErrCh := make(chan error, 1)
	go func() {
		frontendErrCh <- frontend.Run(ctx)
	}()
	go monitorServerErrors(ctx, cancel, frontendErrCh, "frontend")

	// Control socket for status/stop commands.
	ctl := control.NewServer("server", func() { cancel() }, func() control.Stats {
		return control.Stats{
			Authenticating: authenticating.Len(),
			PendingEntries: entries.Len(),
			PendingCodes:   confirmations.Len(),
		}
	})
	if err := ctl.Start(); err != nil {
		return oops.Code("CONTROL_START_FAILED").Wrap(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("gateward started")
	logger.Info("gateward ready",
		"chain", cfg.Chain,
		"listen_addr", cfg.ListenAddr,
		"metrics_addr", obsServer.Addr(),
		"session_durability", cfg.SessionDurability,
	)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")
	cancel()
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := obsServer.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping observability server", "error", err)
	}
	if err := ctl.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping control socket", "error", err)
	}

	// Flush pending best-effort saves before closing the pool.
	saver.Wait()

	logger.Info("shutdown complete")
	return nil
}

// maxEnterDelay returns the longest configured entry window across link
// types; the sweeper keeps entries at least that long.
func maxEnterDelay(cfg *config.Config) time.Duration {
	longest := time.Duration(0)
	for _, lc := range cfg.Links {
		if lc.EnterDelay > longest {
			longest = lc.EnterDelay
		}
	}
	if longest == 0 {
		longest = time.Minute
	}
	return longest
}

// countSessions forwards session start/end events to the Prometheus counters.
func countSessions(ctx context.Context, hooks *event.Hooks, m *observability.Metrics) {
	starts := hooks.Subscribe(event.TypeSessionStart)
	ends := hooks.Subscribe(event.TypeSessionEnd)
	defer hooks.Unsubscribe(event.TypeSessionStart, starts)
	defer hooks.Unsubscribe(event.TypeSessionEnd, ends)

	for {
		select {
		case <-ctx.Done():
			return
		case <-starts:
			m.SessionsTotal.WithLabelValues("start").Inc()
			m.ConnectionsTotal.WithLabelValues("accepted").Inc()
		case <-ends:
			m.SessionsTotal.WithLabelValues("end").Inc()
		}
	}
}

// monitorServerErrors cancels the serve context when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully
			return
		}
		if err != nil {
			errutil.LogError(slog.Default(), "server error, triggering shutdown", err, "server", serverName)
			cancel()
		}
	case <-ctx.Done():
	}
}
