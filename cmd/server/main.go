// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/shadowscore/internal/api"
	"github.com/tomtom215/shadowscore/internal/config"
	"github.com/tomtom215/shadowscore/internal/lease"
	"github.com/tomtom215/shadowscore/internal/logging"
	"github.com/tomtom215/shadowscore/internal/rules"
	"github.com/tomtom215/shadowscore/internal/store"
	"github.com/tomtom215/shadowscore/internal/supervisor"
	"github.com/tomtom215/shadowscore/internal/supervisor/services"
	"github.com/tomtom215/shadowscore/internal/threat"
	"github.com/tomtom215/shadowscore/internal/tracing"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.LoggingOptions())
	logging.Info().Str("version", version).Msg("Starting Shadowscore with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, version)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize tracing")
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logging.Warn().Err(err).Msg("Tracing shutdown error")
		}
	}()

	db, err := store.Open(store.OpenConfig{
		Path:      cfg.Database.Path,
		Threads:   cfg.Database.Threads,
		MaxMemory: cfg.Database.MaxMemory,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open database")
	}
	st := store.NewDuckDBStore(db, cfg.StoreOptions()...)
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close database")
		}
	}()
	if err := st.InitSchema(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize schema")
	}
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Bool("home_enabled", cfg.Scoring.Home.Enabled).
		Msg("Database initialized")

	lock, closeLock, err := newTrainingLock(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize training lock")
	}
	defer closeLock()

	tc := cfg.ThreatConfig()
	ruleProvider, err := rules.New(cfg.Rules, st, tc.Extractor())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize rule provider")
	}
	logging.Info().Str("provider", cfg.Rules.Provider).Msg("Rule provider initialized")

	trainer, err := threat.NewTrainer(tc, lock, st, st, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create trainer")
	}
	engine, err := threat.NewEngine(tc, threat.Dependencies{
		Models: st,
		Stats:  st,
		Rules:  ruleProvider,
		Scores: st,
	}, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create scoring engine")
	}

	handler, err := api.NewHandler(trainer, engine, st, api.Options{
		DefaultScoreLimit: cfg.Scoring.DefaultLimit,
		Version:           version,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create API handler")
	}

	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Server.RateLimitRequests
	mwConfig.RateLimitWindow = cfg.Server.RateLimitWindow
	mwConfig.RateLimitDisabled = cfg.Server.RateLimitDisabled

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(handler, mwConfig),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	treeConfig := supervisor.DefaultTreeConfig()
	treeConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), treeConfig)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Training.OnStartup || cfg.Training.Interval > 0 {
		tree.AddJobService(services.NewTrainingService(trainer, services.TrainingServiceConfig{
			OnStartup: cfg.Training.OnStartup,
			Interval:  cfg.Training.Interval,
		}, logging.WithComponent("training-service")))
		logging.Info().
			Bool("on_startup", cfg.Training.OnStartup).
			Dur("interval", cfg.Training.Interval).
			Msg("Training service added to supervisor tree")
	}

	if cfg.Scoring.Schedule.Enabled {
		tree.AddJobService(services.NewScoringService(engine, services.ScoringServiceConfig{
			Interval:       cfg.Scoring.Schedule.Interval,
			Limit:          cfg.Scoring.Schedule.Limit,
			OverwriteFinal: cfg.Scoring.Schedule.OverwriteFinal,
			RunOnStartup:   cfg.Scoring.Schedule.RunOnStartup,
		}, logging.WithComponent("scoring-service")))
		logging.Info().
			Dur("interval", cfg.Scoring.Schedule.Interval).
			Int("limit", cfg.Scoring.Schedule.Limit).
			Bool("overwrite_final", cfg.Scoring.Schedule.OverwriteFinal).
			Msg("Scoring service added to supervisor tree")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
		cancel()
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// newTrainingLock builds the configured lock. The returned close func is never nil.
func newTrainingLock(ctx context.Context, cfg *config.Config) (threat.TrainingLock, func(), error) {
	if cfg.Lock.Backend != config.LockBackendRedis {
		logging.Info().Str("backend", config.LockBackendMemory).Msg("Training lock initialized")
		return threat.NewMemoryLock(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Lock.Redis.Addr,
		Password: cfg.Lock.Redis.Password,
		DB:       cfg.Lock.Redis.DB,
	})
	closeClient := func() {
		if err := client.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		closeClient()
		return nil, nil, fmt.Errorf("ping redis at %s: %w", cfg.Lock.Redis.Addr, err)
	}

	lock, err := lease.NewRedisLock(client, cfg.LeaseConfig())
	if err != nil {
		closeClient()
		return nil, nil, err
	}
	logging.Info().
		Str("backend", config.LockBackendRedis).
		Str("addr", cfg.Lock.Redis.Addr).
		Str("key", cfg.LeaseConfig().Key).
		Msg("Training lock initialized")
	return lock, closeClient, nil
}
