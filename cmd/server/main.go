// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/indieforge/internal/api"
	"github.com/tomtom215/indieforge/internal/auth"
	"github.com/tomtom215/indieforge/internal/authz"
	"github.com/tomtom215/indieforge/internal/config"
	"github.com/tomtom215/indieforge/internal/database"
	"github.com/tomtom215/indieforge/internal/events"
	"github.com/tomtom215/indieforge/internal/forum"
	"github.com/tomtom215/indieforge/internal/importer"
	"github.com/tomtom215/indieforge/internal/kvstore"
	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/metrics"
	"github.com/tomtom215/indieforge/internal/supervisor"
	ws "github.com/tomtom215/indieforge/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("media_backend", cfg.Media.Backend).
		Msg("Starting IndieForge with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	kv, err := kvstore.Open(&cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open kv store")
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing kv store")
		}
	}()

	auditLogger := initAudit(ctx, cfg, db)
	defer func() {
		if err := auditLogger.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit logger")
		}
	}()

	bus, err := events.NewBus(&cfg.Events)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create event bus")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()
	wsHub := ws.NewHub()

	forumSvc := forum.NewService(db, bus, auditLogger, forum.OptionsFrom(cfg))
	defer forumSvc.Close()

	scheduler, err := forum.NewRankingScheduler(forumSvc, &cfg.Ranking)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create ranking scheduler")
	}
	events.RegisterRankingHandlers(bus, scheduler)
	events.RegisterNotifierHandlers(bus, wsHub)

	authSvc, authMW, err := initAuth(ctx, cfg, db, kv, auditLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authentication")
	}

	if cfg.Database.SeedDemoData {
		if err := seedDemoData(ctx, db, authSvc); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed demo data")
		}
	}

	enforcer, err := authz.NewEnforcer(ctx, authz.ConfigFrom(&cfg.Security.Casbin))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}
	defer enforcer.Close()
	authzMW := authz.NewMiddleware(enforcer, auth.ActorFromContext, auditLogger)

	mediaSvc := initMedia(ctx, cfg, kv)

	handler := api.NewHandler(api.Deps{
		Config:         cfg,
		DB:             db,
		Forum:          forumSvc,
		Auth:           authSvc,
		AuthMiddleware: authMW,
		Media:          mediaSvc,
		Audit:          auditLogger,
		Hub:            wsHub,
		ImportProgress: importer.NewBadgerProgress(kv),
		Version:        version,
	})
	chiMW := api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Security))
	router := api.NewRouter(handler, chiMW, authMW, authzMW)

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})

	// Data layer
	tree.AddDataService(bus)
	tree.AddDataService(scheduler)
	tree.AddDataService(auditLogger)
	tree.AddDataService(kv)

	// Messaging layer
	tree.AddMessagingService(wsHub)

	// API layer
	tree.AddAPIService(supervisor.NewHTTPService(server, 10*time.Second))
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

	if err := <-errCh; err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Supervisor tree stopped unexpectedly")
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to build unstopped service report")
	}
	for _, svc := range report {
		logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
	}

	logging.Info().Msg("Server stopped")
}
