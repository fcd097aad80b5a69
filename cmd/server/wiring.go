// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/indieforge/internal/audit"
	"github.com/tomtom215/indieforge/internal/auth"
	"github.com/tomtom215/indieforge/internal/config"
	"github.com/tomtom215/indieforge/internal/database"
	"github.com/tomtom215/indieforge/internal/kvstore"
	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/media"
	"github.com/tomtom215/indieforge/internal/models"
)

// demoPassword is the password of every seeded demo account.
const demoPassword = "forge-demo-2026"

// initAudit creates the audit logger over the audit_events table. When the
// table cannot be created events are kept in memory so admin actions are
// still visible until restart.
func initAudit(ctx context.Context, cfg *config.Config, db *database.DB) *audit.Logger {
	auditCfg := audit.ConfigFrom(&cfg.Audit)

	store := audit.NewDuckDBStore(db.Conn())
	if err := store.CreateTable(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to create audit events table, keeping audit events in memory")
		return audit.NewLogger(audit.NewMemoryStore(10000), auditCfg)
	}

	if !auditCfg.Enabled {
		logging.Warn().Msg("Audit logging is disabled (AUDIT_ENABLED=false)")
	} else {
		logging.Info().Dur("retention", auditCfg.Retention).Msg("Audit logging initialized with DuckDB persistence")
	}
	return audit.NewLogger(store, auditCfg)
}

// initAuth builds the auth service and middleware and bootstraps the
// configured admin account.
func initAuth(ctx context.Context, cfg *config.Config, db *database.DB, kv *kvstore.Store, auditor auth.Auditor) (*auth.Service, *auth.Middleware, error) {
	tokens, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return nil, nil, fmt.Errorf("jwt manager: %w", err)
	}
	svc := auth.NewService(db, tokens, auth.NewRevocationStore(kv), auditor)

	admin, err := svc.EnsureAdmin(ctx, &cfg.Security)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	if admin != nil {
		logging.Info().Str("admin_id", admin.ID).Str("nickname", admin.Nickname).Msg("Bootstrap admin ready")
	}

	var devActor *models.Actor
	switch cfg.Security.AuthMode {
	case auth.ModeNone:
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  Every request acts as the bootstrap admin.")
		logging.Warn().Msg("  NEVER use AUTH_MODE=none in production!")
		logging.Warn().Msg("============================================================")
		if admin != nil {
			devActor = &models.Actor{ID: admin.ID, Nickname: admin.Nickname, Role: admin.Role}
		}
	default:
		logging.Info().Dur("session_timeout", cfg.Security.SessionTimeout).Msg("JWT authentication enabled")
	}

	return svc, auth.NewMiddleware(svc, cfg.Security.AuthMode, cfg.Security.CookieSecure, devActor), nil
}

// initMedia returns nil when the backend cannot be created; the media
// endpoints then answer 503.
func initMedia(ctx context.Context, cfg *config.Config, kv *kvstore.Store) *media.Service {
	backend, err := media.NewBackend(ctx, &cfg.Media, kv)
	if err != nil {
		logging.Error().Err(err).Str("backend", cfg.Media.Backend).Msg("Media storage unavailable, uploads disabled")
		return nil
	}
	logging.Info().Str("backend", backend.Name()).Msg("Media storage initialized")
	return media.NewService(backend, &cfg.Media)
}

// seedDemoData fills an empty database with demo content.
func seedDemoData(ctx context.Context, db *database.DB, authSvc *auth.Service) error {
	hash, err := authSvc.HashPassword(demoPassword)
	if err != nil {
		return err
	}
	res, err := db.SeedDemoData(ctx, hash)
	if err != nil {
		return err
	}
	if res.Skipped {
		logging.Info().Msg("Demo data skipped, database already has users")
		return nil
	}
	logging.Info().
		Int("users", res.Users).
		Int("posts", res.Posts).
		Int("comments", res.Comments).
		Str("password", demoPassword).
		Msg("Demo data seeded")
	return nil
}
