// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/tomtom215/indieforge/internal/audit"
	"github.com/tomtom215/indieforge/internal/auth"
	"github.com/tomtom215/indieforge/internal/database"
	"github.com/tomtom215/indieforge/internal/events"
	"github.com/tomtom215/indieforge/internal/forum"
	"github.com/tomtom215/indieforge/internal/kvstore"
	"github.com/tomtom215/indieforge/internal/logging"
)

// app holds the stores and services a command works with.
type app struct {
	db    *database.DB
	kv    *kvstore.Store
	audit *audit.Logger
	forum *forum.Service
	auth  *auth.Service
}

// openApp opens the database and kv store and builds the services. Events
// are dropped since no websocket clients or schedulers run here.
func openApp(ctx context.Context) (*app, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	kv, err := kvstore.Open(&cfg.Store)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open kv store: %w", err)
	}

	store := audit.NewDuckDBStore(db.Conn())
	if err := store.CreateTable(ctx); err != nil {
		_ = kv.Close()
		_ = db.Close()
		return nil, fmt.Errorf("audit table: %w", err)
	}
	auditLogger := audit.NewLogger(store, audit.ConfigFrom(&cfg.Audit))

	a := &app{
		db:    db,
		kv:    kv,
		audit: auditLogger,
		forum: forum.NewService(db, events.NopPublisher{}, auditLogger, forum.OptionsFrom(cfg)),
	}
	// Tokens are only needed to sign sessions, which no command does.
	var tokens *auth.JWTManager
	if cfg.Security.JWTSecret != "" {
		if tokens, err = auth.NewJWTManager(&cfg.Security); err != nil {
			a.Close()
			return nil, err
		}
	}
	a.auth = auth.NewService(db, tokens, auth.NewRevocationStore(kv), auditLogger)
	return a, nil
}

// Close flushes the audit log and closes the stores.
func (a *app) Close() {
	a.forum.Close()
	if err := a.audit.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing audit logger")
	}
	if err := a.kv.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing kv store")
	}
	if err := a.db.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing database")
	}
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
