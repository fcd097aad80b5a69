// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/indieforge/internal/auth"
	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/models"
	ws "github.com/tomtom215/indieforge/internal/websocket"
)

// healthCheckTimeout bounds the database ping of the readiness check.
const healthCheckTimeout = 2 * time.Second

// hubRegisterTimeout bounds the hand-off of a new client to the hub.
const hubRegisterTimeout = 5 * time.Second

// HealthLive handles GET /api/v1/health/live. It only reports that the
// process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, map[string]interface{}{
		"status":  "alive",
		"version": h.version,
	})
}

// HealthReady handles GET /api/v1/health and /api/v1/health/ready.
// The server is ready when the database answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status := &models.HealthStatus{
		Status:  "ready",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Seconds(),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := h.db.Ping(ctx)
		cancel()
		if err != nil {
			logging.Warn().Err(err).Msg("Readiness check: database ping failed")
		} else {
			status.DatabaseOK = true
		}
	}

	if status.DatabaseOK && h.forum != nil {
		if run, err := h.forum.LastRecompute(r.Context()); err != nil {
			logging.Warn().Err(err).Msg("Readiness check: failed to load last ranking run")
		} else if run != nil {
			status.LastRankingAt = run.CompletedAt
		}
	}

	code := http.StatusOK
	if !status.DatabaseOK {
		status.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	respondData(w, r, code, status)
}

// WebSocket handles GET /api/v1/ws. The connection belongs to the
// authenticated user and receives their whispers plus forum broadcasts.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Real-time updates are not available", nil)
		return
	}
	actor := auth.ActorFromContext(r.Context())
	if actor == nil {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn, actor.ID)
	timer := time.NewTimer(hubRegisterTimeout)
	defer timer.Stop()

	select {
	case h.wsHub.Register <- client:
		client.Start()
	case <-timer.C:
		logging.Error().Str("user_id", actor.ID).Msg("WebSocket hub did not accept the client")
		_ = conn.Close()
	}
}
