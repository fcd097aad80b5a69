// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/indieforge/internal/audit"
	"github.com/tomtom215/indieforge/internal/auth"
	"github.com/tomtom215/indieforge/internal/config"
	"github.com/tomtom215/indieforge/internal/database"
	"github.com/tomtom215/indieforge/internal/forum"
	"github.com/tomtom215/indieforge/internal/importer"
	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/media"
	ws "github.com/tomtom215/indieforge/internal/websocket"
)

// Deps are the services the handlers call. Media, Audit, Hub and
// ImportProgress are optional; their endpoints answer 503 without them.
type Deps struct {
	Config         *config.Config
	DB             *database.DB
	Forum          *forum.Service
	Auth           *auth.Service
	AuthMiddleware *auth.Middleware
	Media          *media.Service
	Audit          *audit.Logger
	Hub            *ws.Hub
	ImportProgress importer.ProgressTracker
	Version        string
}

// Handler contains dependencies for API handlers
type Handler struct {
	config   *config.Config
	db       *database.DB
	forum    *forum.Service
	auth     *auth.Service
	authMW   *auth.Middleware
	media    *media.Service
	audit    *audit.Logger
	wsHub    *ws.Hub
	imports  importer.ProgressTracker
	version  string
	upgrader websocket.Upgrader

	startTime time.Time
}

// NewHandler creates the API handler.
func NewHandler(deps Deps) *Handler {
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	h := &Handler{
		config:    cfg,
		db:        deps.DB,
		forum:     deps.Forum,
		auth:      deps.Auth,
		authMW:    deps.AuthMiddleware,
		media:     deps.Media,
		audit:     deps.Audit,
		wsHub:     deps.Hub,
		imports:   deps.ImportProgress,
		version:   version,
		startTime: time.Now(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

// checkWebSocketOrigin accepts same-host upgrades and the configured CORS
// origins. Browsers always send Origin on websocket upgrades.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	if origin == "http://"+r.Host || origin == "https://"+r.Host {
		return true
	}
	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
