// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package authz

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/indieforge/internal/audit"
	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/models"
)

// DenialAuditor records refused requests.
type DenialAuditor interface {
	LogAuthzDenied(ctx context.Context, actor audit.Actor, resource, action string)
}

// ActorFunc extracts the caller from a request context.
type ActorFunc func(ctx context.Context) *models.Actor

// Middleware provides authorization middleware using Casbin.
type Middleware struct {
	enforcer *Enforcer
	actorOf  ActorFunc
	auditor  DenialAuditor
}

// NewMiddleware creates a new authorization middleware. auditor may be nil.
func NewMiddleware(enforcer *Enforcer, actorOf ActorFunc, auditor DenialAuditor) *Middleware {
	return &Middleware{
		enforcer: enforcer,
		actorOf:  actorOf,
		auditor:  auditor,
	}
}

// Authorize checks the request path against the policy, with the action
// taken from the HTTP method. Anonymous callers that are denied get 401 so
// clients know to log in; everyone else gets 403.
func (m *Middleware) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := m.actorOf(r.Context())
		role := m.enforcer.RoleOf(actor)
		action := MethodToAction(r.Method)
		object := r.URL.Path

		allowed, err := m.enforcer.Enforce(role, object, action)
		if err != nil {
			logging.Error().Err(err).Str("path", object).Msg("authorization error")
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
			return
		}
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		if actor == nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized: authentication required")
			return
		}
		if m.auditor != nil {
			m.auditor.LogAuthzDenied(r.Context(), audit.UserActor(actor.ID, actor.Nickname, actor.Role), object, action)
		}
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden: insufficient permissions")
	})
}

// MethodToAction maps HTTP methods to Casbin actions.
func MethodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ActionRead
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return ActionWrite
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Status:   "error",
		Error:    &models.APIError{Code: code, Message: message},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}
