// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/models"
)

// Auth modes.
const (
	ModeJWT  = "jwt"
	ModeNone = "none"
)

// TokenCookieName is the session cookie set by signup and login.
const TokenCookieName = "token"

type contextKey string

const claimsContextKey contextKey = "claims"

// WithClaims stores claims in ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns the claims of the authenticated caller.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

// ActorFromContext returns the caller, or nil for anonymous requests.
func ActorFromContext(ctx context.Context) *models.Actor {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil
	}
	return claims.Actor()
}

// Verifier validates a raw token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// Middleware authenticates HTTP requests.
type Middleware struct {
	verifier     Verifier
	mode         string
	cookieSecure bool

	// devClaims is attached to every request in none mode.
	devClaims *Claims
}

// NewMiddleware creates the authentication middleware. In none mode every
// request runs as devActor; a nil devActor leaves requests anonymous.
func NewMiddleware(verifier Verifier, mode string, cookieSecure bool, devActor *models.Actor) *Middleware {
	m := &Middleware{
		verifier:     verifier,
		mode:         mode,
		cookieSecure: cookieSecure,
	}
	if mode == ModeNone && devActor != nil {
		m.devClaims = &Claims{Nickname: devActor.Nickname, Role: devActor.Role}
		m.devClaims.Subject = devActor.ID
		m.devClaims.ID = "dev"
	}
	return m
}

// extractToken reads the Bearer header, falling back to the cookie.
func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie(TokenCookieName)
		if err != nil || cookie.Value == "" {
			return "", errMissingToken
		}
		return cookie.Value, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errBadHeader
	}
	return parts[1], nil
}

var (
	errMissingToken = errors.New("missing token")
	errBadHeader    = errors.New("invalid authorization header")
)

// resolve returns the claims for r, or nil and the reason they are missing.
func (m *Middleware) resolve(r *http.Request) (*Claims, error) {
	if m.mode == ModeNone {
		if m.devClaims == nil {
			return nil, errMissingToken
		}
		return m.devClaims, nil
	}

	token, err := extractToken(r)
	if err != nil {
		return nil, err
	}
	return m.verifier.Verify(r.Context(), token)
}

// Authenticate rejects requests without a valid, unrevoked token.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.resolve(r)
		if err != nil {
			if !errors.Is(err, errMissingToken) {
				logging.Debug().Err(err).Str("path", r.URL.Path).Msg("token validation failed")
			}
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized: "+reason(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// Optional attaches the caller when a valid token is present and lets
// everyone else through as anonymous.
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.resolve(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireAdmin is used behind Authenticate and refuses non-admins.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ActorFromContext(r.Context()).IsAdmin() {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden: admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func reason(err error) string {
	switch {
	case errors.Is(err, errMissingToken):
		return "missing token"
	case errors.Is(err, errBadHeader):
		return "invalid authorization header"
	case errors.Is(err, ErrTokenRevoked):
		return "token revoked"
	default:
		return "invalid token"
	}
}

// SetTokenCookie stores token in the HttpOnly session cookie.
func (m *Middleware) SetTokenCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   m.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie expires the session cookie.
func (m *Middleware) ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeError writes the API error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Status:   "error",
		Error:    &models.APIError{Code: code, Message: message},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}
