// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/indieforge/internal/models"
)

// tokenVerifier checks tokens with a JWT manager and a revocation store,
// without a database.
type tokenVerifier struct {
	jwt     *JWTManager
	revoked *MemoryRevocationStore
}

func (v *tokenVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := v.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	if ok, _ := v.revoked.IsRevoked(ctx, claims.ID); ok {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func newTestMiddleware(t *testing.T) (*Middleware, *tokenVerifier) {
	t.Helper()
	v := &tokenVerifier{jwt: newTestJWTManager(t, time.Hour), revoked: NewMemoryRevocationStore()}
	return NewMiddleware(v, ModeJWT, true, nil), v
}

// actorEcho responds with the caller's id, or "anonymous".
var actorEcho = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	if actor == nil {
		_, _ = w.Write([]byte("anonymous"))
		return
	}
	_, _ = w.Write([]byte(actor.ID))
})

func TestAuthenticate(t *testing.T) {
	m, v := newTestMiddleware(t)
	token, _, err := v.jwt.GenerateToken(&models.User{ID: "u1", Nickname: "ada", Role: models.RoleUser})
	if err != nil {
		t.Fatal(err)
	}
	revokedToken, revokedClaims, _ := v.jwt.GenerateToken(&models.User{ID: "u2", Nickname: "bob", Role: models.RoleUser})
	_ = v.revoked.Revoke(context.Background(), revokedClaims.ID, revokedClaims.ExpiresAtTime())

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bearer header",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantStatus: http.StatusOK,
			wantBody:   "u1",
		},
		{
			name:       "cookie",
			setup:      func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token}) },
			wantStatus: http.StatusOK,
			wantBody:   "u1",
		},
		{
			name:       "missing token",
			setup:      func(*http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "basic scheme",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "revoked token",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+revokedToken) },
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			m.Authenticate(actorEcho).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if tt.wantStatus == http.StatusUnauthorized && rec.Header().Get("Content-Type") != "application/json" {
				t.Error("errors should use the JSON envelope")
			}
		})
	}
}

func TestOptional(t *testing.T) {
	m, v := newTestMiddleware(t)
	token, _, _ := v.jwt.GenerateToken(&models.User{ID: "u1", Nickname: "ada", Role: models.RoleUser})

	for _, tc := range []struct {
		header string
		want   string
	}{
		{"", "anonymous"},
		{"Bearer garbage", "anonymous"},
		{"Bearer " + token, "u1"},
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		m.Optional(actorEcho).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || rec.Body.String() != tc.want {
			t.Errorf("header %q: %d %q, want %q", tc.header, rec.Code, rec.Body.String(), tc.want)
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	m, v := newTestMiddleware(t)
	userToken, _, _ := v.jwt.GenerateToken(&models.User{ID: "u1", Nickname: "ada", Role: models.RoleUser})
	adminToken, _, _ := v.jwt.GenerateToken(&models.User{ID: "a1", Nickname: "root", Role: models.RoleAdmin})

	h := m.Authenticate(m.RequireAdmin(actorEcho))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("user status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "a1" {
		t.Errorf("admin = %d %q", rec.Code, rec.Body.String())
	}
}

func TestNoneMode(t *testing.T) {
	dev := &models.Actor{ID: "admin-1", Nickname: "admin", Role: models.RoleAdmin}
	m := NewMiddleware(nil, ModeNone, false, dev)

	rec := httptest.NewRecorder()
	m.Authenticate(m.RequireAdmin(actorEcho)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "admin-1" {
		t.Errorf("none mode = %d %q", rec.Code, rec.Body.String())
	}

	anon := NewMiddleware(nil, ModeNone, false, nil)
	rec = httptest.NewRecorder()
	anon.Optional(actorEcho).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Body.String() != "anonymous" {
		t.Errorf("none mode without dev actor = %q", rec.Body.String())
	}
}

func TestTokenCookies(t *testing.T) {
	m, _ := newTestMiddleware(t)

	rec := httptest.NewRecorder()
	m.SetTokenCookie(rec, "abc", time.Now().Add(time.Hour))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %v", cookies)
	}
	c := cookies[0]
	if c.Name != TokenCookieName || c.Value != "abc" || !c.HttpOnly || !c.Secure || c.MaxAge <= 0 {
		t.Errorf("cookie = %+v", c)
	}

	rec = httptest.NewRecorder()
	m.ClearTokenCookie(rec)
	c = rec.Result().Cookies()[0]
	if c.Value != "" || c.MaxAge >= 0 {
		t.Errorf("cleared cookie = %+v", c)
	}
}
