// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/indieforge/internal/audit"
	"github.com/tomtom215/indieforge/internal/auth"
	"github.com/tomtom215/indieforge/internal/authz"
	"github.com/tomtom215/indieforge/internal/config"
	"github.com/tomtom215/indieforge/internal/database"
	"github.com/tomtom215/indieforge/internal/events"
	"github.com/tomtom215/indieforge/internal/forum"
	"github.com/tomtom215/indieforge/internal/importer"
	"github.com/tomtom215/indieforge/internal/kvstore"
	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/media"
	"github.com/tomtom215/indieforge/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
}

// testDBSemaphore allows one DuckDB instance at a time.
var testDBSemaphore = make(chan struct{}, 1)

const testJWTSecret = "api_test_secret_that_is_long_enough_for_hs256_signing"

// testServer is the full API stack over an in-memory database and kv
// store.
type testServer struct {
	t          *testing.T
	db         *database.DB
	kv         *kvstore.Store
	auth       *auth.Service
	auditStore *audit.MemoryStore
	handler    http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "1GB"})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	kv, err := kvstore.OpenInMemory()
	if err != nil {
		t.Fatalf("kvstore.OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })

	cfg := &config.Config{
		Security: config.SecurityConfig{
			AuthMode:          auth.ModeJWT,
			JWTSecret:         testJWTSecret,
			SessionTimeout:    time.Hour,
			RateLimitDisabled: true,
		},
	}

	auditStore := audit.NewMemoryStore(1000)
	auditLog := audit.NewLogger(auditStore, nil)
	t.Cleanup(func() { _ = auditLog.Close() })

	forumSvc := forum.NewService(db, events.NopPublisher{}, auditLog, forum.OptionsFrom(cfg))
	t.Cleanup(forumSvc.Close)

	tokens, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	authSvc := auth.NewService(db, tokens, auth.NewRevocationStore(kv), auditLog)
	authMW := auth.NewMiddleware(authSvc, auth.ModeJWT, false, nil)

	enforcer, err := authz.NewEnforcer(context.Background(), authz.ConfigFrom(&cfg.Security.Casbin))
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(enforcer.Close)
	authzMW := authz.NewMiddleware(enforcer, auth.ActorFromContext, auditLog)

	backend, err := media.NewBackend(context.Background(), &cfg.Media, kv)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	h := NewHandler(Deps{
		Config:         cfg,
		DB:             db,
		Forum:          forumSvc,
		Auth:           authSvc,
		AuthMiddleware: authMW,
		Media:          media.NewService(backend, &cfg.Media),
		Audit:          auditLog,
		ImportProgress: importer.NewBadgerProgress(kv),
		Version:        "test",
	})
	router := NewRouter(h, NewChiMiddleware(ChiMiddlewareConfigFrom(&cfg.Security)), authMW, authzMW)

	return &testServer{
		t:          t,
		db:         db,
		kv:         kv,
		auth:       authSvc,
		auditStore: auditStore,
		handler:    router.Handler(),
	}
}

// createUser stores a user directly and returns a session token for it.
func (s *testServer) createUser(nickname, role string) (*models.User, string) {
	s.t.Helper()
	u := &models.User{
		Email:        nickname + "@example.org",
		Nickname:     nickname,
		PasswordHash: "hash",
		Role:         role,
	}
	if err := s.db.CreateUser(context.Background(), u); err != nil {
		s.t.Fatalf("CreateUser(%s) error = %v", nickname, err)
	}
	token, _, err := s.auth.Tokens().GenerateToken(u)
	if err != nil {
		s.t.Fatalf("GenerateToken() error = %v", err)
	}
	return u, token
}

// do sends a request with an optional JSON body and bearer token.
func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// envelope is the decoded API response with the data left raw.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return env
}

// decodeData decodes the data field of a success envelope into v.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) envelope {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if env.Status != "success" {
		t.Fatalf("status = %q, error = %+v", env.Status, env.Error)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v (data %s)", err, env.Data)
	}
	return env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}
