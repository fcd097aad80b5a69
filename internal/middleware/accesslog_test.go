// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/indieforge/internal/logging"
)

func TestAccessLevel(t *testing.T) {
	tests := []struct {
		path   string
		status int
		want   zerolog.Level
	}{
		{"/api/v1/posts", 200, zerolog.InfoLevel},
		{"/api/v1/posts", 404, zerolog.WarnLevel},
		{"/api/v1/posts", 503, zerolog.ErrorLevel},
		{"/api/v1/health/live", 200, zerolog.DebugLevel},
		{"/metrics", 200, zerolog.DebugLevel},
		{"/api/v1/health/ready", 503, zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		if got := accessLevel(tt.path, tt.status); got != tt.want {
			t.Errorf("accessLevel(%q, %d) = %v, want %v", tt.path, tt.status, got, tt.want)
		}
	}
}

func TestAccessLog_WritesRequestLine(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() {
		logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
	})

	handler := RequestID(AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nope"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/missing", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	line := strings.TrimSpace(buf.String())
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, line)
	}

	checks := map[string]interface{}{
		"level":      "warn",
		"method":     "GET",
		"path":       "/api/v1/posts/missing",
		"status":     float64(404),
		"bytes":      float64(4),
		"request_id": "req-42",
		"message":    "http request",
	}
	for key, want := range checks {
		if entry[key] != want {
			t.Errorf("%s = %v, want %v", key, entry[key], want)
		}
	}
}
