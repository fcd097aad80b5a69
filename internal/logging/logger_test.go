// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// captureGlobal swaps the global logger for one writing to a buffer and
// restores the previous logger and level when the test ends.
func captureGlobal(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	SetLogger(NewTestLogger(&buf))
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func decodeLine(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return m
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{" warn ", zerolog.WarnLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInit_JSONOutput(t *testing.T) {
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	defer func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	}()

	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	Debug().Str("post_id", "p1").Msg("post loaded")

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["message"] != "post loaded" {
		t.Errorf("message = %v", m["message"])
	}
	if m["level"] != "debug" {
		t.Errorf("level = %v", m["level"])
	}
	if m["post_id"] != "p1" {
		t.Errorf("post_id = %v", m["post_id"])
	}
	if _, ok := m["time"]; !ok {
		t.Error("expected time field")
	}
}

func TestInit_LevelFilters(t *testing.T) {
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	defer func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	}()

	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	Info().Msg("hidden")
	Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info event should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn event should be written")
	}
	if IsLevelEnabled(zerolog.InfoLevel) {
		t.Error("IsLevelEnabled(info) should be false at warn")
	}
}

func TestCtx_AddsContextFields(t *testing.T) {
	buf := captureGlobal(t)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	ctx = ContextWithUserID(ctx, "user-1")
	Ctx(ctx).Info().Msg("hello")

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	for key, want := range map[string]string{
		"request_id":     "req-1",
		"correlation_id": "corr-1",
		"user_id":        "user-1",
	} {
		if m[key] != want {
			t.Errorf("%s = %v, want %s", key, m[key], want)
		}
	}
}

func TestCtx_EmptyContext(t *testing.T) {
	buf := captureGlobal(t)
	Ctx(context.Background()).Info().Msg("plain")

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if _, ok := m["request_id"]; ok {
		t.Error("request_id should be absent")
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Error("expected empty request id")
	}
}

func TestGenerateIDs(t *testing.T) {
	if got := len(GenerateCorrelationID()); got != 8 {
		t.Errorf("correlation id length = %d, want 8", got)
	}
	a, b := GenerateRequestID(), GenerateRequestID()
	if a == b {
		t.Error("request ids should be unique")
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(NewTestLogger(&buf)))

	logger.With("service", "api").WithGroup("http").Warn("restarting",
		"attempt", 3,
		"err", errors.New("boom"),
	)

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["level"] != "warn" {
		t.Errorf("level = %v", m["level"])
	}
	if m["service"] != "api" {
		t.Errorf("service = %v", m["service"])
	}
	if m["http.attempt"] != float64(3) {
		t.Errorf("http.attempt = %v", m["http.attempt"])
	}
	if m["http.err"] != "boom" {
		t.Errorf("http.err = %v", m["http.err"])
	}
}

func TestSlogHandler_GroupsApplyToLaterAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(NewTestLogger(&buf)))

	logger.WithGroup("tree").With("layer", "data").WithGroup("svc").With("name", "bus").
		Info("started", "restarts", 0)

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	for key, want := range map[string]interface{}{
		"tree.layer":        "data",
		"tree.svc.name":     "bus",
		"tree.svc.restarts": float64(0),
	} {
		if m[key] != want {
			t.Errorf("%s = %v, want %v", key, m[key], want)
		}
	}
	if _, ok := m["tree.svc.layer"]; ok {
		t.Error("attr added before a group must not be nested in it")
	}
}

func TestSlogToZerolog(t *testing.T) {
	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := slogToZerolog(tt.in); got != tt.want {
			t.Errorf("slogToZerolog(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWatermillAdapter(t *testing.T) {
	buf := captureGlobal(t)

	adapter := NewWatermillAdapter().With(watermill.LogFields{"topic": "post.created"})
	adapter.Error("handler failed", errors.New("db down"), watermill.LogFields{"attempt": 2})

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["component"] != "events" {
		t.Errorf("component = %v", m["component"])
	}
	if m["topic"] != "post.created" {
		t.Errorf("topic = %v", m["topic"])
	}
	if m["error"] != "db down" {
		t.Errorf("error = %v", m["error"])
	}
	if m["attempt"] != float64(2) {
		t.Errorf("attempt = %v", m["attempt"])
	}
}
