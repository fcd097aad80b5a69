// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = testSecret
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults with secret", mutate: func(c *Config) {}},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "short secret",
			mutate:  func(c *Config) { c.Security.JWTSecret = "short" },
			wantErr: "at least 32",
		},
		{
			name:    "placeholder secret",
			mutate:  func(c *Config) { c.Security.JWTSecret = "CHANGEME-CHANGEME-CHANGEME-CHANGEME" },
			wantErr: "placeholder",
		},
		{
			name:    "unknown auth mode",
			mutate:  func(c *Config) { c.Security.AuthMode = "oidc" },
			wantErr: "AUTH_MODE",
		},
		{
			name: "auth none in development",
			mutate: func(c *Config) {
				c.Security.AuthMode = "none"
				c.Security.JWTSecret = ""
			},
		},
		{
			name: "auth none in production",
			mutate: func(c *Config) {
				c.Security.AuthMode = "none"
				c.Server.Environment = "production"
			},
			wantErr: "AUTH_MODE=none",
		},
		{
			name: "wildcard cors in production",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
			},
			wantErr: "CORS_ORIGINS",
		},
		{
			name:    "admin email without password",
			mutate:  func(c *Config) { c.Security.AdminEmail = "root@example.org" },
			wantErr: "set together",
		},
		{
			name: "admin password too short",
			mutate: func(c *Config) {
				c.Security.AdminEmail = "root@example.org"
				c.Security.AdminPassword = "short"
			},
			wantErr: "ADMIN_PASSWORD",
		},
		{
			name:    "negative weight",
			mutate:  func(c *Config) { c.Ranking.ViewWeight = -1 },
			wantErr: "WEIGHT",
		},
		{
			name: "all weights zero",
			mutate: func(c *Config) {
				c.Ranking.ViewWeight, c.Ranking.UpvoteWeight, c.Ranking.CommentWeight = 0, 0, 0
			},
			wantErr: "positive",
		},
		{
			name:    "bad cron",
			mutate:  func(c *Config) { c.Ranking.Schedule = "every tuesday" },
			wantErr: "RANKING_SCHEDULE",
		},
		{
			name:   "empty schedule disables cron",
			mutate: func(c *Config) { c.Ranking.Schedule = "" },
		},
		{
			name:    "comment depth zero",
			mutate:  func(c *Config) { c.Forum.MaxCommentDepth = 0 },
			wantErr: "MAX_COMMENT_DEPTH",
		},
		{
			name:    "gcs without bucket",
			mutate:  func(c *Config) { c.Media.Backend = "gcs" },
			wantErr: "MEDIA_GCS_BUCKET",
		},
		{
			name:    "thumb larger than max",
			mutate:  func(c *Config) { c.Media.ThumbDimension = 4000 },
			wantErr: "MEDIA_THUMB_DIMENSION",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "LOG_LEVEL",
		},
		{
			name:    "page sizes inverted",
			mutate:  func(c *Config) { c.API.MaxPageSize = 5 },
			wantErr: "API_MAX_PAGE_SIZE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvironmentHelpers(t *testing.T) {
	cfg := validConfig()
	for _, env := range []string{"production", "PROD"} {
		cfg.Server.Environment = env
		if !cfg.IsProduction() || cfg.IsDevelopment() {
			t.Errorf("%q should be production", env)
		}
	}
	for _, env := range []string{"", "dev", "development"} {
		cfg.Server.Environment = env
		if cfg.IsProduction() || !cfg.IsDevelopment() {
			t.Errorf("%q should be development", env)
		}
	}
}
