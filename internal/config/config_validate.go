// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateAPI,
		c.validateSecurity,
		c.validateRanking,
		c.validateForum,
		c.validateMedia,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("STORE_PATH is required unless STORE_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be at least 1")
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE must be >= API_DEFAULT_PAGE_SIZE")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "jwt":
		if err := c.validateJWTSecret(); err != nil {
			return err
		}
	case "none":
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be one of: jwt, none")
	}

	if c.Security.SessionTimeout < time.Minute {
		return fmt.Errorf("SESSION_TIMEOUT must be at least 1m")
	}
	if err := c.validateAdminBootstrap(); err != nil {
		return err
	}
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS=* is not allowed in production; list the allowed origins")
	}
	return nil
}

func (c *Config) validateJWTSecret() error {
	secret := c.Security.JWTSecret
	if secret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if containsPlaceholder(secret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate one with: openssl rand -base64 32")
	}
	return nil
}

func (c *Config) validateAdminBootstrap() error {
	email, pw := c.Security.AdminEmail, c.Security.AdminPassword
	if email == "" && pw == "" {
		return nil
	}
	if email == "" || pw == "" {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("ADMIN_EMAIL is not an email address")
	}
	if len(pw) < 12 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 12 characters")
	}
	if containsPlaceholder(pw) {
		return fmt.Errorf("ADMIN_PASSWORD contains a placeholder value - set a real password")
	}
	return nil
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 || c.Security.RateLimitReqs > 100000 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between 1 and 100000")
	}
	if c.Security.AuthRateLimitReqs < 1 {
		return fmt.Errorf("AUTH_RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow < time.Second || c.Security.RateLimitWindow > time.Hour {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between 1s and 1h")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, o := range c.Security.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (c *Config) validateRanking() error {
	r := c.Ranking
	if r.ViewWeight < 0 || r.UpvoteWeight < 0 || r.CommentWeight < 0 {
		return fmt.Errorf("RANKING_*_WEIGHT values must not be negative")
	}
	if r.ViewWeight+r.UpvoteWeight+r.CommentWeight == 0 {
		return fmt.Errorf("at least one RANKING_*_WEIGHT must be positive")
	}
	if r.Debounce < 0 {
		return fmt.Errorf("RANKING_DEBOUNCE must not be negative")
	}
	if r.Schedule != "" {
		if _, err := cron.ParseStandard(r.Schedule); err != nil {
			return fmt.Errorf("RANKING_SCHEDULE is not a valid cron expression: %w", err)
		}
	}
	return nil
}

func (c *Config) validateForum() error {
	f := c.Forum
	if f.MaxCommentDepth < 1 || f.MaxCommentDepth > 20 {
		return fmt.Errorf("MAX_COMMENT_DEPTH must be between 1 and 20")
	}
	if f.WhisperRatePerMinute <= 0 {
		return fmt.Errorf("WHISPER_RATE_PER_MINUTE must be positive")
	}
	if f.WhisperBurst < 1 {
		return fmt.Errorf("WHISPER_BURST must be at least 1")
	}
	if f.ViewDedupeWindow < 0 {
		return fmt.Errorf("VIEW_DEDUPE_WINDOW must not be negative")
	}
	return nil
}

func (c *Config) validateMedia() error {
	m := c.Media
	switch m.Backend {
	case "badger":
	case "gcs":
		if m.GCSBucket == "" {
			return fmt.Errorf("MEDIA_GCS_BUCKET is required when MEDIA_BACKEND=gcs")
		}
	default:
		return fmt.Errorf("MEDIA_BACKEND must be one of: badger, gcs")
	}
	if m.MaxUploadBytes < 1024 {
		return fmt.Errorf("MEDIA_MAX_UPLOAD_BYTES must be at least 1024")
	}
	if m.ThumbDimension < 16 || m.MaxDimension < m.ThumbDimension {
		return fmt.Errorf("MEDIA_THUMB_DIMENSION must be >= 16 and <= MEDIA_MAX_DIMENSION")
	}
	if m.JPEGQuality < 1 || m.JPEGQuality > 100 {
		return fmt.Errorf("MEDIA_JPEG_QUALITY must be between 1 and 100")
	}
	return nil
}

var (
	validLogLevels  = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
)

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"YOUR_PASSWORD",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, p := range placeholderPatterns {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}
