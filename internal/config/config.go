// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

// Package config loads IndieForge configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import (
	"time"
)

// Config is the root configuration object.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Store     StoreConfig     `koanf:"store"`
	API       APIConfig       `koanf:"api"`
	Security  SecurityConfig  `koanf:"security"`
	Ranking   RankingConfig   `koanf:"ranking"`
	Forum     ForumConfig     `koanf:"forum"`
	Media     MediaConfig     `koanf:"media"`
	Events    EventsConfig    `koanf:"events"`
	Audit     AuditConfig     `koanf:"audit"`
	Firestore FirestoreConfig `koanf:"firestore"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path         string `koanf:"path"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"`
	SeedDemoData bool   `koanf:"seed_demo_data"`

	// SkipIndexes is used by tests to speed up :memory: databases.
	SkipIndexes bool `koanf:"skip_indexes"`
}

// StoreConfig holds the BadgerDB key-value store used for token
// revocation, media blobs and import progress.
type StoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// APIConfig holds pagination limits.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication and rate limiting settings.
type SecurityConfig struct {
	// AuthMode is jwt or none. none lets every request through as an
	// anonymous admin and is refused in production.
	AuthMode       string        `koanf:"auth_mode"`
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	CookieSecure   bool          `koanf:"cookie_secure"`

	// Bootstrap admin account, created at startup when missing.
	AdminEmail    string `koanf:"admin_email"`
	AdminPassword string `koanf:"admin_password"`
	AdminNickname string `koanf:"admin_nickname"`

	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	AuthRateLimitReqs int           `koanf:"auth_rate_limit_requests"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	CORSOrigins []string `koanf:"cors_origins"`

	Casbin CasbinConfig `koanf:"casbin"`
}

// CasbinConfig holds the RBAC enforcer settings.
type CasbinConfig struct {
	DefaultRole  string        `koanf:"default_role"`
	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
}

// RankingConfig holds the post score weights and recompute schedule.
type RankingConfig struct {
	ViewWeight    float64 `koanf:"view_weight"`
	UpvoteWeight  float64 `koanf:"upvote_weight"`
	CommentWeight float64 `koanf:"comment_weight"`

	// Debounce coalesces event-triggered recomputes.
	Debounce time.Duration `koanf:"debounce"`

	// Schedule is a five-field cron expression for full recomputes.
	// Empty disables the schedule.
	Schedule string `koanf:"schedule"`

	CacheTTL           time.Duration `koanf:"cache_ttl"`
	RecomputeOnStartup bool          `koanf:"recompute_on_startup"`
}

// ForumConfig holds posting limits.
type ForumConfig struct {
	ViewDedupeWindow     time.Duration `koanf:"view_dedupe_window"`
	MaxCommentDepth      int           `koanf:"max_comment_depth"`
	WhisperRatePerMinute float64       `koanf:"whisper_rate_per_minute"`
	WhisperBurst         int           `koanf:"whisper_burst"`
}

// MediaConfig holds image upload settings.
type MediaConfig struct {
	// Backend is badger or gcs.
	Backend        string `koanf:"backend"`
	MaxUploadBytes int64  `koanf:"max_upload_bytes"`
	MaxPixels      int    `koanf:"max_pixels"`
	MaxDimension   int    `koanf:"max_dimension"`
	ThumbDimension int    `koanf:"thumb_dimension"`
	JPEGQuality    int    `koanf:"jpeg_quality"`

	GCSBucket          string `koanf:"gcs_bucket"`
	GCSPrefix          string `koanf:"gcs_prefix"`
	GCSCredentialsFile string `koanf:"gcs_credentials_file"`

	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// EventsConfig holds the in-process event bus settings.
type EventsConfig struct {
	BufferSize           int64         `koanf:"buffer_size"`
	RetryMaxRetries      int           `koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	PoisonTopic          string        `koanf:"poison_topic"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`
}

// AuditConfig holds admin audit log settings.
type AuditConfig struct {
	Enabled    bool          `koanf:"enabled"`
	BufferSize int           `koanf:"buffer_size"`
	Retention  time.Duration `koanf:"retention"`
}

// FirestoreConfig points the importer at the legacy Firestore project.
type FirestoreConfig struct {
	ProjectID       string `koanf:"project_id"`
	CredentialsFile string `koanf:"credentials_file"`
	BatchSize       int    `koanf:"batch_size"`
	DryRun          bool   `koanf:"dry_run"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from all sources and validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
