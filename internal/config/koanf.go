// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/indieforge/config.yaml",
	"/etc/indieforge/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/indieforge.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Store: StoreConfig{
			Path: "/data/store",
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Security: SecurityConfig{
			AuthMode:          "jwt",
			SessionTimeout:    7 * 24 * time.Hour,
			CookieSecure:      true,
			AdminNickname:     "admin",
			RateLimitReqs:     120,
			RateLimitWindow:   time.Minute,
			AuthRateLimitReqs: 10,
			CORSOrigins:       []string{"*"},
			Casbin: CasbinConfig{
				DefaultRole:  "user",
				CacheEnabled: true,
				CacheTTL:     5 * time.Minute,
			},
		},
		Ranking: RankingConfig{
			ViewWeight:         1,
			UpvoteWeight:       10,
			CommentWeight:      5,
			Debounce:           10 * time.Second,
			Schedule:           "*/15 * * * *",
			CacheTTL:           time.Minute,
			RecomputeOnStartup: true,
		},
		Forum: ForumConfig{
			ViewDedupeWindow:     30 * time.Minute,
			MaxCommentDepth:      5,
			WhisperRatePerMinute: 10,
			WhisperBurst:         5,
		},
		Media: MediaConfig{
			Backend:            "badger",
			MaxUploadBytes:     10 << 20,
			MaxPixels:          40_000_000,
			MaxDimension:       1600,
			ThumbDimension:     320,
			JPEGQuality:        85,
			GCSPrefix:          "media",
			BreakerMaxFailures: 5,
			BreakerTimeout:     30 * time.Second,
		},
		Events: EventsConfig{
			BufferSize:           256,
			RetryMaxRetries:      3,
			RetryInitialInterval: 100 * time.Millisecond,
			PoisonTopic:          "events.poison",
			CloseTimeout:         10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 512,
			Retention:  180 * 24 * time.Hour,
		},
		Firestore: FirestoreConfig{
			BatchSize: 200,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf layers defaults, the config file and the environment, then
// validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma separated env values for slice fields.
// Values coming from YAML are already slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			continue
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Variables that are not listed are ignored so unrelated process env does
// not leak into the config tree.
var envMappings = map[string]string{
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",
	"seed_demo_data":    "database.seed_demo_data",

	"store_path":      "store.path",
	"store_in_memory": "store.in_memory",

	"api_default_page_size": "api.default_page_size",
	"api_max_page_size":     "api.max_page_size",

	"auth_mode":                "security.auth_mode",
	"jwt_secret":               "security.jwt_secret",
	"session_timeout":          "security.session_timeout",
	"cookie_secure":            "security.cookie_secure",
	"admin_email":              "security.admin_email",
	"admin_password":           "security.admin_password",
	"admin_nickname":           "security.admin_nickname",
	"rate_limit_requests":      "security.rate_limit_requests",
	"rate_limit_window":        "security.rate_limit_window",
	"auth_rate_limit_requests": "security.auth_rate_limit_requests",
	"disable_rate_limit":       "security.rate_limit_disabled",
	"cors_origins":             "security.cors_origins",
	"casbin_default_role":      "security.casbin.default_role",
	"casbin_cache_enabled":     "security.casbin.cache_enabled",
	"casbin_cache_ttl":         "security.casbin.cache_ttl",

	"ranking_view_weight":          "ranking.view_weight",
	"ranking_upvote_weight":        "ranking.upvote_weight",
	"ranking_comment_weight":       "ranking.comment_weight",
	"ranking_debounce":             "ranking.debounce",
	"ranking_schedule":             "ranking.schedule",
	"ranking_cache_ttl":            "ranking.cache_ttl",
	"ranking_recompute_on_startup": "ranking.recompute_on_startup",

	"view_dedupe_window":      "forum.view_dedupe_window",
	"max_comment_depth":       "forum.max_comment_depth",
	"whisper_rate_per_minute": "forum.whisper_rate_per_minute",
	"whisper_burst":           "forum.whisper_burst",

	"media_backend":              "media.backend",
	"media_max_upload_bytes":     "media.max_upload_bytes",
	"media_max_pixels":           "media.max_pixels",
	"media_max_dimension":        "media.max_dimension",
	"media_thumb_dimension":      "media.thumb_dimension",
	"media_jpeg_quality":         "media.jpeg_quality",
	"media_gcs_bucket":           "media.gcs_bucket",
	"media_gcs_prefix":           "media.gcs_prefix",
	"media_gcs_credentials_file": "media.gcs_credentials_file",

	"events_buffer_size":  "events.buffer_size",
	"events_retry_max":    "events.retry_max_retries",
	"events_poison_topic": "events.poison_topic",

	"audit_enabled":   "audit.enabled",
	"audit_retention": "audit.retention",

	"firestore_project_id":       "firestore.project_id",
	"firestore_credentials_file": "firestore.credentials_file",
	"firestore_batch_size":       "firestore.batch_size",
	"firestore_dry_run":          "firestore.dry_run",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps JWT_SECRET to security.jwt_secret and so on.
// Unmapped keys return "" which koanf skips.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
