// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "indieforge_db_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indieforge_db_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indieforge_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "indieforge_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "indieforge_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Forum activity
	ForumActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indieforge_forum_actions_total",
			Help: "Forum write actions by kind and outcome",
		},
		[]string{"action", "outcome"},
	)

	PostViews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indieforge_post_views_total",
			Help: "Post detail reads, split by whether the view was counted",
		},
		[]string{"counted"},
	)

	// Ranking
	RankingRecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "indieforge_ranking_recompute_duration_seconds",
			Help:    "Duration of full ranking recomputes",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	RankingRecomputes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indieforge_ranking_recomputes_total",
			Help: "Ranking recomputes by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	RankingLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "indieforge_ranking_last_success_timestamp_seconds",
			Help: "Unix time of the last successful ranking recompute",
		},
	)

	// Cache
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indieforge_cache_lookups_total",
			Help: "Cache lookups by cache name and result",
		},
		[]string{"cache", "result"},
	)

	// WebSocket
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "indieforge_websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indieforge_websocket_messages_sent_total",
			Help: "WebSocket messages sent by message type",
		},
		[]string{"type"},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indieforge_websocket_messages_dropped_total",
			Help: "WebSocket messages dropped because a client buffer was full",
		},
	)

	// Events
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indieforge_events_published_total",
			Help: "Domain events published by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indieforge_events_handled_total",
			Help: "Domain events handled by handler and outcome",
		},
		[]string{"handler", "outcome"},
	)

	// Media
	MediaStoredBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indieforge_media_stored_bytes_total",
			Help: "Bytes written to the media backend by variant",
		},
		[]string{"backend", "variant"},
	)

	MediaUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indieforge_media_uploads_total",
			Help: "Image uploads by outcome",
		},
		[]string{"outcome"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "indieforge_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	BreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indieforge_circuit_breaker_requests_total",
			Help: "Calls through a circuit breaker by result (success, failure, rejected)",
		},
		[]string{"name", "result"},
	)

	// Import
	ImportRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indieforge_import_records_total",
			Help: "Records read from the legacy Firestore project by collection and outcome",
		},
		[]string{"collection", "outcome"},
	)

	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "indieforge_app_info",
			Help: "Build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery observes a query duration and counts failures.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table, classifyError(err)).Inc()
	}
}

// classifyError keeps the error_type label low-cardinality.
func classifyError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "context deadline exceeded"):
		return "timeout"
	case strings.Contains(msg, "context canceled"):
		return "canceled"
	case strings.Contains(msg, "constraint"), strings.Contains(msg, "duplicate key"):
		return "constraint"
	case strings.Contains(msg, "conflict"):
		return "conflict"
	case strings.Contains(msg, "no rows"):
		return "not_found"
	default:
		return "other"
	}
}

// RecordAPIRequest records a finished HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest moves the in-flight gauge up or down.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordForumAction counts a forum write (post, comment, whisper, upvote...).
func RecordForumAction(action string, err error) {
	ForumActions.WithLabelValues(action, outcome(err)).Inc()
}

// RecordRankingRecompute records one recompute run.
func RecordRankingRecompute(trigger string, duration time.Duration, err error) {
	RankingRecomputes.WithLabelValues(trigger, outcome(err)).Inc()
	if err != nil {
		return
	}
	RankingRecomputeDuration.Observe(duration.Seconds())
	RankingLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordMediaUpload counts an upload and the bytes written per variant.
func RecordMediaUpload(backend string, fullBytes, thumbBytes int, err error) {
	MediaUploads.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return
	}
	MediaStoredBytes.WithLabelValues(backend, "full").Add(float64(fullBytes))
	MediaStoredBytes.WithLabelValues(backend, "thumb").Add(float64(thumbBytes))
}

// RecordCacheLookup counts a hit or miss on a named cache.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
