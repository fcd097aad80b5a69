// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package audit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/indieforge/internal/config"
	"github.com/tomtom215/indieforge/internal/logging"
)

// Config holds configuration for the audit logger.
type Config struct {
	Enabled         bool
	BufferSize      int
	Retention       time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig returns the logger defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		BufferSize:      512,
		Retention:       180 * 24 * time.Hour,
		CleanupInterval: 24 * time.Hour,
	}
}

// ConfigFrom converts the audit section of the application config.
func ConfigFrom(cfg *config.AuditConfig) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	c.Enabled = cfg.Enabled
	if cfg.BufferSize > 0 {
		c.BufferSize = cfg.BufferSize
	}
	if cfg.Retention > 0 {
		c.Retention = cfg.Retention
	}
	return c
}

// Logger is the main audit logging service.
type Logger struct {
	config    *Config
	store     Store
	eventChan chan *Event
	stopChan  chan struct{}
	stopOnce  sync.Once
	closed    atomic.Bool
	wg        sync.WaitGroup
}

// NewLogger creates an audit logger and starts its writer.
func NewLogger(store Store, cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 512
	}

	l := &Logger{
		config:    cfg,
		store:     store,
		eventChan: make(chan *Event, cfg.BufferSize),
		stopChan:  make(chan struct{}),
	}

	l.wg.Add(1)
	go l.asyncWriter()
	return l
}

// asyncWriter processes events from the buffer until Close, then drains it.
func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.eventChan:
			l.writeEvent(event)
		}
	}
}

func (l *Logger) writeEvent(event *Event) {
	if l.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).Str("event_id", event.ID).Msg("failed to save audit event")
	}
}

// Log records an audit event. It never blocks; events are dropped with a
// warning when the buffer is full.
func (l *Logger) Log(event *Event) {
	if l == nil || !l.config.Enabled || l.closed.Load() {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case l.eventChan <- event:
	default:
		logging.Warn().Str("event_id", event.ID).Str("type", string(event.Type)).Msg("audit event buffer full, dropping event")
	}
}

// Close stops the writer after flushing buffered events.
func (l *Logger) Close() error {
	l.stopOnce.Do(func() {
		l.closed.Store(true)
		close(l.stopChan)
	})
	l.wg.Wait()
	return nil
}

// String names the retention loop in supervisor logs.
func (l *Logger) String() string {
	return "audit-retention"
}

// Serve deletes events older than the retention period once per cleanup
// interval until ctx is canceled. It implements suture.Service.
func (l *Logger) Serve(ctx context.Context) error {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Cleanup(ctx)
		}
	}
}

// Cleanup runs one retention pass and returns the number of deleted events.
func (l *Logger) Cleanup(ctx context.Context) int64 {
	if l.store == nil || l.config.Retention <= 0 {
		return 0
	}
	cutoff := time.Now().UTC().Add(-l.config.Retention)
	count, err := l.store.Delete(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).Msg("audit cleanup error")
		return 0
	}
	if count > 0 {
		logging.Info().Int64("count", count).Msg("cleaned up old audit events")
	}
	return count
}

// Query retrieves events matching the filter.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Count returns the number of events matching the filter.
func (l *Logger) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return l.store.Count(ctx, filter)
}

// Enabled returns whether audit logging is enabled.
func (l *Logger) Enabled() bool {
	return l != nil && l.config.Enabled
}

// LogSignup records a new account.
func (l *Logger) LogSignup(ctx context.Context, actor Actor) {
	l.Log(&Event{
		Type:        EventTypeSignup,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Source:      SourceFromContext(ctx),
		Action:      "signup",
		Description: "Account created",
		RequestID:   logging.RequestIDFromContext(ctx),
	})
}

// LogAuthSuccess records a successful login.
func (l *Logger) LogAuthSuccess(ctx context.Context, actor Actor) {
	l.Log(&Event{
		Type:        EventTypeAuthSuccess,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Source:      SourceFromContext(ctx),
		Action:      "authenticate",
		Description: "User authenticated successfully",
		RequestID:   logging.RequestIDFromContext(ctx),
	})
}

// LogAuthFailure records a failed login attempt for email.
func (l *Logger) LogAuthFailure(ctx context.Context, email, reason string) {
	l.Log(&Event{
		Type:        EventTypeAuthFailure,
		Severity:    SeverityWarning,
		Outcome:     OutcomeFailure,
		Actor:       Actor{ID: strings.ToLower(email), Type: "anonymous"},
		Source:      SourceFromContext(ctx),
		Action:      "authenticate",
		Description: "Authentication failed: " + reason,
		Metadata:    mustJSON(map[string]string{"reason": reason}),
		RequestID:   logging.RequestIDFromContext(ctx),
	})
}

// LogLogout records a logout and the revoked token ID.
func (l *Logger) LogLogout(ctx context.Context, actor Actor, tokenID string) {
	l.Log(&Event{
		Type:        EventTypeLogout,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Source:      SourceFromContext(ctx),
		Action:      "logout",
		Target:      &Target{ID: tokenID, Type: "token"},
		Description: "User logged out",
		RequestID:   logging.RequestIDFromContext(ctx),
	})
}

// LogAuthzDenied records a request rejected by the policy enforcer.
func (l *Logger) LogAuthzDenied(ctx context.Context, actor Actor, resource, action string) {
	l.Log(&Event{
		Type:        EventTypeAuthzDenied,
		Severity:    SeverityWarning,
		Outcome:     OutcomeFailure,
		Actor:       actor,
		Source:      SourceFromContext(ctx),
		Action:      "authorize",
		Target:      &Target{ID: resource, Type: "resource"},
		Description: "Authorization denied for " + action + " on " + resource,
		Metadata: mustJSON(map[string]string{
			"resource":         resource,
			"requested_action": action,
		}),
		RequestID: logging.RequestIDFromContext(ctx),
	})
}

// LogAdminAction records a moderator action on target.
func (l *Logger) LogAdminAction(ctx context.Context, actor Actor, action string, target *Target, description string, metadata map[string]interface{}) {
	l.Log(&Event{
		Type:        EventTypeAdminAction,
		Severity:    SeverityWarning,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Target:      target,
		Source:      SourceFromContext(ctx),
		Action:      action,
		Description: description,
		Metadata:    mustJSON(metadata),
		RequestID:   logging.RequestIDFromContext(ctx),
	})
}

// mustJSON converts a value to JSON, returning an empty object on error.
func mustJSON(v interface{}) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}

type contextKey string

const sourceKey contextKey = "audit_source"

// ContextWithSource attaches the request origin to ctx so events logged
// deeper in the call stack carry it.
func ContextWithSource(ctx context.Context, source Source) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

// SourceFromContext returns the Source stored by ContextWithSource.
func SourceFromContext(ctx context.Context) Source {
	if ctx == nil {
		return Source{}
	}
	if s, ok := ctx.Value(sourceKey).(Source); ok {
		return s
	}
	return Source{}
}

// SourceFromRequest creates a Source from an HTTP request. The first
// X-Forwarded-For hop wins over X-Real-IP and the socket address.
func SourceFromRequest(r *http.Request) Source {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip = strings.TrimSpace(strings.Split(xff, ",")[0])
	} else if xri := r.Header.Get("X-Real-IP"); xri != "" {
		ip = strings.TrimSpace(xri)
	}
	return Source{IPAddress: ip, UserAgent: r.UserAgent()}
}

// UserActor creates an Actor for a forum account.
func UserActor(id, nickname, role string) Actor {
	return Actor{ID: id, Type: "user", Name: nickname, Role: role}
}

// SystemActor returns an Actor representing the server itself.
func SystemActor() Actor {
	return Actor{ID: "system", Type: "system", Name: "IndieForge"}
}
