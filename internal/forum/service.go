// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

// Package forum implements the forum's use cases on top of the database:
// channels, posts, comment trees, whispers, profiles, inquiries, rankings
// and the moderator actions of the admin dashboard.
//
// Operations take the calling *models.Actor (nil for anonymous visitors)
// and return sentinel errors the HTTP layer maps to status codes. Side
// effects that other subsystems care about are published as events; a
// failed publish is logged and never fails the operation.
package forum

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/indieforge/internal/audit"
	"github.com/tomtom215/indieforge/internal/cache"
	"github.com/tomtom215/indieforge/internal/config"
	"github.com/tomtom215/indieforge/internal/database"
	"github.com/tomtom215/indieforge/internal/events"
	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/models"
	"github.com/tomtom215/indieforge/internal/ranking"
)

var (
	ErrNotFound        = database.ErrNotFound
	ErrConflict        = database.ErrConflict
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrBanned          = errors.New("account is banned")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidParent   = errors.New("parent comment does not belong to this post")
	ErrSelfWhisper     = errors.New("cannot whisper to yourself")
	ErrRateLimited     = errors.New("rate limit exceeded")
)

// AdminAuditor records moderator actions. *audit.Logger implements it.
type AdminAuditor interface {
	LogAdminAction(ctx context.Context, actor audit.Actor, action string, target *audit.Target, description string, metadata map[string]interface{})
}

// Options tunes the service. Zero values fall back to the defaults of
// DefaultOptions.
type Options struct {
	DefaultPageSize      int
	MaxPageSize          int
	MaxCommentDepth      int
	ViewDedupeWindow     time.Duration
	WhisperRatePerMinute float64
	WhisperBurst         int
	RankingCacheTTL      time.Duration
	Weights              ranking.Weights
}

// DefaultOptions returns the options used when no config is given.
func DefaultOptions() Options {
	return Options{
		DefaultPageSize:      20,
		MaxPageSize:          100,
		MaxCommentDepth:      5,
		ViewDedupeWindow:     30 * time.Minute,
		WhisperRatePerMinute: 10,
		WhisperBurst:         5,
		RankingCacheTTL:      time.Minute,
		Weights:              ranking.DefaultWeights(),
	}
}

// OptionsFrom builds Options from the application config.
func OptionsFrom(cfg *config.Config) Options {
	o := DefaultOptions()
	if cfg == nil {
		return o
	}
	if cfg.API.DefaultPageSize > 0 {
		o.DefaultPageSize = cfg.API.DefaultPageSize
	}
	if cfg.API.MaxPageSize > 0 {
		o.MaxPageSize = cfg.API.MaxPageSize
	}
	if cfg.Forum.MaxCommentDepth > 0 {
		o.MaxCommentDepth = cfg.Forum.MaxCommentDepth
	}
	if cfg.Forum.ViewDedupeWindow > 0 {
		o.ViewDedupeWindow = cfg.Forum.ViewDedupeWindow
	}
	if cfg.Forum.WhisperRatePerMinute > 0 {
		o.WhisperRatePerMinute = cfg.Forum.WhisperRatePerMinute
	}
	if cfg.Forum.WhisperBurst > 0 {
		o.WhisperBurst = cfg.Forum.WhisperBurst
	}
	if cfg.Ranking.CacheTTL > 0 {
		o.RankingCacheTTL = cfg.Ranking.CacheTTL
	}
	o.Weights = ranking.WeightsFromConfig(&cfg.Ranking)
	return o
}

// Service is the forum's application layer.
type Service struct {
	db       *database.DB
	events   events.Publisher
	auditor  AdminAuditor
	opts     Options
	views    *cache.LRUSet
	rankings *cache.Cache
	whispers *limiterSet

	// recomputeMu serializes ranking recomputes.
	recomputeMu sync.Mutex
}

// NewService creates the forum service. publisher and auditor may be nil.
func NewService(db *database.DB, publisher events.Publisher, auditor AdminAuditor, opts Options) *Service {
	def := DefaultOptions()
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = def.DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = def.MaxPageSize
	}
	if opts.MaxCommentDepth <= 0 {
		opts.MaxCommentDepth = def.MaxCommentDepth
	}
	if opts.WhisperRatePerMinute <= 0 {
		opts.WhisperRatePerMinute = def.WhisperRatePerMinute
	}
	if opts.WhisperBurst <= 0 {
		opts.WhisperBurst = def.WhisperBurst
	}
	if opts.Weights == (ranking.Weights{}) {
		opts.Weights = def.Weights
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &Service{
		db:       db,
		events:   publisher,
		auditor:  auditor,
		opts:     opts,
		views:    cache.NewLRUSet("post_views", 0, opts.ViewDedupeWindow),
		rankings: cache.New("rankings", opts.RankingCacheTTL),
		whispers: newLimiterSet(opts.WhisperRatePerMinute, opts.WhisperBurst),
	}
}

// Close stops the service's background cache cleanup.
func (s *Service) Close() {
	s.rankings.Close()
}

// Options returns the effective options.
func (s *Service) Options() Options {
	return s.opts
}

// page clamps offset and limit to the configured page sizes.
func (s *Service) page(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = s.opts.DefaultPageSize
	}
	if limit > s.opts.MaxPageSize {
		limit = s.opts.MaxPageSize
	}
	return offset, limit
}

// activeUser loads the caller's account and rejects anonymous and banned
// callers.
func (s *Service) activeUser(ctx context.Context, actor *models.Actor) (*models.User, error) {
	u, err := s.currentUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	if u.Banned {
		return nil, ErrBanned
	}
	return u, nil
}

// currentUser loads the caller's account. Banned users are allowed.
func (s *Service) currentUser(ctx context.Context, actor *models.Actor) (*models.User, error) {
	if actor == nil || actor.ID == "" {
		return nil, ErrUnauthenticated
	}
	u, err := s.db.GetUser(ctx, actor.ID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// requireAdmin loads the caller and checks the stored role, so a demoted
// admin loses access before their token expires.
func (s *Service) requireAdmin(ctx context.Context, actor *models.Actor) (*models.User, error) {
	u, err := s.activeUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, ErrForbidden
	}
	return u, nil
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", ev.Topic()).Msg("failed to publish forum event")
	}
}

func (s *Service) auditAdmin(ctx context.Context, admin *models.User, action, targetType, targetID, description string, metadata map[string]interface{}) {
	if s.auditor == nil {
		return
	}
	s.auditor.LogAdminAction(ctx, audit.UserActor(admin.ID, admin.Nickname, admin.Role), action,
		&audit.Target{ID: targetID, Type: targetType}, description, metadata)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
