// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package forum

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/indieforge/internal/database"
	"github.com/tomtom215/indieforge/internal/events"
	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/metrics"
	"github.com/tomtom215/indieforge/internal/models"
	"github.com/tomtom215/indieforge/internal/ranking"
)

// Recompute triggers.
const (
	TriggerStartup  = "startup"
	TriggerEvents   = "events"
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerImport   = "import"
)

// CategoryRanking returns the ranking table of one category, best first.
func (s *Service) CategoryRanking(ctx context.Context, category string, limit int) ([]models.CategoryStat, error) {
	cat, ok := models.ParseCategory(category)
	if !ok {
		return nil, invalid("unknown category %q", category)
	}
	_, limit = s.page(0, limit)

	key := fmt.Sprintf("category:%s:%d", cat, limit)
	if v, ok := s.rankings.Get(key); ok {
		if stats, ok := v.([]models.CategoryStat); ok {
			return stats, nil
		}
	}
	stats, err := s.db.CategoryRanking(ctx, cat, limit)
	if err != nil {
		return nil, err
	}
	s.rankings.Set(key, stats)
	return stats, nil
}

// OverallRanking returns the cross-category ranking, best first.
func (s *Service) OverallRanking(ctx context.Context, limit int) ([]models.OverallStat, error) {
	_, limit = s.page(0, limit)

	key := fmt.Sprintf("overall:%d", limit)
	if v, ok := s.rankings.Get(key); ok {
		if stats, ok := v.([]models.OverallStat); ok {
			return stats, nil
		}
	}
	stats, err := s.db.OverallRanking(ctx, limit)
	if err != nil {
		return nil, err
	}
	s.rankings.Set(key, stats)
	return stats, nil
}

// UserStats returns a user's line in every category they are ranked in.
func (s *Service) UserStats(ctx context.Context, userID string) ([]models.CategoryStat, error) {
	if _, err := s.db.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.db.UserCategoryStats(ctx, userID)
}

// LastRecompute returns the most recent ranking run, or nil before the
// first one.
func (s *Service) LastRecompute(ctx context.Context) (*models.RankingRun, error) {
	run, err := s.db.LastRankingRun(ctx)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return run, err
}

// Recompute rebuilds every ranking from the live posts: post scores are
// refreshed with the current weights, category and overall tables are
// replaced in one transaction, every user's best rank is updated and the
// ranking cache is cleared. Concurrent calls run one after another.
func (s *Service) Recompute(ctx context.Context, trigger string) (run *models.RankingRun, err error) {
	s.recomputeMu.Lock()
	defer s.recomputeMu.Unlock()

	start := time.Now()
	defer func() { metrics.RecordRankingRecompute(trigger, time.Since(start), err) }()

	w := s.opts.Weights
	if _, err = s.db.RescoreAllPosts(ctx, w); err != nil {
		return nil, err
	}
	contributions, err := s.db.ListPostContributions(ctx)
	if err != nil {
		return nil, err
	}

	perCategory := ranking.Aggregate(contributions, w)
	overall := ranking.Overall(perCategory)

	bestRanks := make(map[string]int)
	stats := 0
	for _, entries := range perCategory {
		stats += len(entries)
		for _, e := range entries {
			if best, ok := bestRanks[e.UserID]; !ok || e.Rank < best {
				bestRanks[e.UserID] = e.Rank
			}
		}
	}

	snap := &database.RankingSnapshot{
		PerCategory: perCategory,
		Overall:     overall,
		BestRanks:   bestRanks,
		Run: models.RankingRun{
			ID:         uuid.NewString(),
			Trigger:    trigger,
			Posts:      len(contributions),
			Users:      len(overall),
			Stats:      stats,
			DurationMS: time.Since(start).Milliseconds(),
		},
	}
	if err = s.db.ReplaceRankings(ctx, snap); err != nil {
		return nil, err
	}
	s.rankings.Clear()

	run = &snap.Run
	logging.Ctx(ctx).Info().
		Str("trigger", trigger).
		Int("posts", run.Posts).
		Int("users", run.Users).
		Int64("duration_ms", run.DurationMS).
		Msg("rankings recomputed")

	s.publish(ctx, &events.RankingRecomputed{
		RunID:      run.ID,
		Trigger:    trigger,
		Users:      run.Users,
		Stats:      run.Stats,
		DurationMS: run.DurationMS,
	})
	return run, nil
}
