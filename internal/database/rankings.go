// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/indieforge/internal/models"
	"github.com/tomtom215/indieforge/internal/ranking"
)

// OverallCategory is the category_stats key of the cross-category ranking.
const OverallCategory = "overall"

// RankingSnapshot is the full output of one recompute.
type RankingSnapshot struct {
	PerCategory map[models.Category][]ranking.Entry
	Overall     []ranking.Entry
	BestRanks   map[string]int
	Run         models.RankingRun
}

// ReplaceRankings swaps the ranking tables for snap in one transaction:
// category_stats is rewritten, every user's best_rank is reset and then
// set from snap.BestRanks, and the run is appended to ranking_runs.
func (db *DB) ReplaceRankings(ctx context.Context, snap *RankingSnapshot) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("replace", "category_stats", time.Now(), &err)

	now := time.Now().UTC()
	if snap.Run.ID == "" {
		snap.Run.ID = uuid.New().String()
	}
	if snap.Run.CompletedAt.IsZero() {
		snap.Run.CompletedAt = now
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM category_stats`); err != nil {
			return fmt.Errorf("failed to clear category stats: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO category_stats
			(user_id, category, score, post_count, rank, display_order, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare category stats insert: %w", err)
		}
		defer closeWithLog(stmt, "prepared statement")

		insert := func(category string, entries []ranking.Entry) error {
			for i, e := range entries {
				if _, err := stmt.ExecContext(ctx, e.UserID, category, e.Score, e.PostCount, e.Rank, i, now); err != nil {
					return fmt.Errorf("failed to insert %s stat: %w", category, err)
				}
			}
			return nil
		}
		for _, c := range models.AllCategories {
			if err := insert(string(c), snap.PerCategory[c]); err != nil {
				return err
			}
		}
		if err := insert(OverallCategory, snap.Overall); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE users SET best_rank = 0 WHERE best_rank <> 0`); err != nil {
			return fmt.Errorf("failed to reset best ranks: %w", err)
		}
		for userID, rank := range snap.BestRanks {
			if rank <= 0 {
				continue
			}
			if _, err := tx.ExecContext(ctx, `UPDATE users SET best_rank = ? WHERE id = ?`, rank, userID); err != nil {
				return fmt.Errorf("failed to set best rank: %w", err)
			}
		}

		run := snap.Run
		if _, err := tx.ExecContext(ctx, `INSERT INTO ranking_runs
			(id, trigger_source, posts, users, stats, duration_ms, completed_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.Trigger, run.Posts, run.Users, run.Stats, run.DurationMS, run.CompletedAt); err != nil {
			return fmt.Errorf("failed to record ranking run: %w", err)
		}
		return nil
	})
}

const statSelect = `SELECT s.user_id, COALESCE(u.nickname, ''), COALESCE(u.role, 'user'), COALESCE(u.best_rank, 0),
	s.category, s.score, s.post_count, s.rank, s.updated_at
FROM category_stats s LEFT JOIN users u ON u.id = s.user_id`

func (db *DB) queryStats(ctx context.Context, query string, args ...any) (out []models.CategoryStat, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "category_stats", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query category stats: %w", err)
	}
	defer rows.Close()

	out = make([]models.CategoryStat, 0)
	for rows.Next() {
		var (
			s        models.CategoryStat
			role     string
			bestRank int
			category string
		)
		if err := rows.Scan(&s.UserID, &s.Nickname, &role, &bestRank, &category,
			&s.Score, &s.PostCount, &s.Rank, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category stat: %w", err)
		}
		s.Category = models.Category(category)
		s.Style = ranking.NicknameStyle(role, bestRank)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category stats: %w", err)
	}
	return out, nil
}

// CategoryRanking returns the top entries of one category in display order.
func (db *DB) CategoryRanking(ctx context.Context, category models.Category, limit int) ([]models.CategoryStat, error) {
	if limit <= 0 {
		limit = 50
	}
	return db.queryStats(ctx, statSelect+` WHERE s.category = ? ORDER BY s.display_order LIMIT ?`, string(category), limit)
}

// OverallRanking returns the top entries across categories.
func (db *DB) OverallRanking(ctx context.Context, limit int) ([]models.OverallStat, error) {
	if limit <= 0 {
		limit = 50
	}
	stats, err := db.queryStats(ctx, statSelect+` WHERE s.category = ? ORDER BY s.display_order LIMIT ?`, OverallCategory, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.OverallStat, 0, len(stats))
	for _, s := range stats {
		out = append(out, toOverall(s))
	}
	return out, nil
}

func toOverall(s models.CategoryStat) models.OverallStat {
	return models.OverallStat{
		UserID:    s.UserID,
		Nickname:  s.Nickname,
		Style:     s.Style,
		Score:     s.Score,
		PostCount: s.PostCount,
		Rank:      s.Rank,
	}
}

// UserCategoryStats returns a user's per-category stats in category
// display order. Categories the user never posted in are absent.
func (db *DB) UserCategoryStats(ctx context.Context, userID string) ([]models.CategoryStat, error) {
	stats, err := db.queryStats(ctx, statSelect+` WHERE s.user_id = ? AND s.category <> ?`, userID, OverallCategory)
	if err != nil {
		return nil, err
	}
	order := make(map[models.Category]int, len(models.AllCategories))
	for i, c := range models.AllCategories {
		order[c] = i
	}
	sort.Slice(stats, func(i, j int) bool { return order[stats[i].Category] < order[stats[j].Category] })
	return stats, nil
}

// UserOverallStat returns a user's overall standing, or ErrNotFound when
// the user is unranked.
func (db *DB) UserOverallStat(ctx context.Context, userID string) (*models.OverallStat, error) {
	stats, err := db.queryStats(ctx, statSelect+` WHERE s.user_id = ? AND s.category = ?`, userID, OverallCategory)
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, ErrNotFound
	}
	o := toOverall(stats[0])
	return &o, nil
}

// LastRankingRun returns the most recent recompute, or ErrNotFound.
func (db *DB) LastRankingRun(ctx context.Context) (run *models.RankingRun, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "ranking_runs", time.Now(), &err)

	var r models.RankingRun
	err = db.conn.QueryRowContext(ctx, `SELECT id, trigger_source, posts, users, stats, duration_ms, completed_at
		FROM ranking_runs ORDER BY completed_at DESC LIMIT 1`).
		Scan(&r.ID, &r.Trigger, &r.Posts, &r.Users, &r.Stats, &r.DurationMS, &r.CompletedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}
