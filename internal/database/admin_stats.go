// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/indieforge/internal/models"
)

// DashboardStats gathers the admin landing page counters.
func (db *DB) DashboardStats(ctx context.Context) (stats *models.DashboardStats, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "dashboard", time.Now(), &err)

	now := time.Now().UTC()
	stats = &models.DashboardStats{
		PostsByCategory: make(map[models.Category]int64, len(models.AllCategories)),
		GeneratedAt:     now,
	}
	for _, c := range models.AllCategories {
		stats.PostsByCategory[c] = 0
	}

	err = db.conn.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM users WHERE banned),
		(SELECT COUNT(*) FROM posts WHERE NOT deleted),
		(SELECT COUNT(*) FROM comments WHERE NOT deleted),
		(SELECT COUNT(*) FROM whispers),
		(SELECT COUNT(*) FROM inquiries WHERE status = ?),
		(SELECT COUNT(*) FROM posts WHERE NOT deleted AND created_at >= ?)`,
		models.InquiryOpen, now.Add(-7*24*time.Hour)).
		Scan(&stats.Users, &stats.BannedUsers, &stats.Posts, &stats.Comments, &stats.Whispers,
			&stats.OpenInquiries, &stats.PostsLast7Days)
	if err != nil {
		return nil, fmt.Errorf("failed to count dashboard totals: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT category, COUNT(*) FROM posts WHERE NOT deleted GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts by category: %w", err)
	}
	for rows.Next() {
		var (
			category string
			n        int64
		)
		if err := rows.Scan(&category, &n); err != nil {
			closeQuietly(rows)
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats.PostsByCategory[models.Category(category)] = n
	}
	if err := rows.Err(); err != nil {
		closeQuietly(rows)
		return nil, fmt.Errorf("error iterating category counts: %w", err)
	}
	closeQuietly(rows)

	run, err := db.LastRankingRun(ctx)
	switch {
	case err == nil:
		stats.LastRankingRun = run
	case errors.Is(err, ErrNotFound):
		err = nil
	default:
		return nil, err
	}
	return stats, nil
}
