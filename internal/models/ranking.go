// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package models

import "time"

// CategoryStat is a user's aggregated standing in one category.
// Rank uses competition ranking: equal scores share a rank and the next
// distinct score skips ahead (1, 1, 3).
type CategoryStat struct {
	UserID    string        `json:"user_id"`
	Nickname  string        `json:"nickname"`
	Style     NicknameStyle `json:"style"`
	Category  Category      `json:"category"`
	Score     float64       `json:"score"`
	PostCount int64         `json:"post_count"`
	Rank      int           `json:"rank"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// OverallStat is a user's standing across all categories.
type OverallStat struct {
	UserID    string        `json:"user_id"`
	Nickname  string        `json:"nickname"`
	Style     NicknameStyle `json:"style"`
	Score     float64       `json:"score"`
	PostCount int64         `json:"post_count"`
	Rank      int           `json:"rank"`
}

// PostContribution is the per-post input to a ranking recompute.
type PostContribution struct {
	PostID       string
	AuthorID     string
	Nickname     string
	Category     Category
	Views        int64
	Upvotes      int64
	CommentCount int64
	CreatedAt    time.Time
}

// RankingRun records one recompute.
type RankingRun struct {
	ID          string    `json:"id"`
	Trigger     string    `json:"trigger"`
	Posts       int       `json:"posts"`
	Users       int       `json:"users"`
	Stats       int       `json:"stats"`
	DurationMS  int64     `json:"duration_ms"`
	CompletedAt time.Time `json:"completed_at"`
}
