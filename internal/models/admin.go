// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package models

import "time"

// DashboardStats feeds the admin dashboard landing page.
type DashboardStats struct {
	Users           int64              `json:"users"`
	BannedUsers     int64              `json:"banned_users"`
	Posts           int64              `json:"posts"`
	Comments        int64              `json:"comments"`
	Whispers        int64              `json:"whispers"`
	OpenInquiries   int64              `json:"open_inquiries"`
	PostsByCategory map[Category]int64 `json:"posts_by_category"`
	PostsLast7Days  int64              `json:"posts_last_7_days"`
	LastRankingRun  *RankingRun        `json:"last_ranking_run,omitempty"`
	GeneratedAt     time.Time          `json:"generated_at"`
}

// SetRoleInput is the body of PUT /api/v1/admin/users/{id}/role.
type SetRoleInput struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// SetBannedInput is the body of PUT /api/v1/admin/users/{id}/ban.
type SetBannedInput struct {
	Banned bool `json:"banned"`
}

// SetPinnedInput is the body of PUT /api/v1/admin/posts/{id}/pin.
type SetPinnedInput struct {
	Pinned bool `json:"pinned"`
}
