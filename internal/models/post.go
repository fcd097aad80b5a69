// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package models

import "time"

// Post is a forum thread opener.
//
// Views, Upvotes and CommentCount are counters maintained by the store;
// Score is derived from them with the configured ranking weights and is
// refreshed whenever one of the counters changes.
type Post struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	Author       *Author   `json:"author,omitempty"`
	Category     Category  `json:"category"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags"`
	ImageIDs     []string  `json:"image_ids"`
	Views        int64     `json:"views"`
	Upvotes      int64     `json:"upvotes"`
	CommentCount int64     `json:"comment_count"`
	Score        float64   `json:"score"`
	Pinned       bool      `json:"pinned"`
	Deleted      bool      `json:"-"`
	Upvoted      bool      `json:"upvoted,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Sort orders accepted by PostFilter.
const (
	SortLatest   = "latest"
	SortPopular  = "popular"
	SortViews    = "views"
	SortUpvotes  = "upvotes"
	SortComments = "comments"
)

// ValidPostSort reports whether s is a known sort order.
func ValidPostSort(s string) bool {
	switch s {
	case SortLatest, SortPopular, SortViews, SortUpvotes, SortComments:
		return true
	}
	return false
}

// PostFilter selects and orders posts. Empty fields do not filter.
// Categories comes from the channel; Category narrows it further.
type PostFilter struct {
	Categories []Category
	Category   Category
	AuthorID   string
	Tag        string
	Query      string
	Sort       string
	Offset     int
	Limit      int
}

// CreatePostInput is the body of POST /api/v1/posts.
type CreatePostInput struct {
	Category string   `json:"category" validate:"required,category"`
	Title    string   `json:"title" validate:"required,min=1,max=200"`
	Content  string   `json:"content" validate:"required,min=1,max=20000"`
	Tags     []string `json:"tags" validate:"max=5,dive,min=1,max=32"`
	ImageIDs []string `json:"image_ids" validate:"max=10,dive,required"`
}

// UpdatePostInput is the body of PUT /api/v1/posts/{id}. Nil fields are
// left unchanged.
type UpdatePostInput struct {
	Category *string  `json:"category,omitempty" validate:"omitempty,category"`
	Title    *string  `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content  *string  `json:"content,omitempty" validate:"omitempty,min=1,max=20000"`
	Tags     []string `json:"tags,omitempty" validate:"omitempty,max=5,dive,min=1,max=32"`
	ImageIDs []string `json:"image_ids,omitempty" validate:"omitempty,max=10,dive,required"`
}

// UpvoteResult is returned by the upvote toggle.
type UpvoteResult struct {
	PostID  string `json:"post_id"`
	Upvoted bool   `json:"upvoted"`
	Upvotes int64  `json:"upvotes"`
}

// PostCounters is the slice of a post the score is computed from.
type PostCounters struct {
	Views        int64
	Upvotes      int64
	CommentCount int64
	// Score is the stored score after the write that returned the
	// counters. ranking.PostScore ignores it.
	Score float64
}
