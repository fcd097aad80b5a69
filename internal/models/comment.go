// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package models

import "time"

// DeletedCommentText replaces the body of a deleted comment that is kept
// in the tree because it still has replies.
const DeletedCommentText = "[deleted]"

// Comment is a reply to a post or to another comment. ParentID is empty
// for top-level comments. Depth is 0 for top-level comments.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	ParentID  string    `json:"parent_id,omitempty"`
	AuthorID  string    `json:"author_id"`
	Author    *Author   `json:"author,omitempty"`
	Content   string    `json:"content"`
	Depth     int       `json:"depth"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentNode is a comment with its replies, as rendered under a post.
type CommentNode struct {
	Comment
	Replies []*CommentNode `json:"replies"`
}

// CreateCommentInput is the body of POST /api/v1/posts/{id}/comments.
type CreateCommentInput struct {
	Content  string `json:"content" validate:"required,min=1,max=5000"`
	ParentID string `json:"parent_id,omitempty" validate:"omitempty,max=64"`
}
