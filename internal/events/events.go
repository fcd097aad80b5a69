// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

// Package events is the in-process domain event bus.
//
// The forum service publishes an event after each successful write. A
// watermill Router fans the events out to handlers that mark rankings dirty
// and push websocket notifications. Handlers run asynchronously, so a slow
// consumer never delays an HTTP response.
//
// Every payload is JSON and starts with event_id and occurred_at:
//
//	{"event_id":"5f0c...","occurred_at":"2026-03-01T12:00:00Z","post_id":"...","category":"godot"}
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicPostCreated       = "post.created"
	TopicPostUpdated       = "post.updated"
	TopicPostDeleted       = "post.deleted"
	TopicPostUpvoted       = "post.upvoted"
	TopicCommentCreated    = "comment.created"
	TopicWhisperSent       = "whisper.sent"
	TopicRankingRecomputed = "ranking.recomputed"
)

// AllTopics lists every topic the bus carries.
var AllTopics = []string{
	TopicPostCreated,
	TopicPostUpdated,
	TopicPostDeleted,
	TopicPostUpvoted,
	TopicCommentCreated,
	TopicWhisperSent,
	TopicRankingRecomputed,
}

// Event is implemented by every payload type.
type Event interface {
	Topic() string
	Envelope() *Meta
}

// Meta is embedded at the top of every payload.
type Meta struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Envelope gives the serializer access to the embedded Meta.
func (m *Meta) Envelope() *Meta {
	return m
}

// stamp fills EventID and OccurredAt when the publisher left them empty.
func (m *Meta) stamp() {
	if m.EventID == "" {
		m.EventID = uuid.New().String()
	}
	if m.OccurredAt.IsZero() {
		m.OccurredAt = time.Now().UTC()
	}
}

// PostCreated is published after a post is stored.
type PostCreated struct {
	Meta
	PostID         string `json:"post_id"`
	AuthorID       string `json:"author_id"`
	AuthorNickname string `json:"author_nickname"`
	Category       string `json:"category"`
	Title          string `json:"title"`
}

func (*PostCreated) Topic() string { return TopicPostCreated }

// PostUpdated is published after a post is edited. PreviousCategory
// differs from Category when the edit moved the post.
type PostUpdated struct {
	Meta
	PostID           string `json:"post_id"`
	AuthorID         string `json:"author_id"`
	Category         string `json:"category"`
	PreviousCategory string `json:"previous_category"`
	UpdatedBy        string `json:"updated_by"`
}

func (*PostUpdated) Topic() string { return TopicPostUpdated }

// PostDeleted is published after a soft delete.
type PostDeleted struct {
	Meta
	PostID    string `json:"post_id"`
	AuthorID  string `json:"author_id"`
	Category  string `json:"category"`
	DeletedBy string `json:"deleted_by"`
}

func (*PostDeleted) Topic() string { return TopicPostDeleted }

// PostUpvoted is published after an upvote is added or removed.
type PostUpvoted struct {
	Meta
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
	UserID   string `json:"user_id"`
	Upvoted  bool   `json:"upvoted"`
	Upvotes  int64  `json:"upvotes"`
}

func (*PostUpvoted) Topic() string { return TopicPostUpvoted }

// CommentCreated is published after a comment is stored.
type CommentCreated struct {
	Meta
	CommentID    string `json:"comment_id"`
	PostID       string `json:"post_id"`
	PostAuthorID string `json:"post_author_id"`
	AuthorID     string `json:"author_id"`
	ParentID     string `json:"parent_id,omitempty"`
}

func (*CommentCreated) Topic() string { return TopicCommentCreated }

// WhisperSent is published after a whisper is stored. Preview is a
// truncated copy of the content for notification toasts.
type WhisperSent struct {
	Meta
	WhisperID      string `json:"whisper_id"`
	SenderID       string `json:"sender_id"`
	SenderNickname string `json:"sender_nickname"`
	RecipientID    string `json:"recipient_id"`
	Preview        string `json:"preview"`
}

func (*WhisperSent) Topic() string { return TopicWhisperSent }

// RankingRecomputed is published after category_stats was replaced.
type RankingRecomputed struct {
	Meta
	RunID      string `json:"run_id"`
	Trigger    string `json:"trigger"`
	Users      int    `json:"users"`
	Stats      int    `json:"stats"`
	DurationMS int64  `json:"duration_ms"`
}

func (*RankingRecomputed) Topic() string { return TopicRankingRecomputed }

// previewLength bounds WhisperSent.Preview in runes.
const previewLength = 80

// Preview truncates s for a notification.
func Preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLength {
		return s
	}
	return string(r[:previewLength-1]) + "…"
}
