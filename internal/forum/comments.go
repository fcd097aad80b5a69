// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package forum

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/tomtom215/indieforge/internal/database"
	"github.com/tomtom215/indieforge/internal/events"
	"github.com/tomtom215/indieforge/internal/metrics"
	"github.com/tomtom215/indieforge/internal/models"
	"github.com/tomtom215/indieforge/internal/ranking"
	"github.com/tomtom215/indieforge/internal/validation"
)

// AddComment adds a comment to a post, or a reply when in.ParentID is set.
// Replies deeper than the maximum depth are attached to the parent's
// parent instead, at the parent's depth.
func (s *Service) AddComment(ctx context.Context, actor *models.Actor, postID string, in models.CreateCommentInput) (comment *models.Comment, err error) {
	defer func() { metrics.RecordForumAction("comment_create", err) }()

	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, invalid("content must not be blank")
	}
	author, err := s.activeUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	post, err := s.db.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment = &models.Comment{
		PostID:   postID,
		AuthorID: author.ID,
		Content:  in.Content,
	}
	if in.ParentID != "" {
		parent, err := s.db.GetComment(ctx, in.ParentID)
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidParent
		}
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID || parent.Deleted {
			return nil, ErrInvalidParent
		}
		comment.ParentID, comment.Depth = replyPlacement(parent, s.opts.MaxCommentDepth)
	}

	if _, err = s.db.CreateComment(ctx, comment, s.opts.Weights); err != nil {
		return nil, err
	}
	comment.Author = ranking.AuthorOf(author)

	s.publish(ctx, &events.CommentCreated{
		CommentID:    comment.ID,
		PostID:       postID,
		PostAuthorID: post.AuthorID,
		AuthorID:     author.ID,
		ParentID:     comment.ParentID,
	})
	return comment, nil
}

// replyPlacement returns the parent ID and depth of a reply to parent.
func replyPlacement(parent *models.Comment, maxDepth int) (string, int) {
	if parent.Depth+1 > maxDepth {
		return parent.ParentID, parent.Depth
	}
	return parent.ID, parent.Depth + 1
}

// ListComments returns the comment tree of a live post.
func (s *Service) ListComments(ctx context.Context, postID string) ([]*models.CommentNode, error) {
	if _, err := s.db.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	flat, err := s.db.ListCommentsByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	return BuildCommentTree(flat), nil
}

// DeleteComment soft deletes a comment. Only its author or an admin may
// delete it.
func (s *Service) DeleteComment(ctx context.Context, actor *models.Actor, id string) (err error) {
	defer func() { metrics.RecordForumAction("comment_delete", err) }()

	user, err := s.activeUser(ctx, actor)
	if err != nil {
		return err
	}
	c, err := s.db.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if c.Deleted {
		return ErrNotFound
	}
	if c.AuthorID != user.ID && !user.IsAdmin() {
		return ErrForbidden
	}

	if _, err = s.db.SoftDeleteComment(ctx, id, s.opts.Weights); err != nil {
		return err
	}

	if c.AuthorID != user.ID {
		s.auditAdmin(ctx, user, "comment.delete", "comment", c.ID, "Deleted comment",
			map[string]interface{}{"author_id": c.AuthorID, "post_id": c.PostID})
	}
	return nil
}

// BuildCommentTree nests a flat comment list. Roots and replies are ordered
// by creation time, then ID. A deleted comment keeps its place as
// "[deleted]" while it has visible replies; otherwise it is dropped.
// Comments whose parent is missing from flat become roots.
func BuildCommentTree(flat []models.Comment) []*models.CommentNode {
	sorted := make([]models.Comment, len(flat))
	copy(sorted, flat)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	nodes := make(map[string]*models.CommentNode, len(sorted))
	for i := range sorted {
		nodes[sorted[i].ID] = &models.CommentNode{Comment: sorted[i], Replies: []*models.CommentNode{}}
	}

	roots := make([]*models.CommentNode, 0)
	for i := range sorted {
		node := nodes[sorted[i].ID]
		parent, ok := nodes[node.ParentID]
		if node.ParentID == "" || !ok || parent == node {
			roots = append(roots, node)
			continue
		}
		parent.Replies = append(parent.Replies, node)
	}
	return prune(roots)
}

// prune removes deleted leaves bottom-up and masks deleted comments that
// still have replies.
func prune(nodes []*models.CommentNode) []*models.CommentNode {
	kept := nodes[:0]
	for _, n := range nodes {
		n.Replies = prune(n.Replies)
		if n.Deleted {
			if len(n.Replies) == 0 {
				continue
			}
			n.Content = models.DeletedCommentText
			n.Author = nil
		}
		kept = append(kept, n)
	}
	return kept
}
