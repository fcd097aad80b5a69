// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package forum

import (
	"context"
	"strings"

	"github.com/tomtom215/indieforge/internal/events"
	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/metrics"
	"github.com/tomtom215/indieforge/internal/models"
	"github.com/tomtom215/indieforge/internal/ranking"
	"github.com/tomtom215/indieforge/internal/validation"
)

// ListPostsInput selects a page of posts. Channel and Category may be
// combined; the category must then belong to the channel to match.
type ListPostsInput struct {
	Channel  string
	Category string
	AuthorID string
	Tag      string
	Query    string
	Sort     string
	Offset   int
	Limit    int
}

// CreatePost publishes a new post by actor.
func (s *Service) CreatePost(ctx context.Context, actor *models.Actor, in models.CreatePostInput) (post *models.Post, err error) {
	defer func() { metrics.RecordForumAction("post_create", err) }()

	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}
	author, err := s.activeUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	category, _ := models.ParseCategory(in.Category)

	post = &models.Post{
		AuthorID: author.ID,
		Category: category,
		Title:    in.Title,
		Content:  in.Content,
		Tags:     normalizeTags(in.Tags),
		ImageIDs: in.ImageIDs,
	}
	if post.Title == "" || post.Content == "" {
		return nil, invalid("title and content must not be blank")
	}
	if err = s.db.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	post.Author = ranking.AuthorOf(author)

	s.publish(ctx, &events.PostCreated{
		PostID:         post.ID,
		AuthorID:       author.ID,
		AuthorNickname: author.Nickname,
		Category:       string(post.Category),
		Title:          post.Title,
	})
	logging.Ctx(ctx).Info().Str("post_id", post.ID).Str("category", string(post.Category)).Msg("post created")
	return post, nil
}

// GetPost returns a live post. A non-empty viewerKey counts one view per
// viewer and post within the dedupe window; a counted view refreshes the
// stored score in the same write. The Upvoted flag is set for a signed-in actor.
func (s *Service) GetPost(ctx context.Context, actor *models.Actor, id, viewerKey string) (*models.Post, error) {
	post, err := s.db.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if viewerKey != "" {
		if s.views.Seen(viewerKey + ":" + id) {
			metrics.PostViews.WithLabelValues("false").Inc()
		} else {
			counters, err := s.db.IncrementPostViews(ctx, id, s.opts.Weights)
			if err != nil {
				return nil, err
			}
			metrics.PostViews.WithLabelValues("true").Inc()
			post.Views, post.Upvotes, post.CommentCount = counters.Views, counters.Upvotes, counters.CommentCount
			post.Score = counters.Score
		}
	}

	if actor != nil {
		upvoted, err := s.db.UpvotedBy(ctx, actor.ID, []string{id})
		if err != nil {
			return nil, err
		}
		post.Upvoted = upvoted[id]
	}
	return post, nil
}

// ListPosts returns a page of live posts and the total matching in.
func (s *Service) ListPosts(ctx context.Context, actor *models.Actor, in ListPostsInput) ([]models.Post, int64, error) {
	f := models.PostFilter{
		AuthorID: in.AuthorID,
		Tag:      strings.TrimSpace(in.Tag),
		Query:    in.Query,
		Sort:     in.Sort,
	}
	f.Offset, f.Limit = s.page(in.Offset, in.Limit)

	if f.Sort == "" {
		f.Sort = models.SortLatest
	}
	if !models.ValidPostSort(f.Sort) {
		return nil, 0, invalid("unknown sort %q", in.Sort)
	}
	if in.Channel != "" {
		cats, err := ChannelCategories(in.Channel)
		if err != nil {
			return nil, 0, err
		}
		if in.Channel != ChannelAll {
			f.Categories = cats
		}
	}
	if in.Category != "" {
		cat, ok := models.ParseCategory(in.Category)
		if !ok {
			return nil, 0, invalid("unknown category %q", in.Category)
		}
		f.Category = cat
	}

	posts, total, err := s.db.ListPosts(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	if err := s.markUpvoted(ctx, actor, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// TopPosts returns the highest scoring posts, optionally in one category.
func (s *Service) TopPosts(ctx context.Context, category string, limit int) ([]models.Post, error) {
	var cat models.Category
	if category != "" {
		c, ok := models.ParseCategory(category)
		if !ok {
			return nil, invalid("unknown category %q", category)
		}
		cat = c
	}
	_, limit = s.page(0, limit)
	return s.db.TopPosts(ctx, cat, limit)
}

// UpdatePost edits a post. Only its author or an admin may edit it.
func (s *Service) UpdatePost(ctx context.Context, actor *models.Actor, id string, in models.UpdatePostInput) (post *models.Post, err error) {
	defer func() { metrics.RecordForumAction("post_update", err) }()

	in.Title = trimmed(in.Title)
	in.Content = trimmed(in.Content)
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}
	user, err := s.activeUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	post, err = s.db.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != user.ID && !user.IsAdmin() {
		return nil, ErrForbidden
	}

	previousCategory := post.Category
	if in.Category != nil {
		post.Category, _ = models.ParseCategory(*in.Category)
	}
	if in.Title != nil {
		if *in.Title == "" {
			return nil, invalid("title must not be blank")
		}
		post.Title = *in.Title
	}
	if in.Content != nil {
		if *in.Content == "" {
			return nil, invalid("content must not be blank")
		}
		post.Content = *in.Content
	}
	if in.Tags != nil {
		post.Tags = normalizeTags(in.Tags)
	}
	if in.ImageIDs != nil {
		post.ImageIDs = in.ImageIDs
	}

	if err = s.db.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	if post.AuthorID != user.ID {
		s.auditAdmin(ctx, user, "post.edit", "post", post.ID, "Edited another member's post", nil)
	}
	s.publish(ctx, &events.PostUpdated{
		PostID:           post.ID,
		AuthorID:         post.AuthorID,
		Category:         string(post.Category),
		PreviousCategory: string(previousCategory),
		UpdatedBy:        user.ID,
	})
	return post, nil
}

// DeletePost soft deletes a post. Only its author or an admin may delete
// it.
func (s *Service) DeletePost(ctx context.Context, actor *models.Actor, id string) (err error) {
	defer func() { metrics.RecordForumAction("post_delete", err) }()

	user, err := s.activeUser(ctx, actor)
	if err != nil {
		return err
	}
	post, err := s.db.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != user.ID && !user.IsAdmin() {
		return ErrForbidden
	}
	if err = s.db.SoftDeletePost(ctx, id); err != nil {
		return err
	}

	if post.AuthorID != user.ID {
		s.auditAdmin(ctx, user, "post.delete", "post", post.ID, "Deleted post: "+post.Title,
			map[string]interface{}{"author_id": post.AuthorID, "category": string(post.Category)})
	}
	s.publish(ctx, &events.PostDeleted{
		PostID:    post.ID,
		AuthorID:  post.AuthorID,
		Category:  string(post.Category),
		DeletedBy: user.ID,
	})
	return nil
}

// ToggleUpvote adds actor's upvote to a post or removes it when present.
func (s *Service) ToggleUpvote(ctx context.Context, actor *models.Actor, postID string) (result *models.UpvoteResult, err error) {
	defer func() { metrics.RecordForumAction("post_upvote", err) }()

	user, err := s.activeUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	post, err := s.db.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	upvoted, counters, err := s.db.ToggleUpvote(ctx, postID, user.ID, s.opts.Weights)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, &events.PostUpvoted{
		PostID:   postID,
		AuthorID: post.AuthorID,
		UserID:   user.ID,
		Upvoted:  upvoted,
		Upvotes:  counters.Upvotes,
	})
	return &models.UpvoteResult{PostID: postID, Upvoted: upvoted, Upvotes: counters.Upvotes}, nil
}

func (s *Service) markUpvoted(ctx context.Context, actor *models.Actor, posts []models.Post) error {
	if actor == nil || len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	upvoted, err := s.db.UpvotedBy(ctx, actor.ID, ids)
	if err != nil {
		return err
	}
	for i := range posts {
		posts[i].Upvoted = upvoted[posts[i].ID]
	}
	return nil
}

// trimmed returns a trimmed copy of an optional string field.
func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

// normalizeTags lowercases, trims and deduplicates tags, keeping their
// first-seen order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
