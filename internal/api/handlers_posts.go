// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/indieforge/internal/audit"
	"github.com/tomtom215/indieforge/internal/auth"
	"github.com/tomtom215/indieforge/internal/forum"
	"github.com/tomtom215/indieforge/internal/models"
)

// Channels handles GET /api/v1/channels.
func (h *Handler) Channels(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, forum.Channels())
}

// ChannelPosts handles GET /api/v1/channels/{id}/posts. It accepts the
// same filters as ListPosts.
func (h *Handler) ChannelPosts(w http.ResponseWriter, r *http.Request) {
	h.listPosts(w, r, chi.URLParam(r, "id"))
}

// ListPosts handles GET /api/v1/posts.
//
// Query parameters: channel, category, author, tag, q, sort (latest,
// popular, views, upvotes, comments), offset, limit.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	h.listPosts(w, r, r.URL.Query().Get("channel"))
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request, channel string) {
	q := r.URL.Query()
	offset, limit := h.pageParams(r)

	posts, total, err := h.forum.ListPosts(r.Context(), auth.ActorFromContext(r.Context()), forum.ListPostsInput{
		Channel:  channel,
		Category: q.Get("category"),
		AuthorID: q.Get("author"),
		Tag:      q.Get("tag"),
		Query:    q.Get("q"),
		Sort:     q.Get("sort"),
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondPage(w, r, posts, total, len(posts), offset, limit)
}

// TopPosts handles GET /api/v1/posts/top?category=&limit=.
func (h *Handler) TopPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.forum.TopPosts(r.Context(), r.URL.Query().Get("category"), getIntParam(r, "limit", 10))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, posts)
}

// CreatePost handles POST /api/v1/posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in models.CreatePostInput
	if !decodeJSON(w, r, &in) {
		return
	}

	post, err := h.forum.CreatePost(r.Context(), auth.ActorFromContext(r.Context()), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, post)
}

// GetPost handles GET /api/v1/posts/{id} and counts the view.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	post, err := h.forum.GetPost(r.Context(), actor, chi.URLParam(r, "id"), viewerKey(r, actor))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, post)
}

// viewerKey identifies a viewer for view dedupe: the account when signed
// in, the client address otherwise.
func viewerKey(r *http.Request, actor *models.Actor) string {
	if actor != nil && actor.ID != "" {
		return "user:" + actor.ID
	}
	return "ip:" + audit.SourceFromRequest(r).IPAddress
}

// UpdatePost handles PUT /api/v1/posts/{id}.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var in models.UpdatePostInput
	if !decodeJSON(w, r, &in) {
		return
	}

	post, err := h.forum.UpdatePost(r.Context(), auth.ActorFromContext(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, post)
}

// DeletePost handles DELETE /api/v1/posts/{id}. Authors and admins may
// delete.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.forum.DeletePost(r.Context(), auth.ActorFromContext(r.Context()), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{"id": id, "deleted": true})
}

// ToggleUpvote handles POST /api/v1/posts/{id}/upvote.
func (h *Handler) ToggleUpvote(w http.ResponseWriter, r *http.Request) {
	result, err := h.forum.ToggleUpvote(r.Context(), auth.ActorFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, result)
}

// ListComments handles GET /api/v1/posts/{id}/comments and returns the
// comment tree.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	tree, err := h.forum.ListComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, tree)
}

// AddComment handles POST /api/v1/posts/{id}/comments. Set parent_id to
// reply to a comment.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var in models.CreateCommentInput
	if !decodeJSON(w, r, &in) {
		return
	}

	comment, err := h.forum.AddComment(r.Context(), auth.ActorFromContext(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, comment)
}

// DeleteComment handles DELETE /api/v1/comments/{id}.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.forum.DeleteComment(r.Context(), auth.ActorFromContext(r.Context()), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{"id": id, "deleted": true})
}
