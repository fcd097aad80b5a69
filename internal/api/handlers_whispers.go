// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/indieforge/internal/auth"
	"github.com/tomtom215/indieforge/internal/models"
)

// SendWhisper handles POST /api/v1/whispers.
func (h *Handler) SendWhisper(w http.ResponseWriter, r *http.Request) {
	var in models.SendWhisperInput
	if !decodeJSON(w, r, &in) {
		return
	}

	whisper, err := h.forum.SendWhisper(r.Context(), auth.ActorFromContext(r.Context()), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, whisper)
}

type whisperLister func(ctx context.Context, actor *models.Actor, offset, limit int) ([]models.Whisper, int64, error)

func (h *Handler) listWhispers(w http.ResponseWriter, r *http.Request, list whisperLister) {
	offset, limit := h.pageParams(r)
	whispers, total, err := list(r.Context(), auth.ActorFromContext(r.Context()), offset, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondPage(w, r, whispers, total, len(whispers), offset, limit)
}

// Inbox handles GET /api/v1/whispers/inbox.
func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	h.listWhispers(w, r, h.forum.Inbox)
}

// Outbox handles GET /api/v1/whispers/outbox.
func (h *Handler) Outbox(w http.ResponseWriter, r *http.Request) {
	h.listWhispers(w, r, h.forum.Outbox)
}

// Conversation handles GET /api/v1/whispers/with/{userID}.
func (h *Handler) Conversation(w http.ResponseWriter, r *http.Request) {
	other := chi.URLParam(r, "userID")
	h.listWhispers(w, r, func(ctx context.Context, actor *models.Actor, offset, limit int) ([]models.Whisper, int64, error) {
		return h.forum.Conversation(ctx, actor, other, offset, limit)
	})
}

// UnreadCount handles GET /api/v1/whispers/unread.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.forum.UnreadCount(r.Context(), auth.ActorFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]int64{"unread": n})
}

// MarkWhisperRead handles POST /api/v1/whispers/{id}/read.
func (h *Handler) MarkWhisperRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.forum.MarkWhisperRead(r.Context(), auth.ActorFromContext(r.Context()), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{"id": id, "read": true})
}

// MarkAllRead handles POST /api/v1/whispers/read-all.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.forum.MarkAllRead(r.Context(), auth.ActorFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]int64{"marked": n})
}

// DeleteWhisper handles DELETE /api/v1/whispers/{id}.
func (h *Handler) DeleteWhisper(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.forum.DeleteWhisper(r.Context(), auth.ActorFromContext(r.Context()), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{"id": id, "deleted": true})
}
