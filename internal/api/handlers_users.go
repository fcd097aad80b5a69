// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/indieforge/internal/auth"
	"github.com/tomtom215/indieforge/internal/models"
)

// SearchUsers handles GET /api/v1/users?q=&limit=.
func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.forum.SearchUsers(r.Context(), r.URL.Query().Get("q"), getIntParam(r, "limit", 20))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, users)
}

// GetProfile handles GET /api/v1/users/{id}.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.forum.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, profile)
}

// GetProfileByNickname handles GET /api/v1/users/by-nickname/{nickname}.
func (h *Handler) GetProfileByNickname(w http.ResponseWriter, r *http.Request) {
	profile, err := h.forum.GetProfileByNickname(r.Context(), chi.URLParam(r, "nickname"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/v1/users/me.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in models.UpdateProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := h.forum.UpdateProfile(r.Context(), auth.ActorFromContext(r.Context()), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, user)
}

// UserStats handles GET /api/v1/users/{id}/stats: the user's per-category
// ranking rows.
func (h *Handler) UserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.forum.UserStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, stats)
}

// OverallRanking handles GET /api/v1/rankings/overall.
func (h *Handler) OverallRanking(w http.ResponseWriter, r *http.Request) {
	rows, err := h.forum.OverallRanking(r.Context(), getIntParam(r, "limit", 50))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, rows)
}

// CategoryRanking handles GET /api/v1/rankings/{category}.
func (h *Handler) CategoryRanking(w http.ResponseWriter, r *http.Request) {
	rows, err := h.forum.CategoryRanking(r.Context(), chi.URLParam(r, "category"), getIntParam(r, "limit", 50))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, rows)
}
