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

// CreateInquiry handles POST /api/v1/inquiries. Anonymous visitors must
// give a reply email.
func (h *Handler) CreateInquiry(w http.ResponseWriter, r *http.Request) {
	var in models.CreateInquiryInput
	if !decodeJSON(w, r, &in) {
		return
	}

	q, err := h.forum.CreateInquiry(r.Context(), auth.ActorFromContext(r.Context()), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, q)
}

// MyInquiries handles GET /api/v1/inquiries/mine.
func (h *Handler) MyInquiries(w http.ResponseWriter, r *http.Request) {
	offset, limit := h.pageParams(r)
	list, total, err := h.forum.MyInquiries(r.Context(), auth.ActorFromContext(r.Context()), offset, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondPage(w, r, list, total, len(list), offset, limit)
}

// GetInquiry handles GET /api/v1/inquiries/{id}. Only the author and
// admins may read it.
func (h *Handler) GetInquiry(w http.ResponseWriter, r *http.Request) {
	q, err := h.forum.GetInquiry(r.Context(), auth.ActorFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, q)
}
