// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/indieforge/internal/audit"
	"github.com/tomtom215/indieforge/internal/auth"
	"github.com/tomtom215/indieforge/internal/importer"
	"github.com/tomtom215/indieforge/internal/models"
)

// maxAuditPage bounds the audit log page size.
const maxAuditPage = 500

// AdminStats handles GET /api/v1/admin/stats.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.forum.DashboardStats(r.Context(), auth.ActorFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, stats)
}

// AdminListUsers handles GET /api/v1/admin/users.
//
// Query parameters: q (email or nickname prefix), role, banned
// (true|false), offset, limit.
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	offset, limit := h.pageParams(r)
	filter := models.UserFilter{
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		Role:   r.URL.Query().Get("role"),
		Offset: offset,
		Limit:  limit,
	}
	if raw := r.URL.Query().Get("banned"); raw != "" {
		banned, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "banned must be true or false", nil)
			return
		}
		filter.Banned = &banned
	}

	users, total, err := h.forum.ListUsers(r.Context(), auth.ActorFromContext(r.Context()), filter)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondPage(w, r, users, total, len(users), offset, limit)
}

// SetUserRole handles PUT /api/v1/admin/users/{id}/role.
func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	var in models.SetRoleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.forum.SetRole(r.Context(), auth.ActorFromContext(r.Context()), id, in); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{"id": id, "role": in.Role})
}

// SetUserBanned handles PUT /api/v1/admin/users/{id}/ban.
func (h *Handler) SetUserBanned(w http.ResponseWriter, r *http.Request) {
	var in models.SetBannedInput
	if !decodeJSON(w, r, &in) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.forum.SetBanned(r.Context(), auth.ActorFromContext(r.Context()), id, in); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{"id": id, "banned": in.Banned})
}

// PinPost handles PUT /api/v1/admin/posts/{id}/pin.
func (h *Handler) PinPost(w http.ResponseWriter, r *http.Request) {
	var in models.SetPinnedInput
	if !decodeJSON(w, r, &in) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.forum.PinPost(r.Context(), auth.ActorFromContext(r.Context()), id, in); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{"id": id, "pinned": in.Pinned})
}

// AdminListInquiries handles GET /api/v1/admin/inquiries?status=.
func (h *Handler) AdminListInquiries(w http.ResponseWriter, r *http.Request) {
	offset, limit := h.pageParams(r)
	status := r.URL.Query().Get("status")
	if status != "" && !models.ValidInquiryStatus(status) {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "status must be open, answered or closed", nil)
		return
	}

	list, total, err := h.forum.ListInquiries(r.Context(), auth.ActorFromContext(r.Context()), status, offset, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondPage(w, r, list, total, len(list), offset, limit)
}

// AnswerInquiry handles POST /api/v1/admin/inquiries/{id}/answer.
func (h *Handler) AnswerInquiry(w http.ResponseWriter, r *http.Request) {
	var in models.AnswerInquiryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	q, err := h.forum.AnswerInquiry(r.Context(), auth.ActorFromContext(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, q)
}

// CloseInquiry handles POST /api/v1/admin/inquiries/{id}/close.
func (h *Handler) CloseInquiry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.forum.CloseInquiry(r.Context(), auth.ActorFromContext(r.Context()), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{"id": id, "status": models.InquiryClosed})
}

// AuditLog handles GET /api/v1/admin/audit.
//
// Query parameters: type (repeatable), actor, target, limit, offset.
func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil || !h.audit.Enabled() {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Audit logging is disabled", nil)
		return
	}

	q := r.URL.Query()
	filter := audit.DefaultQueryFilter()
	for _, t := range q["type"] {
		if t = strings.TrimSpace(t); t != "" {
			filter.Types = append(filter.Types, audit.EventType(t))
		}
	}
	filter.ActorID = q.Get("actor")
	filter.TargetID = q.Get("target")
	filter.Limit = getIntParam(r, "limit", filter.Limit)
	filter.Offset = getIntParam(r, "offset", 0)
	if filter.Limit < 1 {
		filter.Limit = 1
	}
	if filter.Limit > maxAuditPage {
		filter.Limit = maxAuditPage
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	events, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to query audit log", err)
		return
	}
	total, err := h.audit.Count(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to count audit events", err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	respondPage(w, r, events, total, len(events), filter.Offset, filter.Limit)
}

// TriggerRecompute handles POST /api/v1/admin/rankings/recompute. The
// recompute runs synchronously and the finished run is returned.
func (h *Handler) TriggerRecompute(w http.ResponseWriter, r *http.Request) {
	run, err := h.forum.TriggerRecompute(r.Context(), auth.ActorFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, run)
}

// ImportStatus handles GET /api/v1/admin/import/status.
func (h *Handler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	if h.imports == nil {
		respondData(w, r, http.StatusOK, (*importer.ImportStats)(nil).ToSummary(false))
		return
	}
	summary, err := importer.LastStatus(r.Context(), h.imports)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to load import status", err)
		return
	}
	respondData(w, r, http.StatusOK, summary)
}
