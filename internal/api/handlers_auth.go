// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package api

import (
	"net/http"

	"github.com/tomtom215/indieforge/internal/auth"
	"github.com/tomtom215/indieforge/internal/models"
)

// Signup handles POST /api/v1/auth/signup. The new session is returned in
// the body and set as the token cookie.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var in models.SignupInput
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.auth.Signup(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.authMW.SetTokenCookie(w, result.Token, result.ExpiresAt)
	respondData(w, r, http.StatusCreated, result)
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginInput
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.auth.Login(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.authMW.SetTokenCookie(w, result.Token, result.ExpiresAt)
	respondData(w, r, http.StatusOK, result)
}

// Logout handles POST /api/v1/auth/logout. The token is revoked until it
// would have expired and the cookie is cleared.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := h.auth.Logout(r.Context(), claims); err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.authMW.ClearTokenCookie(w)
	respondData(w, r, http.StatusOK, map[string]bool{"logged_out": true})
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.auth.Me(r.Context(), auth.ActorFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, me)
}
