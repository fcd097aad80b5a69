// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/indieforge/internal/auth"
	"github.com/tomtom215/indieforge/internal/media"
)

// multipartOverhead is allowed on top of the image size for part headers
// and boundaries.
const multipartOverhead = 64 << 10

// mediaUploadField is the multipart field carrying the image.
const mediaUploadField = "file"

func (h *Handler) mediaAvailable(w http.ResponseWriter, r *http.Request) bool {
	if h.media == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Media storage is not configured", nil)
		return false
	}
	return true
}

// UploadMedia handles POST /api/v1/media. The image is streamed from the
// "file" part of a multipart/form-data body.
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	if !h.mediaAvailable(w, r) {
		return
	}
	actor := auth.ActorFromContext(r.Context())
	if actor == nil {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.media.MaxUploadBytes()+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Expected a multipart/form-data body", nil)
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Missing \"file\" field", nil)
			return
		}
		if err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				respondServiceError(w, r, err)
				return
			}
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Malformed multipart body", nil)
			return
		}
		if part.FormName() != mediaUploadField {
			_ = part.Close()
			continue
		}

		info, err := h.media.Upload(r.Context(), actor.ID, part)
		_ = part.Close()
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondData(w, r, http.StatusCreated, info)
		return
	}
}

// GetMedia handles GET /api/v1/media/{id}.
func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	h.serveMedia(w, r, media.VariantFull)
}

// GetMediaThumb handles GET /api/v1/media/{id}/thumb.
func (h *Handler) GetMediaThumb(w http.ResponseWriter, r *http.Request) {
	h.serveMedia(w, r, media.VariantThumb)
}

// serveMedia writes image bytes. Stored images never change, so clients
// may cache them forever.
func (h *Handler) serveMedia(w http.ResponseWriter, r *http.Request, variant string) {
	if !h.mediaAvailable(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	data, contentType, err := h.media.Get(r.Context(), id, variant)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	etag := `"` + id + "-" + variant + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeleteMedia handles DELETE /api/v1/media/{id}. Owners and admins may
// delete.
func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	if !h.mediaAvailable(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.media.Delete(r.Context(), auth.ActorFromContext(r.Context()), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{"id": id, "deleted": true})
}
