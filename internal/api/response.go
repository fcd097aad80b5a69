// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/indieforge/internal/auth"
	"github.com/tomtom215/indieforge/internal/forum"
	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/media"
	"github.com/tomtom215/indieforge/internal/middleware"
	"github.com/tomtom215/indieforge/internal/models"
	"github.com/tomtom215/indieforge/internal/validation"
)

// Error codes for API responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// maxJSONBody bounds request bodies other than media uploads.
const maxJSONBody = 1 << 20

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// metadataFor fills the envelope metadata of a response to r.
func metadataFor(r *http.Request) models.Metadata {
	meta := models.Metadata{
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(r.Context()),
	}
	if start, ok := requestStart(r.Context()); ok {
		meta.QueryTimeMS = time.Since(start).Milliseconds()
	}
	return meta
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData sends a success envelope around data.
func respondData(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: metadataFor(r),
	})
}

// respondPage sends a success envelope with pagination metadata.
func respondPage(w http.ResponseWriter, r *http.Request, data interface{}, total int64, count, offset, limit int) {
	meta := metadataFor(r)
	meta.Pagination = models.NewPagination(total, count, offset, limit)
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: meta,
	})
}

// respondError sends an error response. err is logged, never returned to
// the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Str("code", code).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Error:    &models.APIError{Code: code, Message: message},
		Metadata: metadataFor(r),
	})
}

// respondServiceError maps an error from the service layer to a response.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		apiErr := verr.ToAPIError()
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Error:    apiErr,
			Metadata: metadataFor(r),
		})
		return
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "Request body too large", nil)
		return
	}

	status, code := classifyError(err)
	if status == http.StatusInternalServerError {
		respondError(w, r, status, code, "Internal server error", err)
		return
	}
	respondError(w, r, status, code, err.Error(), nil)
}

// classifyError returns the HTTP status and API code of a service error.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, forum.ErrInvalidInput),
		errors.Is(err, forum.ErrInvalidParent),
		errors.Is(err, forum.ErrSelfWhisper),
		errors.Is(err, media.ErrUnsupportedFormat),
		errors.Is(err, media.ErrTooManyPixels):
		return http.StatusBadRequest, ErrCodeBadRequest

	case errors.Is(err, forum.ErrUnauthenticated),
		errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenRevoked):
		return http.StatusUnauthorized, ErrCodeUnauthorized

	case errors.Is(err, forum.ErrForbidden),
		errors.Is(err, forum.ErrBanned),
		errors.Is(err, auth.ErrBanned),
		errors.Is(err, media.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden

	case errors.Is(err, forum.ErrNotFound),
		errors.Is(err, media.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound

	case errors.Is(err, forum.ErrConflict),
		errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, auth.ErrNicknameTaken):
		return http.StatusConflict, ErrCodeConflict

	case errors.Is(err, forum.ErrRateLimited),
		errors.Is(err, auth.ErrLockedOut):
		return http.StatusTooManyRequests, ErrCodeRateLimited

	case errors.Is(err, media.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge

	case errors.Is(err, media.ErrUnavailable):
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable
	}
	return http.StatusInternalServerError, ErrCodeInternal
}

// decodeJSON reads a JSON body into v. It writes the error response itself
// and reports whether the handler should continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "Request body too large", nil)
			return false
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Failed to read request body", nil)
		return false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Request body is required", nil)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body", nil)
		return false
	}
	return true
}

// getIntParam extracts an integer query parameter with a default value
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// pageParams reads offset and limit, clamped the way the forum service
// clamps them so pagination metadata matches the query.
func (h *Handler) pageParams(r *http.Request) (offset, limit int) {
	opts := h.forum.Options()
	offset = getIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit = getIntParam(r, "limit", opts.DefaultPageSize)
	if limit <= 0 {
		limit = opts.DefaultPageSize
	}
	if limit > opts.MaxPageSize {
		limit = opts.MaxPageSize
	}
	return offset, limit
}
