// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package models

import (
	"time"
)

// APIResponse wraps every JSON body the HTTP API returns.
//
// Successful response:
//
//	{
//	  "status": "success",
//	  "data": {...},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "query_time_ms": 4}
//	}
//
// Error response:
//
//	{
//	  "status": "error",
//	  "error": {"code": "NOT_FOUND", "message": "post not found"},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries timing and paging information for a response.
// Pagination is only set on list endpoints.
type Metadata struct {
	Timestamp   time.Time       `json:"timestamp"`
	QueryTimeMS int64           `json:"query_time_ms,omitempty"`
	Cached      bool            `json:"cached,omitempty"`
	RequestID   string          `json:"request_id,omitempty"`
	Pagination  *PaginationInfo `json:"pagination,omitempty"`
}

// APIError is the machine readable part of an error response.
//
// Codes used by the API:
//   - BAD_REQUEST, VALIDATION_ERROR: malformed or invalid input
//   - UNAUTHORIZED: missing or invalid credentials
//   - FORBIDDEN: authenticated but not allowed
//   - NOT_FOUND, CONFLICT
//   - RATE_LIMITED: whisper limiter or HTTP rate limiter tripped
//   - PAYLOAD_TOO_LARGE: media upload over the size limit
//   - DATABASE_ERROR, INTERNAL_ERROR
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PaginationInfo describes an offset page of a list result.
type PaginationInfo struct {
	Total   int64 `json:"total"`
	Count   int   `json:"count"`
	Offset  int   `json:"offset"`
	Limit   int   `json:"limit"`
	HasMore bool  `json:"has_more"`
}

// NewPagination fills HasMore from the other fields.
func NewPagination(total int64, count, offset, limit int) *PaginationInfo {
	return &PaginationInfo{
		Total:   total,
		Count:   count,
		Offset:  offset,
		Limit:   limit,
		HasMore: int64(offset+count) < total,
	}
}

// HealthStatus is returned by the readiness endpoint.
type HealthStatus struct {
	Status        string    `json:"status"`
	Version       string    `json:"version"`
	DatabaseOK    bool      `json:"database_ok"`
	Uptime        float64   `json:"uptime_seconds"`
	LastRankingAt time.Time `json:"last_ranking_at,omitempty"`
}
