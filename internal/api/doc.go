// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

/*
Package api implements the IndieForge HTTP API on the chi router.

Handler methods are split by area:
  - handlers.go: Handler struct, constructor and dependencies
  - handlers_auth.go: signup, login, logout, me
  - handlers_posts.go: channels, posts, upvotes and comments
  - handlers_whispers.go: private messages
  - handlers_users.go: profiles, member search and rankings
  - handlers_inquiries.go: contact requests
  - handlers_media.go: image upload and delivery
  - handlers_admin.go: moderation, audit log and import status
  - handlers_health.go: liveness, readiness and the websocket upgrade

Every JSON body uses the models.APIResponse envelope:

	{"status":"success","data":{...},"metadata":{"timestamp":"...","query_time_ms":3}}
	{"status":"error","error":{"code":"NOT_FOUND","message":"not found"},"metadata":{...}}

Middleware order (outermost first):

	RequestID -> AccessLog -> RealIP -> Recoverer -> CORS -> SecurityHeaders
	-> PrometheusMetrics -> rate limit -> auth.Optional -> authz.Authorize

Authorization is path based: the Casbin policy decides which role may
read, write or delete under each route, and the forum service enforces
ownership on top of it.
*/
package api
