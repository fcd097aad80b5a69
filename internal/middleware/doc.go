// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

/*
Package middleware provides the infrastructure HTTP middleware of the API.

Every component has the chi signature func(http.Handler) http.Handler and is
installed globally by the router:

	r.Use(middleware.RequestID)       // X-Request-ID and logging context
	r.Use(middleware.AccessLog)       // one zerolog line per request
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.PrometheusMetrics)

Authentication, authorization and rate limiting live in internal/auth,
internal/authz and the api package.

PrometheusMetrics labels requests by the matched chi route pattern, e.g.
"/api/v1/posts/{id}", so post ids do not explode label cardinality.
Requests that match no route are labelled "unmatched".
*/
package middleware
