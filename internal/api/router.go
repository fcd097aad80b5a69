// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/indieforge/internal/auth"
	"github.com/tomtom215/indieforge/internal/authz"
	"github.com/tomtom215/indieforge/internal/middleware"
)

// compressionLevel is the gzip level of JSON responses.
const compressionLevel = 5

// Router wires handlers and middleware into the chi route tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	authMW        *auth.Middleware
	authzMW       *authz.Middleware
}

// NewRouter creates a new router.
func NewRouter(handler *Handler, chiMW *ChiMiddleware, authMW *auth.Middleware, authzMW *authz.Middleware) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: chiMW,
		authMW:        authMW,
		authzMW:       authzMW,
	}
}

// Handler builds the HTTP handler of the whole API.
func (router *Router) Handler() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.PrometheusMetrics)
	r.Use(requestContext)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	h := router.handler
	// One limiter shared by the JSON and binary groups.
	rateLimit := router.chiMiddleware.RateLimit()
	r.Route("/api/v1", func(r chi.Router) {
		// Health checks skip authentication and rate limiting.
		r.Group(func(r chi.Router) {
			r.Get("/health", h.HealthReady)
			r.Get("/health/live", h.HealthLive)
			r.Get("/health/ready", h.HealthReady)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.authMW.Optional)
			r.Use(router.authzMW.Authorize)

			// Credential endpoints get the strict limit.
			r.Group(func(r chi.Router) {
				r.Use(router.chiMiddleware.RateLimitAuth())
				r.Use(chimiddleware.Compress(compressionLevel, "application/json"))
				r.Post("/auth/signup", h.Signup)
				r.Post("/auth/login", h.Login)
			})

			r.Group(func(r chi.Router) {
				r.Use(rateLimit)
				r.Use(chimiddleware.Compress(compressionLevel, "application/json"))
				router.jsonRoutes(r)
			})

			// Binary and streaming routes are never compressed.
			r.Group(func(r chi.Router) {
				r.Use(rateLimit)
				r.Post("/media", h.UploadMedia)
				r.Get("/media/{id}", h.GetMedia)
				r.Get("/media/{id}/thumb", h.GetMediaThumb)
				r.Delete("/media/{id}", h.DeleteMedia)
				r.Get("/ws", h.WebSocket)
			})
		})
	})

	return r
}

// jsonRoutes registers every JSON endpoint behind authentication.
func (router *Router) jsonRoutes(r chi.Router) {
	h := router.handler

	r.Post("/auth/logout", h.Logout)
	r.Get("/auth/me", h.Me)

	r.Get("/channels", h.Channels)
	r.Get("/channels/{id}/posts", h.ChannelPosts)

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.ListPosts)
		r.Post("/", h.CreatePost)
		r.Get("/top", h.TopPosts)
		r.Get("/{id}", h.GetPost)
		r.Put("/{id}", h.UpdatePost)
		r.Delete("/{id}", h.DeletePost)
		r.Post("/{id}/upvote", h.ToggleUpvote)
		r.Get("/{id}/comments", h.ListComments)
		r.Post("/{id}/comments", h.AddComment)
	})
	r.Delete("/comments/{id}", h.DeleteComment)

	r.Route("/whispers", func(r chi.Router) {
		r.Post("/", h.SendWhisper)
		r.Get("/inbox", h.Inbox)
		r.Get("/outbox", h.Outbox)
		r.Get("/unread", h.UnreadCount)
		r.Get("/with/{userID}", h.Conversation)
		r.Post("/read-all", h.MarkAllRead)
		r.Post("/{id}/read", h.MarkWhisperRead)
		r.Delete("/{id}", h.DeleteWhisper)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.SearchUsers)
		r.Put("/me", h.UpdateProfile)
		r.Get("/by-nickname/{nickname}", h.GetProfileByNickname)
		r.Get("/{id}", h.GetProfile)
		r.Get("/{id}/stats", h.UserStats)
	})

	r.Get("/rankings/overall", h.OverallRanking)
	r.Get("/rankings/{category}", h.CategoryRanking)

	r.Route("/inquiries", func(r chi.Router) {
		r.Post("/", h.CreateInquiry)
		r.Get("/mine", h.MyInquiries)
		r.Get("/{id}", h.GetInquiry)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/stats", h.AdminStats)
		r.Get("/users", h.AdminListUsers)
		r.Put("/users/{id}/role", h.SetUserRole)
		r.Put("/users/{id}/ban", h.SetUserBanned)
		r.Put("/posts/{id}/pin", h.PinPost)
		r.Get("/inquiries", h.AdminListInquiries)
		r.Post("/inquiries/{id}/answer", h.AnswerInquiry)
		r.Post("/inquiries/{id}/close", h.CloseInquiry)
		r.Get("/audit", h.AuditLog)
		r.Post("/rankings/recompute", h.TriggerRecompute)
		r.Get("/import/status", h.ImportStatus)
	})
}
