// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowsentry/flowsentry/internal/auth"
	"github.com/flowsentry/flowsentry/internal/middleware"
	"github.com/flowsentry/flowsentry/internal/models"
)

// Router sets up HTTP routes using the Chi router.
type Router struct {
	handler       *Handler
	middleware    *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a new router with all routes configured.
func NewRouter(handler *Handler, authMw *auth.Middleware) *Router {
	chiMw := NewChiMiddlewareFromSecurity(
		handler.corsOrigins(),
		handler.rateLimitReqs(),
		handler.rateLimitWindow(),
		handler.rateLimitDisabled(),
	)

	return &Router{
		handler:       handler,
		middleware:    authMw,
		chiMiddleware: chiMw,
	}
}

// chiMiddlewareFunc adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler so the auth and metrics middleware
// compose with r.Use().
func chiMiddlewareFunc(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes using the Chi router.
//
// Route groups:
//   - /api/v1/health: liveness/readiness probes, permissive rate limit, no auth
//   - /api/v1/auth: login, strict rate limit
//   - /api/v1: detection, catalog, and stats endpoints, authenticated
//   - /ws: WebSocket detection stream, authenticated
//   - /metrics: Prometheus scrape endpoint
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// Health endpoints: no auth so orchestrators and load balancers can probe.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// Authentication endpoints: strict rate limiting against brute force.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAuth())
		r.Use(APISecurityHeaders())
		r.With(router.chiMiddleware.RateLimitLogin()).Post("/login", router.handler.Login)
	})

	// Core detection API. All data endpoints require authentication.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddlewareFunc(middleware.PrometheusMetrics))
		r.Use(chiMiddlewareFunc(router.middleware.Authenticate))

		r.Post("/detect", router.handler.Detect)
		r.Post("/detect/batch", router.handler.DetectBatch)

		// Gzip on read endpoints only; the WebSocket route needs a
		// hijackable response writer.
		gz := chiMiddlewareFunc(middleware.Compression)
		r.With(gz).Get("/detections/recent", router.handler.RecentDetections)
		r.With(gz).Get("/models", router.handler.Models)
		r.With(gz).Get("/stats", router.handler.Stats)
		r.Get("/ws", router.handler.WebSocket)

		// Admin-only surfaces.
		r.Post("/models/reload", router.middleware.RequireRole(models.RoleAdmin, router.handler.ReloadModels))
		r.Get("/stats/endpoints", router.middleware.RequireRole(models.RoleAdmin, router.handler.EndpointStats))
	})

	// Compatibility aliases for capture agents speaking the original wire
	// surface: bare /ws and /health at the root.
	r.With(
		APISecurityHeaders(),
		chiMiddlewareFunc(router.middleware.Authenticate),
	).Get("/ws", router.handler.WebSocket)
	r.With(router.chiMiddleware.RateLimitHealth()).Get("/health", router.handler.Health)

	// Service info at the root, mirroring the health group's limits.
	r.With(router.chiMiddleware.RateLimitHealth()).Get("/", router.handler.Root)

	// Prometheus metrics. Not rate limited: scraped on a tight interval by
	// infrastructure that is expected to be network-restricted.
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Configuration accessors with safe defaults for a nil config, used by
// NewRouter before the middleware stack exists.

func (h *Handler) corsOrigins() []string {
	if h.config == nil {
		return nil
	}
	return h.config.Security.CORSOrigins
}

func (h *Handler) rateLimitReqs() int {
	if h.config == nil || h.config.Security.RateLimitReqs <= 0 {
		return 100
	}
	return h.config.Security.RateLimitReqs
}

func (h *Handler) rateLimitWindow() time.Duration {
	if h.config == nil || h.config.Security.RateLimitWindow <= 0 {
		return time.Minute
	}
	return h.config.Security.RateLimitWindow
}

func (h *Handler) rateLimitDisabled() bool {
	return h.config != nil && h.config.Security.RateLimitDisabled
}
