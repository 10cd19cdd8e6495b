// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/areyes-dev/lodestar/internal/middleware"
)

// Router sets up HTTP routes using the Chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router serving the given handler through the given
// middleware stack.
func NewRouter(handler *Handler, chiMw *ChiMiddleware) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: chiMw,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
// This allows the middleware package's handlers to work with Chi's r.Use().
// Used for PrometheusMetrics and Compression.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes using the Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	// Applied to ALL routes in order
	r.Use(RequestIDWithLogging())      // Add X-Request-ID header with logging context
	r.Use(chimiddleware.RealIP)        // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)     // Recover from panics
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(router.handler.PerformanceMonitor().Middleware)

	// ========================
	// Health Endpoints
	// ========================
	// Permissive rate limiting (1000/min) so orchestrators and uptime
	// monitors can probe frequently
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// ========================
	// Recommendation Serving
	// ========================
	router.registerChiRecommendRoutes(r)

	// ========================
	// Feedback Ingestion
	// ========================
	router.registerChiFeedbackRoutes(r)

	// ========================
	// Student Management
	// ========================
	router.registerChiStudentRoutes(r)

	// ========================
	// Program Catalog
	// ========================
	router.registerChiProgramRoutes(r)

	// ========================
	// Analytics Endpoints
	// ========================
	router.registerChiAnalyticsRoutes(r)

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// registerChiRecommendRoutes adds recommendation serving and model
// management routes.
func (router *Router) registerChiRecommendRoutes(r chi.Router) {
	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(middleware.Compression))

		r.Post("/", router.handler.CreateRecommendations)
	})

	r.Route("/api/v1/retrain", func(r chi.Router) {
		// Strict limit (5/min): each accepted request spawns a training run
		r.Use(router.chiMiddleware.RateLimitTrain())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Post("/", router.handler.TriggerRetrain)
	})

	r.Route("/api/v1/model", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Get("/status", router.handler.GetModelStatus)
	})
}

// registerChiFeedbackRoutes adds the feedback submission route.
func (router *Router) registerChiFeedbackRoutes(r chi.Router) {
	r.Route("/api/v1/feedback", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitWrite())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Post("/", router.handler.SubmitFeedback)
	})
}

// registerChiStudentRoutes adds student CRUD and per-student
// recommendation routes.
func (router *Router) registerChiStudentRoutes(r chi.Router) {
	r.Route("/api/v1/students", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(middleware.Compression))

		r.Get("/", router.handler.ListStudents)
		r.With(router.chiMiddleware.RateLimitWrite()).Post("/", router.handler.CreateStudent)

		r.Get("/{id}", router.handler.GetStudent)
		r.With(router.chiMiddleware.RateLimitWrite()).Put("/{id}", router.handler.UpdateStudent)
		r.With(router.chiMiddleware.RateLimitWrite()).Delete("/{id}", router.handler.DeleteStudent)

		r.Get("/{id}/strategy", router.handler.GetStrategy)
		r.Get("/{id}/recommendations", router.handler.GetHistory)
	})
}

// registerChiProgramRoutes adds program catalog routes.
func (router *Router) registerChiProgramRoutes(r chi.Router) {
	r.Route("/api/v1/programs", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(middleware.Compression))

		r.Get("/", router.handler.ListPrograms)
		r.With(router.chiMiddleware.RateLimitWrite()).Post("/", router.handler.CreateProgram)

		r.Get("/{id}", router.handler.GetProgram)
		r.With(router.chiMiddleware.RateLimitWrite()).Delete("/{id}", router.handler.DeleteProgram)

		r.Get("/{id}/similar", router.handler.GetSimilar)
	})
}

// registerChiAnalyticsRoutes adds read-only analytics routes.
// Permissive rate limiting (1000/min) for smooth dashboard exploration.
func (router *Router) registerChiAnalyticsRoutes(r chi.Router) {
	r.Route("/api/v1/analytics", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAnalytics())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(middleware.Compression))

		r.Get("/engagement", router.handler.GetEngagementAnalytics)
		r.Get("/programs", router.handler.GetProgramAnalytics)
		r.Get("/dashboard", router.handler.GetDashboard)
		r.Get("/performance", router.handler.GetPerformanceStats)
	})
}
