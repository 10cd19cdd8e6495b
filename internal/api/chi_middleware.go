// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

// Package api provides Chi middleware factories built on the
// production-hardened Chi ecosystem implementations.
package api

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/areyes-dev/lodestar/internal/config"
	"github.com/areyes-dev/lodestar/internal/logging"
)

// ChiMiddlewareConfig holds configuration for Chi middleware factories.
type ChiMiddlewareConfig struct {
	// CORS configuration
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSExposedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int // seconds

	// Rate limiting configuration
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// DefaultChiMiddlewareConfig returns a secure default configuration.
// CORS origins default to empty, requiring explicit configuration.
// This prevents accidental deployment with insecure wildcard CORS.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins:   []string{}, // Empty by default - requires explicit configuration
		CORSAllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		CORSExposedHeaders:   []string{"X-Request-ID"},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400, // 24 hours

		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RateLimitDisabled: false,
	}
}

// ChiMiddleware provides Chi-compatible middleware factories.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates a new Chi middleware factory with the given configuration.
func NewChiMiddleware(cfg *ChiMiddlewareConfig) *ChiMiddleware {
	if cfg == nil {
		cfg = DefaultChiMiddlewareConfig()
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		ExposedHeaders:   cfg.CORSExposedHeaders,
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           cfg.CORSMaxAge,
	})

	return &ChiMiddleware{
		config: cfg,
		cors:   corsHandler,
	}
}

// NewChiMiddlewareFromConfig creates a ChiMiddleware instance from the
// application API configuration, keeping the secure defaults for
// everything the config does not cover.
func NewChiMiddlewareFromConfig(apiCfg *config.APIConfig) *ChiMiddleware {
	cfg := DefaultChiMiddlewareConfig()
	if apiCfg != nil {
		cfg.CORSAllowedOrigins = apiCfg.CORSOrigins
		if apiCfg.RateLimitReqs > 0 {
			cfg.RateLimitRequests = apiCfg.RateLimitReqs
		}
		if apiCfg.RateLimitWindow > 0 {
			cfg.RateLimitWindow = apiCfg.RateLimitWindow
		}
		cfg.RateLimitDisabled = apiCfg.RateLimitDisabled
	}
	return NewChiMiddleware(cfg)
}

// CORS returns a Chi-compatible CORS middleware using go-chi/cors.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the default IP-keyed rate limiter using go-chi/httprate.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

// ================================================================================
// Endpoint-Specific Rate Limits
// ================================================================================

// RateLimitConfig defines rate limit parameters for specific endpoints.
type RateLimitConfig struct {
	// Requests is the number of requests allowed in the window
	Requests int
	// Window is the time window for rate limiting
	Window time.Duration
}

// Endpoint-specific rate limit configurations, tuned per endpoint
// characteristics.
var (
	// RateLimitWrite is moderate limiting for write operations
	// (feedback, student and program mutation).
	RateLimitWrite = RateLimitConfig{Requests: 30, Window: time.Minute}

	// RateLimitTrain is strict limiting for retrain triggers. Training is
	// the most expensive operation the service runs; the engine rejects
	// concurrent runs anyway, so a tight limit only cuts noise.
	RateLimitTrain = RateLimitConfig{Requests: 5, Window: time.Minute}

	// RateLimitAnalytics is permissive for read-heavy analytics.
	// Dashboards poll several charts at once.
	RateLimitAnalytics = RateLimitConfig{Requests: 1000, Window: time.Minute}

	// RateLimitHealth is permissive rate limiting for health endpoints.
	// Monitoring tools probe frequently; abuse is still bounded.
	RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}
)

// RateLimitCustom returns a rate limiter with custom configuration.
func (m *ChiMiddleware) RateLimitCustom(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.LimitByIP(cfg.Requests, cfg.Window)
}

// RateLimitWrite returns a rate limiter for write operations.
// Protects the database and the feedback journal from write floods.
func (m *ChiMiddleware) RateLimitWrite() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitWrite)
}

// RateLimitTrain returns a strict rate limiter for retrain triggers.
func (m *ChiMiddleware) RateLimitTrain() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitTrain)
}

// RateLimitAnalytics returns a rate limiter for analytics endpoints.
func (m *ChiMiddleware) RateLimitAnalytics() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitAnalytics)
}

// RateLimitHealth returns a rate limiter for health endpoints.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitHealth)
}

// ================================================================================
// API Security Headers
// ================================================================================

// APISecurityHeaders returns a middleware that adds security headers to
// API responses.
//
// Headers added:
//   - X-Content-Type-Options: nosniff (prevents MIME type sniffing)
//   - X-Frame-Options: DENY (prevents clickjacking)
//   - Referrer-Policy: strict-origin-when-cross-origin (limits referrer information)
//
// HSTS is added when the request arrives over HTTPS or behind a
// TLS-terminating proxy (X-Forwarded-Proto).
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestIDWithLogging returns a middleware that adds a request ID to the
// context and integrates with the logging package, so every log line
// emitted while serving a request carries its ID. Wraps chi's RequestID
// middleware; IDs from upstream proxies are preserved.
func RequestIDWithLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		chiRequestID := chimiddleware.RequestID(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				// chi would generate one, but we need it in the logging
				// context too, so generate ours and let chi adopt it
				requestID = logging.GenerateRequestID()
				r.Header.Set("X-Request-ID", requestID)
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := logging.ContextWithRequestID(r.Context(), requestID)

			chiRequestID.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
