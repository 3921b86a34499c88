// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/flowsentry/flowsentry/internal/config"
	"github.com/flowsentry/flowsentry/internal/logging"
	"github.com/flowsentry/flowsentry/internal/metrics"
	"github.com/flowsentry/flowsentry/internal/models"
)

// Authentication modes accepted by the middleware. Config validation
// guarantees AuthMode is one of these before the middleware is built.
const (
	AuthModeNone   = "none"
	AuthModeAPIKey = "apikey"
	AuthModeJWT    = "jwt"
	AuthModeMulti  = "multi"
)

type contextKey string

// ClaimsContextKey is the context key under which authenticated claims are
// stored for downstream handlers.
const ClaimsContextKey contextKey = "claims"

// Middleware provides authentication and rate limiting middleware
type Middleware struct {
	jwtManager        *JWTManager
	apiKeys           *APIKeyVerifier
	authMode          string
	rateLimiter       *RateLimiter
	rateLimitDisabled bool
	trustedProxies    map[string]bool
}

// NewMiddleware creates authentication middleware from the security config.
// jwtManager and apiKeys may be nil for modes that do not use them; multi mode
// tries whichever are configured.
func NewMiddleware(cfg *config.SecurityConfig, jwtManager *JWTManager, apiKeys *APIKeyVerifier) *Middleware {
	trustedMap := make(map[string]bool)
	for _, proxy := range cfg.TrustedProxies {
		trustedMap[proxy] = true
	}

	m := &Middleware{
		jwtManager:        jwtManager,
		apiKeys:           apiKeys,
		authMode:          cfg.AuthMode,
		rateLimiter:       NewRateLimiter(cfg.RateLimitReqs, cfg.RateLimitWindow),
		rateLimitDisabled: cfg.RateLimitDisabled,
		trustedProxies:    trustedMap,
	}

	// Start periodic cleanup for rate limiter (only if not disabled)
	if !cfg.RateLimitDisabled {
		go m.rateLimiter.startCleanup(5 * time.Minute)
	}

	return m
}

// Stop releases the middleware's background resources.
func (m *Middleware) Stop() {
	m.rateLimiter.Stop()
}

// AuthMode returns the configured authentication mode.
func (m *Middleware) AuthMode() string {
	return m.authMode
}

// JWTManager returns the JWT manager, or nil when JWT auth is not configured.
func (m *Middleware) JWTManager() *JWTManager {
	return m.jwtManager
}

// Authenticate is middleware that enforces authentication
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch m.authMode {
		case AuthModeNone, "":
			next(w, r)

		case AuthModeAPIKey:
			m.handleAPIKeyAuth(w, r, next)

		case AuthModeJWT:
			m.handleJWTAuth(w, r, next)

		case AuthModeMulti:
			// Sensor agents identify themselves with the X-API-Key header;
			// everything else goes through the JWT path.
			if r.Header.Get(APIKeyHeader) != "" && m.apiKeys != nil {
				m.handleAPIKeyAuth(w, r, next)
				return
			}
			m.handleJWTAuth(w, r, next)

		default:
			respondError(w, http.StatusInternalServerError, "AUTH_NOT_CONFIGURED", "unsupported auth mode")
		}
	}
}

// handleAPIKeyAuth processes sensor API key authentication requests
func (m *Middleware) handleAPIKeyAuth(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	if m.apiKeys == nil {
		respondError(w, http.StatusInternalServerError, "AUTH_NOT_CONFIGURED", "API key auth is not configured")
		return
	}

	key := r.Header.Get(APIKeyHeader)
	if key == "" {
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "authentication required")
		return
	}

	idx, ok := m.apiKeys.Verify(key)
	if !ok {
		logging.Warn().Str("remote_ip", m.getClientIP(r)).Msg("API key validation failed")
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "invalid API key")
		return
	}

	claims := &Claims{
		Username: fmt.Sprintf("sensor-%d", idx),
		Role:     models.RoleSensor,
	}
	ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
	next(w, r.WithContext(ctx))
}

// handleJWTAuth processes JWT authentication requests
func (m *Middleware) handleJWTAuth(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	if m.jwtManager == nil {
		respondError(w, http.StatusInternalServerError, "AUTH_NOT_CONFIGURED", "JWT auth is not configured")
		return
	}

	token, err := m.extractJWTToken(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", err.Error())
		return
	}

	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		logging.Warn().Err(err).Msg("token validation failed")
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "invalid or expired token")
		return
	}

	ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
	next(w, r.WithContext(ctx))
}

// extractJWTToken extracts a JWT from the Authorization header or token cookie
func (m *Middleware) extractJWTToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie("token")
		if err != nil {
			return "", fmt.Errorf("missing token")
		}
		return cookie.Value, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("invalid authorization header")
	}

	return parts[1], nil
}

// RequireRole is middleware that enforces a specific role.
// The admin role passes every role check.
func (m *Middleware) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return m.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == AuthModeNone || m.authMode == "" {
			next(w, r)
			return
		}

		claims := GetClaims(r.Context())
		if claims == nil {
			respondError(w, http.StatusForbidden, "AUTHORIZATION_ERROR", "invalid claims")
			return
		}

		if claims.Role != role && claims.Role != models.RoleAdmin {
			respondError(w, http.StatusForbidden, "AUTHORIZATION_ERROR", "insufficient permissions")
			return
		}

		next(w, r)
	})
}

// GetClaims retrieves the authenticated claims from the request context.
// Returns nil when the request was not authenticated.
func GetClaims(ctx context.Context) *Claims {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// RateLimit is middleware that enforces per-IP rate limiting
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip rate limiting if disabled (for CI/CD tests)
		if m.rateLimitDisabled {
			next(w, r)
			return
		}

		ip := m.getClientIP(r)
		if !m.rateLimiter.Allow(ip) {
			metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
			respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "too many requests")
			return
		}
		next(w, r)
	}
}

// respondError writes the standard error envelope used by the API layer.
func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := models.ErrorResponse{
		Success: false,
		Error:   &models.APIError{Code: code, Message: message},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("failed to encode auth error response")
	}
}

// getClientIP extracts the client IP address from the request with proxy validation
func (m *Middleware) getClientIP(r *http.Request) string {
	remoteIP := remoteAddrIP(r.RemoteAddr)

	if !m.isFromTrustedProxy(remoteIP) {
		return remoteIP
	}

	// Try X-Forwarded-For first
	if clientIP := m.extractIPFromXFF(r); clientIP != "" {
		return clientIP
	}

	// Try X-Real-IP as fallback
	if clientIP := m.extractIPFromXRealIP(r); clientIP != "" {
		return clientIP
	}

	// No valid headers, use RemoteAddr
	return remoteIP
}

// isFromTrustedProxy checks if the remote IP is a trusted proxy
func (m *Middleware) isFromTrustedProxy(remoteIP string) bool {
	return len(m.trustedProxies) > 0 && m.trustedProxies[remoteIP]
}

// extractIPFromXFF extracts and validates the client IP from X-Forwarded-For
func (m *Middleware) extractIPFromXFF(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return ""
	}

	clientIP := strings.TrimSpace(strings.Split(xff, ",")[0])
	if net.ParseIP(clientIP) != nil {
		return clientIP
	}

	return ""
}

// extractIPFromXRealIP extracts and validates the client IP from X-Real-IP
func (m *Middleware) extractIPFromXRealIP(r *http.Request) string {
	xri := r.Header.Get("X-Real-IP")
	if xri != "" && net.ParseIP(xri) != nil {
		return xri
	}
	return ""
}

// remoteAddrIP strips the port from a RemoteAddr, handling bracketed IPv6.
func remoteAddrIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// RateLimiter implements per-IP rate limiting with automatic cleanup
type RateLimiter struct {
	limiters  map[string]*rateLimiterEntry
	mu        sync.RWMutex
	rate      rate.Limit
	burst     int
	stopClean chan struct{}
}

// rateLimiterEntry wraps a rate limiter with last access time
type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter creates a rate limiter allowing reqsPerWindow requests per
// window per key. Tokens refill evenly across the window so a sustained client
// sees the configured rate rather than one burst per window.
func NewRateLimiter(reqsPerWindow int, window time.Duration) *RateLimiter {
	if reqsPerWindow <= 0 {
		reqsPerWindow = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return &RateLimiter{
		limiters:  make(map[string]*rateLimiterEntry),
		rate:      rate.Every(window / time.Duration(reqsPerWindow)),
		burst:     reqsPerWindow,
		stopClean: make(chan struct{}),
	}
}

// Allow checks if a request from the given IP is allowed
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	entry, exists := rl.limiters[ip]
	if !exists {
		entry = &rateLimiterEntry{
			limiter:    rate.NewLimiter(rl.rate, rl.burst),
			lastAccess: time.Now(),
		}
		rl.limiters[ip] = entry
	} else {
		entry.lastAccess = time.Now()
	}
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// startCleanup periodically removes stale rate limiters
func (rl *RateLimiter) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopClean:
			return
		}
	}
}

// cleanup removes rate limiters that haven't been accessed in the last hour
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := time.Now().Add(-1 * time.Hour)
	for ip, entry := range rl.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(rl.limiters, ip)
		}
	}
}

// Stop stops the cleanup goroutine
func (rl *RateLimiter) Stop() {
	close(rl.stopClean)
}
