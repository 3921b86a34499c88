// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

/*
Package auth provides authentication, authorization, and rate limiting middleware.

This package implements JWT and API key authentication for the Flowsentry
detection API. It serves as the security layer between incoming HTTP requests
and the API handlers.

Key Components:

  - JWTManager: Token generation and validation using HMAC-SHA256
  - APIKeyVerifier: Sensor agent API keys checked against bcrypt hashes
  - AdminVerifier: Operator credential check for the login endpoint
  - Middleware: HTTP middleware for authentication, authorization, and rate limiting
  - RateLimiter: Per-IP token bucket rate limiter with idle-entry cleanup

Authentication Modes:

The engine supports four authentication modes (configured via AUTH_MODE):

 1. none (default): All requests pass through unauthenticated. Suitable only
    for isolated lab deployments.

 2. apikey: Sensor agents present an API key in the X-API-Key header. Keys are
    verified against the bcrypt hashes in API_KEY_HASHES and authenticate as
    the sensor role.

 3. jwt: Operators log in with admin credentials and receive an HS256-signed
    token, carried in an HTTP-only cookie or an Authorization: Bearer header.

 4. multi: Requests with an X-API-Key header take the apikey path; everything
    else takes the jwt path. Lets sensor agents and human operators share one
    endpoint surface.

Usage Example:

	jwtManager, err := auth.NewJWTManager(cfg.Security)
	if err != nil {
	    log.Fatal(err)
	}

	apiKeys, err := auth.NewAPIKeyVerifier(cfg.Security.APIKeyHashes)
	if err != nil {
	    log.Fatal(err)
	}

	m := auth.NewMiddleware(cfg.Security, jwtManager, apiKeys)
	defer m.Stop()

	mux.HandleFunc("/api/v1/detect", m.RateLimit(m.Authenticate(handler.Detect)))
	mux.HandleFunc("/api/v1/models/reload", m.RequireRole(models.RoleAdmin, handler.ReloadModels))

Handlers read the authenticated identity from the request context:

	claims := auth.GetClaims(r.Context())
	if claims != nil {
	    logging.Info().Str("username", claims.Username).Msg("authenticated request")
	}

Key generation:

	plaintext, hash, err := auth.GenerateAPIKey()
	// Hand plaintext to the sensor operator once; store only hash in config.

Failed authentication, authorization, and rate limit checks all answer with the
standard API error envelope (AUTHENTICATION_ERROR, AUTHORIZATION_ERROR,
RATE_LIMIT_EXCEEDED) so clients parse one error shape everywhere.

CORS and security headers are handled in the API layer (go-chi/cors and the
router's header middleware), not here.
*/
package auth
