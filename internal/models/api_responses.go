// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package models

import (
	"time"
)

// ErrorResponse is the standardized error envelope for all HTTP endpoints.
// Success responses return their payload bare; only failures are wrapped, so
// clients can parse one error shape everywhere.
//
// Example:
//
//	{
//	  "success": false,
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "features must not be empty",
//	    "details": {"field": "features"},
//	    "request_id": "9f3b2c1a"
//	  }
//	}
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// APIError carries structured error details inside ErrorResponse.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - MODELS_NOT_LOADED: No detection models available
//   - BATCH_TOO_LARGE: Batch exceeds the configured maximum size
//   - AUTHENTICATION_ERROR: Invalid or missing credentials
//   - AUTHORIZATION_ERROR: Insufficient permissions
//   - NOT_FOUND: Resource doesn't exist
//   - RATE_LIMIT_EXCEEDED: Too many requests
//   - INTERNAL_ERROR: Unexpected server-side failure
type APIError struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// LoginRequest represents a login request for JWT authentication.
// Supports both standard and "remember me" login flows.
//
// Fields:
//   - Username: Operator's login name
//   - Password: Operator's password (plaintext, transmitted over HTTPS)
//   - RememberMe: If true, extends token expiration to 30 days (default 24h)
type LoginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// LoginResponse represents a successful login response with JWT token.
// Returns signed JWT token for subsequent authenticated requests.
//
// Fields:
//   - Token: Signed JWT token (HS256 algorithm)
//   - ExpiresAt: Token expiration timestamp (24h standard, 30d remember me)
//   - Username: Authenticated username
//   - Role: Operator's role (viewer, sensor, admin)
//   - UserID: Unique user identifier
//
// Token usage:
//   - Set as HTTP-only cookie by server (XSS protection)
//   - OR sent as Authorization: Bearer <token> header
//   - Validated on every protected endpoint
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	UserID    string    `json:"user_id"`
}
