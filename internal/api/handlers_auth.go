// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/flowsentry/flowsentry/internal/auth"
	"github.com/flowsentry/flowsentry/internal/models"
)

// Login authenticates the configured admin user and issues a JWT.
//
// Method: POST
// Path: /api/v1/auth/login
//
// Only available when the auth mode is "jwt" or "multi". Sensors
// authenticate with API keys and never hit this endpoint.
//
// Response:
//   - 200: Token issued (also set as an HttpOnly cookie)
//   - 400: Malformed body or missing credentials
//   - 401: Invalid credentials
//   - 403: Authentication disabled
//   - 500: JWT manager or admin account not configured
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseAndValidateLoginRequest(w, r)
	if !ok {
		return
	}

	if !h.validateAuthConfiguration(w, r) {
		return
	}

	if !h.authenticateCredentials(w, r, req) {
		return
	}

	h.generateAndSendToken(w, r, req)
}

// parseAndValidateLoginRequest decodes and validates the login request body.
func (h *Handler) parseAndValidateLoginRequest(w http.ResponseWriter, r *http.Request) (*models.LoginRequest, bool) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err)
		return nil, false
	}

	validationReq := LoginRequestValidation{
		Username:   req.Username,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	}
	if apiErr := validateRequest(&validationReq); apiErr != nil {
		respondValidationError(w, r, apiErr)
		return nil, false
	}

	return &req, true
}

// validateAuthConfiguration checks that password login is enabled and wired.
func (h *Handler) validateAuthConfiguration(w http.ResponseWriter, r *http.Request) bool {
	authMode := ""
	if h.config != nil {
		authMode = h.config.Security.AuthMode
	}
	if authMode != auth.AuthModeJWT && authMode != auth.AuthModeMulti {
		respondError(w, r, http.StatusForbidden, "AUTH_DISABLED", "Authentication is disabled", nil)
		return false
	}

	if h.jwtManager == nil {
		respondError(w, r, http.StatusInternalServerError, "AUTH_NOT_CONFIGURED", "JWT manager not initialized", nil)
		return false
	}

	if h.admin == nil {
		respondError(w, r, http.StatusInternalServerError, "AUTH_NOT_CONFIGURED", "Admin account not configured", nil)
		return false
	}

	return true
}

// authenticateCredentials verifies the supplied credentials against the
// configured admin account.
func (h *Handler) authenticateCredentials(w http.ResponseWriter, r *http.Request, req *models.LoginRequest) bool {
	if !h.admin.Verify(req.Username, req.Password) {
		h.secLog.LogLoginFailure(req.Username, "password", r.RemoteAddr, r.UserAgent(), "invalid credentials")
		respondError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
		return false
	}
	return true
}

// generateAndSendToken issues the JWT, sets the session cookie, and writes
// the login response.
func (h *Handler) generateAndSendToken(w http.ResponseWriter, r *http.Request, req *models.LoginRequest) {
	role := models.RoleAdmin

	ttl := h.jwtManager.Timeout()
	if req.RememberMe {
		ttl = auth.RememberMeTimeout
	}

	token, err := h.jwtManager.GenerateTokenWithTTL(req.Username, role, ttl)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to generate token", err)
		return
	}

	expiresAt := time.Now().Add(ttl)
	h.setAuthCookie(w, r, token, expiresAt)

	h.secLog.LogLoginSuccess(req.Username, "password", r.RemoteAddr, r.UserAgent())
	h.secLog.LogTokenIssued(req.Username, r.RemoteAddr)

	respondJSON(w, http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Username:  req.Username,
		Role:      role,
		UserID:    fmt.Sprintf("%s-001", req.Username),
	})
}

// setAuthCookie stores the JWT in an HttpOnly cookie so browser dashboards
// can hold a session without script-visible tokens.
func (h *Handler) setAuthCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}
