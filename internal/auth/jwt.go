// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/flowsentry/flowsentry/internal/config"
)

// minSecretLength is the minimum JWT secret length in bytes. Shorter HMAC keys
// weaken the signature beyond what HS256 is rated for.
const minSecretLength = 32

// RememberMeTimeout is the extended session duration granted when a login
// request sets remember_me. Standard sessions use SecurityConfig.SessionTimeout.
const RememberMeTimeout = 30 * 24 * time.Hour

// Claims represents JWT claims
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token creation and validation
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager creates a new JWT token manager with the configured secret and timeout.
//
// The manager signs tokens with HMAC-SHA256 (HS256). The secret is stored as
// []byte to prevent string interning attacks.
//
// Parameters:
//   - cfg: Security configuration containing JWT secret and session timeout
//
// Returns:
//   - Pointer to initialized JWTManager
//   - error if JWT_SECRET is empty or shorter than 32 characters
//
// Example:
//
//	jwtManager, err := auth.NewJWTManager(cfg.Security)
//	if err != nil {
//	    log.Fatal("Failed to initialize JWT manager:", err)
//	}
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters, got %d", minSecretLength, len(secret))
	}

	return &JWTManager{
		secret:  []byte(secret),
		timeout: cfg.SessionTimeout,
	}, nil
}

// Timeout returns the configured standard session duration.
func (m *JWTManager) Timeout() time.Duration {
	return m.timeout
}

// GenerateToken creates a new JWT token for an authenticated user.
//
// The token carries the user's username and role and is valid for the
// configured session timeout (default: 24 hours).
//
// Token Claims:
//   - Username: User identifier
//   - Role: Authorization role (e.g. "admin", "viewer")
//   - ExpiresAt: Session timeout (now + configured timeout)
//   - IssuedAt: Token creation timestamp
//   - NotBefore: Token becomes valid immediately
//
// Tokens are stateless and cannot be revoked before expiration; clients must
// store them securely (HTTP-only cookie recommended).
func (m *JWTManager) GenerateToken(username, role string) (string, error) {
	return m.GenerateTokenWithTTL(username, role, m.timeout)
}

// GenerateTokenWithTTL creates a JWT token with an explicit lifetime instead of
// the configured session timeout. Used for remember-me logins, which extend the
// session to RememberMeTimeout.
func (m *JWTManager) GenerateTokenWithTTL(username, role string, ttl time.Duration) (string, error) {
	claims := &Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken validates a JWT token and extracts the user claims.
//
// Validation Steps:
//  1. Parse token structure and extract claims
//  2. Verify HMAC-SHA256 signature matches secret
//  3. Check signing algorithm is HMAC (prevents algorithm confusion attacks)
//  4. Verify token expiration (ExpiresAt claim)
//  5. Verify NotBefore claim (token is active)
//
// Common Errors:
//   - "token is expired": Token exceeded its lifetime, user must re-authenticate
//   - "unexpected signing method": Possible algorithm confusion attack
//   - "failed to parse token": Malformed token or wrong secret
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
