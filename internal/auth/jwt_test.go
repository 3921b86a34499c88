// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/flowsentry/flowsentry/internal/config"
)

func TestNewJWTManager(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.SecurityConfig
		wantErr bool
	}{
		{
			name: "valid secret",
			cfg: &config.SecurityConfig{
				JWTSecret:      "this_is_a_very_long_secret_key_with_32_plus_characters",
				SessionTimeout: 24 * time.Hour,
			},
			wantErr: false,
		},
		{
			name: "empty secret",
			cfg: &config.SecurityConfig{
				JWTSecret:      "",
				SessionTimeout: 24 * time.Hour,
			},
			wantErr: true,
		},
		{
			name: "secret below 32 characters",
			cfg: &config.SecurityConfig{
				JWTSecret:      "too_short_for_hs256_signing",
				SessionTimeout: 24 * time.Hour,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewJWTManager(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("NewJWTManager() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("NewJWTManager() unexpected error = %v", err)
				return
			}
			if manager == nil {
				t.Error("NewJWTManager() returned nil manager")
			}
		})
	}
}

func TestJWTManager_Timeout(t *testing.T) {
	cfg := &config.SecurityConfig{
		JWTSecret:      "this_is_a_very_long_secret_key_for_testing_purposes_12345",
		SessionTimeout: 6 * time.Hour,
	}

	manager, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	if got := manager.Timeout(); got != 6*time.Hour {
		t.Errorf("Timeout() = %v, want %v", got, 6*time.Hour)
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	cfg := &config.SecurityConfig{
		JWTSecret:      "this_is_a_very_long_secret_key_for_testing_purposes_12345",
		SessionTimeout: 1 * time.Hour,
	}

	manager, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	tests := []struct {
		name     string
		username string
		role     string
	}{
		{
			name:     "admin token",
			username: "operator",
			role:     "admin",
		},
		{
			name:     "viewer token",
			username: "analyst",
			role:     "viewer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Generate token
			token, err := manager.GenerateToken(tt.username, tt.role)
			if err != nil {
				t.Errorf("GenerateToken() error = %v", err)
				return
			}
			if token == "" {
				t.Error("GenerateToken() returned empty token")
				return
			}

			// Validate token
			claims, err := manager.ValidateToken(token)
			if err != nil {
				t.Errorf("ValidateToken() error = %v", err)
				return
			}
			if claims == nil {
				t.Error("ValidateToken() returned nil claims")
				return
			}
			if claims.Username != tt.username {
				t.Errorf("ValidateToken() username = %v, want %v", claims.Username, tt.username)
			}
			if claims.Role != tt.role {
				t.Errorf("ValidateToken() role = %v, want %v", claims.Role, tt.role)
			}
		})
	}
}

func TestGenerateTokenWithTTL(t *testing.T) {
	cfg := &config.SecurityConfig{
		JWTSecret:      "this_is_a_very_long_secret_key_for_testing_purposes_12345",
		SessionTimeout: 1 * time.Hour,
	}

	manager, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	token, err := manager.GenerateTokenWithTTL("operator", "admin", RememberMeTimeout)
	if err != nil {
		t.Fatalf("GenerateTokenWithTTL() error = %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}

	if claims.ExpiresAt == nil {
		t.Fatal("ValidateToken() claims missing ExpiresAt")
	}

	// Expiry should land near now+30d, far beyond the 1h session timeout.
	wantExpiry := time.Now().Add(RememberMeTimeout)
	diff := claims.ExpiresAt.Time.Sub(wantExpiry)
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("ExpiresAt = %v, want within 1m of %v", claims.ExpiresAt.Time, wantExpiry)
	}
}

func TestValidateToken_Invalid(t *testing.T) {
	cfg := &config.SecurityConfig{
		JWTSecret:      "this_is_a_very_long_secret_key_for_testing_purposes_12345",
		SessionTimeout: 1 * time.Hour,
	}

	manager, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "invalid token format",
			token: "invalid.token.format",
		},
		{
			name:  "empty token",
			token: "",
		},
		{
			name:  "malformed token",
			token: "not_a_jwt_token",
		},
		{
			name: "algorithm none attack",
			// Header {"alg":"none","typ":"JWT"} with admin claims and empty signature.
			token: "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJ1c2VybmFtZSI6ImFkbWluIiwicm9sZSI6ImFkbWluIn0.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := manager.ValidateToken(tt.token)
			if err == nil {
				t.Error("ValidateToken() expected error for invalid token, got nil")
			}
			if claims != nil {
				t.Error("ValidateToken() expected nil claims for invalid token")
			}
		})
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	cfg1 := &config.SecurityConfig{
		JWTSecret:      "first_secret_key_that_is_long_enough_for_testing_12345",
		SessionTimeout: 1 * time.Hour,
	}
	cfg2 := &config.SecurityConfig{
		JWTSecret:      "second_secret_key_that_is_different_from_first_12345",
		SessionTimeout: 1 * time.Hour,
	}

	manager1, err := NewJWTManager(cfg1)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	manager2, err := NewJWTManager(cfg2)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	// Generate token with first manager
	token, err := manager1.GenerateToken("operator", "admin")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	// Try to validate with second manager (different secret)
	claims, err := manager2.ValidateToken(token)
	if err == nil {
		t.Error("ValidateToken() expected error when using wrong secret, got nil")
	}
	if claims != nil {
		t.Error("ValidateToken() expected nil claims when using wrong secret")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	cfg := &config.SecurityConfig{
		JWTSecret:      "secret_key_for_expiration_test_that_is_long_enough_12345",
		SessionTimeout: 1 * time.Hour,
	}

	manager, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	// Generate already-expired token
	token, err := manager.GenerateTokenWithTTL("operator", "admin", -1*time.Hour)
	if err != nil {
		t.Fatalf("GenerateTokenWithTTL() error = %v", err)
	}

	// Try to validate expired token
	claims, err := manager.ValidateToken(token)
	if err == nil {
		t.Error("ValidateToken() expected error for expired token, got nil")
	}
	if claims != nil {
		t.Error("ValidateToken() expected nil claims for expired token")
	}
	if err != nil && !strings.Contains(err.Error(), "expired") {
		t.Errorf("ValidateToken() error = %v, want mention of expiry", err)
	}
}

func TestValidateToken_TamperedPayload(t *testing.T) {
	cfg := &config.SecurityConfig{
		JWTSecret:      "secret_key_for_tampering_test_that_is_long_enough_12345",
		SessionTimeout: 1 * time.Hour,
	}

	manager, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	token, err := manager.GenerateToken("analyst", "viewer")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	// Swap the payload segment for one claiming admin; signature no longer matches.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token segment count %d", len(parts))
	}
	parts[1] = "eyJ1c2VybmFtZSI6ImFuYWx5c3QiLCJyb2xlIjoiYWRtaW4ifQ"
	tampered := strings.Join(parts, ".")

	claims, err := manager.ValidateToken(tampered)
	if err == nil {
		t.Error("ValidateToken() expected error for tampered token, got nil")
	}
	if claims != nil {
		t.Error("ValidateToken() expected nil claims for tampered token")
	}
}
