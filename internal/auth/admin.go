// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// minAdminPasswordLength mirrors the config-layer password policy so a
// verifier can never be constructed around a password the policy rejects.
const minAdminPasswordLength = 12

// AdminVerifier checks operator credentials presented to the login endpoint.
// The configured password is bcrypt-hashed once at initialization so the
// plaintext never sits in memory past startup and requests only pay for a
// comparison.
type AdminVerifier struct {
	username     string
	passwordHash []byte
}

// NewAdminVerifier creates a verifier for the configured admin credentials.
func NewAdminVerifier(username, password string) (*AdminVerifier, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}
	if len(password) < minAdminPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", minAdminPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &AdminVerifier{
		username:     username,
		passwordHash: hash,
	}, nil
}

// Verify reports whether the presented credentials match the configured admin.
// Username comparison is constant-time and the password check goes through
// bcrypt, whose comparison is timing-safe. Both checks always run so a failed
// username does not short-circuit into a measurable timing difference.
func (v *AdminVerifier) Verify(username, password string) bool {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(v.username)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword(v.passwordHash, []byte(password)) == nil

	return usernameMatch && passwordMatch
}

// Username returns the configured admin username.
func (v *AdminVerifier) Username() string {
	return v.username
}
