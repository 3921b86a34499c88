// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// apiKeyPrefix is the prefix for all Flowsentry sensor API keys.
	apiKeyPrefix = "fsk_"

	// apiKeySecretLength is the length of the random secret portion (bytes).
	apiKeySecretLength = 32

	// bcryptCost is the bcrypt cost factor for key hashing.
	bcryptCost = 12
)

// APIKeyHeader is the HTTP header sensor agents use to present their API key.
const APIKeyHeader = "X-API-Key"

// APIKeyVerifier validates sensor agent API keys against a configured list of
// bcrypt hashes. Keys are never stored in plaintext; operators configure
// API_KEY_HASHES with values produced by HashAPIKey (or the keygen tooling).
type APIKeyVerifier struct {
	hashes []string
}

// NewAPIKeyVerifier creates a verifier from the configured hash list.
// Every entry must be a bcrypt hash ($2a$, $2b$, or $2y$ prefix).
func NewAPIKeyVerifier(hashes []string) (*APIKeyVerifier, error) {
	if len(hashes) == 0 {
		return nil, fmt.Errorf("at least one API key hash is required")
	}

	for i, hash := range hashes {
		if !isBcryptHash(hash) {
			return nil, fmt.Errorf("API key hash at index %d is not a bcrypt hash", i)
		}
	}

	return &APIKeyVerifier{hashes: hashes}, nil
}

// Verify checks a plaintext API key against every configured hash.
// Returns the index of the matching hash so callers can attribute requests to
// a specific key, and false when no hash matches.
func (v *APIKeyVerifier) Verify(key string) (int, bool) {
	if key == "" {
		return 0, false
	}

	// SHA-256 first: bcrypt truncates input at 72 bytes, and the fixed-length
	// digest sidesteps that. Same scheme GitHub and GitLab use for tokens.
	sha := sha256.Sum256([]byte(key))

	for i, hash := range v.hashes {
		if bcrypt.CompareHashAndPassword([]byte(hash), sha[:]) == nil {
			return i, true
		}
	}

	return 0, false
}

// KeyCount returns the number of configured key hashes.
func (v *APIKeyVerifier) KeyCount() int {
	return len(v.hashes)
}

// GenerateAPIKey mints a new random sensor API key and its storage hash.
// The plaintext key is shown to the operator exactly once; only the hash goes
// into API_KEY_HASHES.
func GenerateAPIKey() (plaintext, hash string, err error) {
	secretBytes := make([]byte, apiKeySecretLength)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate key secret: %w", err)
	}

	plaintext = apiKeyPrefix + base64.RawURLEncoding.EncodeToString(secretBytes)

	hash, err = HashAPIKey(plaintext)
	if err != nil {
		return "", "", err
	}

	return plaintext, hash, nil
}

// HashAPIKey creates the storage hash for a plaintext API key:
// SHA-256 of the key, then bcrypt of the digest.
func HashAPIKey(key string) (string, error) {
	sha := sha256.Sum256([]byte(key))

	hash, err := bcrypt.GenerateFromPassword(sha[:], bcryptCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt failed: %w", err)
	}

	return string(hash), nil
}

// IsAPIKey checks if a credential string looks like a Flowsentry API key.
func IsAPIKey(key string) bool {
	return strings.HasPrefix(key, apiKeyPrefix)
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
