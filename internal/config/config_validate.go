// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateModels(); err != nil {
		return err
	}

	if err := c.validateDetection(); err != nil {
		return err
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.validateNATS(); err != nil {
		return err
	}

	if err := c.validateSync(); err != nil {
		return err
	}

	if err := c.validateWebSocket(); err != nil {
		return err
	}

	if err := c.validateAPI(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// validateModels validates model registry configuration
func (c *Config) validateModels() error {
	if c.Models.Dir == "" {
		return fmt.Errorf("MODELS_DIR is required")
	}
	if c.Models.DefaultWeight <= 0 {
		return fmt.Errorf("MODELS_DEFAULT_WEIGHT must be positive, got %g", c.Models.DefaultWeight)
	}
	for name, weight := range c.Models.Weights {
		if weight <= 0 {
			return fmt.Errorf("model weight for %q must be positive, got %g", name, weight)
		}
	}
	return nil
}

// Detection engine limit constants
const (
	minLatencyTargetMs = 1
	maxLatencyTargetMs = 60000 // Anything slower is not "real-time"
	maxBatchSizeLimit  = 10000
)

// validateDetection validates detection engine configuration
func (c *Config) validateDetection() error {
	if c.Detection.LatencyTargetMs < minLatencyTargetMs || c.Detection.LatencyTargetMs > maxLatencyTargetMs {
		return fmt.Errorf("LATENCY_TARGET_MS must be between %d and %d", minLatencyTargetMs, maxLatencyTargetMs)
	}
	if c.Detection.HighThreatThreshold < 0 || c.Detection.HighThreatThreshold > 1 {
		return fmt.Errorf("HIGH_THREAT_THRESHOLD must be between 0 and 1")
	}
	if c.Detection.PositiveLabel == "" {
		return fmt.Errorf("POSITIVE_LABEL is required")
	}
	if c.Detection.MaxBatchSize < 1 || c.Detection.MaxBatchSize > maxBatchSizeLimit {
		return fmt.Errorf("MAX_BATCH_SIZE must be between 1 and %d", maxBatchSizeLimit)
	}
	if c.Detection.ResultsBuffer < 0 {
		return fmt.Errorf("DETECTION_RESULTS_BUFFER must not be negative")
	}
	return nil
}

// validStoreBackends defines the allowed result store backends
var validStoreBackends = map[string]bool{
	"badger": true,
	"redis":  true,
	"memory": true,
	"none":   true,
}

// validateStore validates result store configuration
func (c *Config) validateStore() error {
	if !validStoreBackends[c.Store.Backend] {
		return fmt.Errorf("STORE_BACKEND must be one of: badger, redis, memory, none")
	}

	if c.Store.Backend != "none" && c.Store.TTL <= 0 {
		return fmt.Errorf("STORE_TTL must be positive when a result store is enabled")
	}

	switch c.Store.Backend {
	case "badger":
		if !c.Store.Badger.InMemory && c.Store.Badger.Dir == "" {
			return fmt.Errorf("BADGER_DIR is required when STORE_BACKEND=badger (or set BADGER_IN_MEMORY=true)")
		}
	case "redis":
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when STORE_BACKEND=redis")
		}
	}
	return nil
}

// NATS limit constants
const (
	natsMinMemory      = 64 * 1024 * 1024  // 64MB
	natsMinStore       = 100 * 1024 * 1024 // 100MB
	natsMinRetention   = 1
	natsMaxRetention   = 365
	natsMaxSubscribers = 64
)

// validateNATS validates NATS configuration (only if enabled)
func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}

	if !c.NATS.EmbeddedServer {
		if err := validateNATSURL(c.NATS.URL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
	}

	return c.validateNATSLimits()
}

// validateNATSLimits validates NATS resource limits
func (c *Config) validateNATSLimits() error {
	if c.NATS.MaxMemory < natsMinMemory {
		return fmt.Errorf("NATS_MAX_MEMORY must be at least %d bytes (64MB)", natsMinMemory)
	}
	if c.NATS.MaxStore < natsMinStore {
		return fmt.Errorf("NATS_MAX_STORE must be at least %d bytes (100MB)", natsMinStore)
	}
	if c.NATS.StreamRetentionDays < natsMinRetention || c.NATS.StreamRetentionDays > natsMaxRetention {
		return fmt.Errorf("NATS_RETENTION_DAYS must be between %d and %d", natsMinRetention, natsMaxRetention)
	}
	if c.NATS.SubscribersCount < 1 || c.NATS.SubscribersCount > natsMaxSubscribers {
		return fmt.Errorf("NATS_SUBSCRIBERS must be between 1 and %d", natsMaxSubscribers)
	}
	if c.NATS.FlowSubject == "" {
		return fmt.Errorf("NATS_FLOW_SUBJECT is required when NATS_ENABLED=true")
	}
	if c.NATS.ResultSubject == "" {
		return fmt.Errorf("NATS_RESULT_SUBJECT is required when NATS_ENABLED=true")
	}
	return nil
}

// Trainer sync limit constants
const (
	syncMinInterval = 10 * time.Second
	syncMinTimeout  = time.Second
)

// validateSync validates trainer sync configuration (only if enabled)
func (c *Config) validateSync() error {
	if !c.Sync.Enabled {
		return nil
	}

	if c.Sync.TrainerURL == "" {
		return fmt.Errorf("TRAINER_URL is required when SYNC_ENABLED=true")
	}
	if err := validateHTTPURL(c.Sync.TrainerURL, "TRAINER_URL"); err != nil {
		return fmt.Errorf("TRAINER_URL is invalid: %w", err)
	}
	if c.Sync.Interval < syncMinInterval {
		return fmt.Errorf("SYNC_INTERVAL must be at least %v", syncMinInterval)
	}
	if c.Sync.Timeout < syncMinTimeout {
		return fmt.Errorf("SYNC_TIMEOUT must be at least %v", syncMinTimeout)
	}
	return nil
}

// validateWebSocket validates WebSocket configuration
func (c *Config) validateWebSocket() error {
	if c.WebSocket.MaxMessageBytes < 1024 {
		return fmt.Errorf("WS_MAX_MESSAGE_BYTES must be at least 1024")
	}
	if c.WebSocket.SendBuffer < 1 {
		return fmt.Errorf("WS_SEND_BUFFER must be at least 1")
	}
	return nil
}

// validateAPI validates API surface configuration
func (c *Config) validateAPI() error {
	if c.API.DefaultRecentLimit < 1 {
		return fmt.Errorf("API_DEFAULT_RECENT_LIMIT must be at least 1")
	}
	if c.API.MaxRecentLimit < c.API.DefaultRecentLimit {
		return fmt.Errorf("API_MAX_RECENT_LIMIT must not be smaller than API_DEFAULT_RECENT_LIMIT")
	}
	if c.API.MaxRecentLimit > maxBatchSizeLimit {
		return fmt.Errorf("API_MAX_RECENT_LIMIT must not exceed %d", maxBatchSizeLimit)
	}
	return nil
}

// validateSecurity validates security configuration
func (c *Config) validateSecurity() error {
	if err := c.validateAuthMode(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	if err := c.validateRateLimits(); err != nil {
		return err
	}

	return c.validateAuthModeConfig()
}

// validateAuthModeConfig validates configuration for the selected auth mode
func (c *Config) validateAuthModeConfig() error {
	validators := map[string]func() error{
		"jwt":    c.validateJWTAuth,
		"apikey": c.validateAPIKeyAuth,
		"multi":  c.validateMultiAuth,
	}

	validator, exists := validators[c.Security.AuthMode]
	if !exists {
		return nil // "none" mode has no additional validation
	}

	return validator()
}

// validateCORS validates CORS configuration for security best practices.
// In production mode with authentication enabled, wildcard CORS is rejected
// as it creates a security vulnerability where any origin can access
// protected resources using stolen credentials.
func (c *Config) validateCORS() error {
	if c.Security.AuthMode != "none" && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production with authentication enabled. " +
			"Either set specific origins: CORS_ORIGINS=https://soc.example.com " +
			"or use ENVIRONMENT=development for testing purposes")
	}
	return nil
}

// hasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS returns true if CORS configuration has security concerns
// that should be logged at startup
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.Security.AuthMode != "none" && c.hasWildcardCORS()
}

// Rate limit constants
const (
	minRateLimitRequests = 1           // Minimum 1 request allowed
	maxRateLimitRequests = 100000      // Maximum 100K requests per window
	minRateLimitWindow   = time.Second // Minimum 1 second window
	maxRateLimitWindow   = time.Hour   // Maximum 1 hour window
)

// validateRateLimits validates rate limiting configuration bounds.
// Ensures rate limit values are within sensible ranges to prevent
// misconfiguration that could lead to DoS or ineffective protection.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}

	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validAuthModes defines the allowed authentication modes
var validAuthModes = map[string]bool{
	"none":   true,
	"apikey": true,
	"jwt":    true,
	"multi":  true,
}

// validateAuthMode checks if auth mode is valid
func (c *Config) validateAuthMode() error {
	if !validAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be one of: none, apikey, jwt, multi")
	}

	return c.validateAuthModeForEnvironment()
}

// validateAuthModeForEnvironment ensures AUTH_MODE is appropriate for the environment.
// Refuses to start with AUTH_MODE=none in production to prevent accidental
// deployment of an unauthenticated detection API.
func (c *Config) validateAuthModeForEnvironment() error {
	if c.Security.AuthMode == "none" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production. " +
			"Either set AUTH_MODE to a secure option (apikey, jwt, multi) " +
			"or use ENVIRONMENT=development for testing purposes")
	}

	return nil
}

// IsProduction returns true if the application is running in production mode.
// Production mode is determined by the ENVIRONMENT environment variable.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if the application is running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

// validateJWTAuth validates JWT authentication configuration
func (c *Config) validateJWTAuth() error {
	if err := c.validateJWTSecret(); err != nil {
		return err
	}
	return c.validateAdminCredentials("jwt")
}

// validateJWTSecret validates the JWT secret configuration
func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

// validateAPIKeyAuth validates API key authentication configuration
func (c *Config) validateAPIKeyAuth() error {
	if len(c.Security.APIKeyHashes) == 0 {
		return fmt.Errorf("API_KEY_HASHES is required when AUTH_MODE is apikey (bcrypt hashes, comma-separated)")
	}
	for _, hash := range c.Security.APIKeyHashes {
		if !strings.HasPrefix(hash, "$2a$") && !strings.HasPrefix(hash, "$2b$") && !strings.HasPrefix(hash, "$2y$") {
			return fmt.Errorf("API_KEY_HASHES entries must be bcrypt hashes")
		}
	}
	return nil
}

// validateAdminCredentials validates admin username and password
func (c *Config) validateAdminCredentials(authMode string) error {
	if c.Security.AdminUsername == "" {
		return fmt.Errorf("ADMIN_USERNAME is required when AUTH_MODE is %s", authMode)
	}
	if c.Security.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required when AUTH_MODE is %s", authMode)
	}
	if containsPlaceholder(c.Security.AdminPassword) {
		return fmt.Errorf("ADMIN_PASSWORD contains a placeholder value - set a secure password")
	}
	if err := c.validatePasswordPolicy(c.Security.AdminPassword, c.Security.AdminUsername); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD: %w", err)
	}
	return nil
}

// validatePasswordPolicy validates a password against the configured password policy.
func (c *Config) validatePasswordPolicy(password, username string) error {
	policy := DefaultPasswordPolicy()
	return policy.ValidateWithError(password, username)
}

// validateMultiAuth validates multi-mode authentication configuration
func (c *Config) validateMultiAuth() error {
	if c.hasAnyAuthenticator() {
		return nil
	}
	return fmt.Errorf("multi auth mode requires at least one authenticator (JWT or API key)")
}

// hasAnyAuthenticator checks if at least one authenticator is properly configured
func (c *Config) hasAnyAuthenticator() bool {
	return c.hasJWTAuthenticator() || c.hasAPIKeyAuthenticator()
}

// hasJWTAuthenticator checks if JWT is properly configured
func (c *Config) hasJWTAuthenticator() bool {
	return c.Security.JWTSecret != "" && len(c.Security.JWTSecret) >= 32
}

// hasAPIKeyAuthenticator checks if API key auth is properly configured
func (c *Config) hasAPIKeyAuthenticator() bool {
	return len(c.Security.APIKeyHashes) > 0
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value. This prevents accidental deployment
// with insecure default credentials.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"YOUR_PASSWORD",
	"PLACEHOLDER",
	"TODO",
	"FIXME",
	"XXX",
	"EXAMPLE",
}

// containsPlaceholder checks if a value contains common placeholder patterns
// that indicate the user forgot to set a real value. This prevents accidental
// deployment with insecure default credentials.
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
