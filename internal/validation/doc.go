// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

// Package validation provides struct validation using go-playground/validator v10.
//
// This package wraps the go-playground/validator library to provide a thread-safe
// singleton validator instance with user-friendly error messages. It integrates
// with the application's API error format for consistent error responses.
//
// # Overview
//
// The package provides:
//   - Thread-safe singleton validator (initialized once, cached struct info)
//   - Comprehensive error translation to human-readable messages
//   - APIError conversion matching the application's error format
//   - Built-in validator support (ip, url, oneof, min/max, etc.)
//   - Future v11 compatibility with WithRequiredStructEnabled
//
// # Quick Start
//
//	type DetectionRequest struct {
//	    Features map[string]float64 `validate:"required,min=1"`
//	    SourceIP string             `validate:"omitempty,ip"`
//	    DestIP   string             `validate:"omitempty,ip"`
//	}
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    var req DetectionRequest
//	    if err := json.Decode(r.Body, &req); err != nil {
//	        // handle decode error
//	    }
//
//	    if verr := validation.ValidateStruct(&req); verr != nil {
//	        apiErr := verr.ToAPIError()
//	        respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	        return
//	    }
//
//	    // proceed with valid request
//	}
//
// # Common Validation Tags
//
// String validations:
//   - required: Field must not be empty
//   - min=n: Minimum length n characters
//   - max=n: Maximum length n characters
//   - ip: Valid IPv4 or IPv6 address
//   - url: Valid URL format
//
// Numeric validations:
//   - gte=n: Greater than or equal to n
//   - lte=n: Less than or equal to n
//   - gt=n: Greater than n
//   - lt=n: Less than n
//   - min=n: Minimum value n
//   - max=n: Maximum value n
//
// Collection validations (maps and slices):
//   - required: Must be non-nil and non-empty
//   - min=n: At least n entries
//   - max=n: At most n entries
//
// Enum validations:
//   - oneof=a b c: Must be one of the specified values
//
// # Error Types
//
// ValidationError represents a single field validation failure:
//
//	type ValidationError struct {
//	    Field()   string      // Struct field name
//	    Tag()     string      // Validation tag that failed
//	    Param()   string      // Tag parameter (e.g., "100" for max=100)
//	    Value()   interface{} // Actual value that failed
//	    Error()   string      // Human-readable message
//	}
//
// RequestValidationError aggregates multiple field errors:
//
//	type RequestValidationError struct {
//	    Errors() []ValidationError
//	    Error()  string           // Combined message
//	    ToAPIError() *APIError    // Convert to API error format
//	}
//
// # API Error Integration
//
// The ToAPIError method produces errors matching the application format:
//
//	// Single field error
//	{
//	    "code": "VALIDATION_ERROR",
//	    "message": "SourceIP must be a valid IP address",
//	    "details": {"field": "SourceIP", "tag": "ip", "value": "not-an-ip"}
//	}
//
//	// Multiple field errors
//	{
//	    "code": "VALIDATION_ERROR",
//	    "message": "Features: must contain at least 1 entries; SourceIP: must be a valid IP address",
//	    "details": {
//	        "fields": [
//	            {"field": "Features", "tag": "min", "message": "..."},
//	            {"field": "SourceIP", "tag": "ip", "message": "..."}
//	        ]
//	    }
//	}
//
// # Error Message Translation
//
// Human-readable messages are generated for common validation tags:
//
//	required   -> "Features is required"
//	ip         -> "SourceIP must be a valid IP address"
//	min=1      -> "Features must contain at least 1 entries" (maps/slices)
//	min=3      -> "Username must be at least 3 characters" (strings)
//	max=10000  -> "Flows must contain at most 10000 entries" (maps/slices)
//	gte=1      -> "Limit must be greater than or equal to 1"
//	lte=1000   -> "Limit must be less than or equal to 1000"
//	oneof=a b  -> "Backend must be one of: a b"
//
// # Struct Tag Examples
//
// API request validation:
//
//	type BatchDetectionRequest struct {
//	    Flows []map[string]float64 `validate:"required,min=1"`
//	}
//
//	type LoginRequest struct {
//	    Username string `validate:"required,min=1,max=100"`
//	    Password string `validate:"required,min=1"`
//	}
//
// # Thread Safety
//
// The singleton validator is initialized once and safe for concurrent use:
//
//	validate := validation.GetValidator()  // Thread-safe
//	err := validation.ValidateStruct(&req) // Thread-safe
//
// # Performance
//
// The validator caches struct reflection information:
//   - First validation of a struct type: ~1ms (reflection + caching)
//   - Subsequent validations: ~10us (cached)
//   - Memory: ~500 bytes per cached struct type
//
// This keeps request validation well inside the detection latency budget.
//
// # See Also
//
//   - internal/api: Request handlers using validation
//   - github.com/go-playground/validator/v10: Underlying library
package validation
