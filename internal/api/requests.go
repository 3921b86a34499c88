// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package api

// Request validation structs with validation tags.
// These mirror the wire types in internal/models but carry the validation
// rules the handlers enforce before touching any dependency.
//
// DetectionRequest carries its own tags in internal/models because the
// same struct crosses the WebSocket and NATS ingest paths.

// LoginRequestValidation validates login request fields.
type LoginRequestValidation struct {
	Username   string `validate:"required,min=1"`
	Password   string `validate:"required,min=1"`
	RememberMe bool
}
