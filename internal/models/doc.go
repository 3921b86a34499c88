// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

/*
Package models defines the wire types shared across the HTTP API, the
WebSocket feed, and the result store.

# Type Groups

  - Detection: DetectionRequest/DetectionResponse and the batch variants.
    These mirror the sensor-facing contract exactly: features are a flat
    name→value map, timestamps are Unix seconds as floats.
  - Catalog: ModelInfo/ModelsResponse/ReloadResponse for the model registry
    surface.
  - Stats and health: DetectionStats, HealthStatus, ServiceInfo.
  - WebSocket: WSMessage envelope plus the payload types for the four frame
    kinds (detection, detection_request, detection_response, error).
  - API envelope: APIResponse/Metadata/APIError wrap non-detection endpoints
    with a uniform status/data/error shape.
  - Auth: LoginRequest/LoginResponse and the role constants.

# Conventions

All types are plain data holders with JSON tags; behavior lives in the
packages that produce them. Optional fields carry omitempty so sensor
payloads stay small. Validation tags (validator/v10) sit on request types
and are enforced by internal/validation before any handler logic runs.
*/
package models
