// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package models

// Role constants define the standard roles in the system.
const (
	// RoleViewer has read-only access to detections, stats, and the catalog.
	RoleViewer = "viewer"

	// RoleSensor is granted to API-key-authenticated flow sensors; it may
	// submit detections but not administer the registry.
	RoleSensor = "sensor"

	// RoleAdmin has full access including model registry reloads.
	RoleAdmin = "admin"
)

// ValidRoles contains all valid role names for validation.
var ValidRoles = []string{RoleViewer, RoleSensor, RoleAdmin}

// IsValidRole checks if a role name is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
