// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package validation

import (
	"testing"
)

// ===================================================================================================
// Singleton Validator Tests
// ===================================================================================================

func TestGetValidator_Singleton(t *testing.T) {
	// Test that GetValidator returns the same instance
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}

	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

// ===================================================================================================
// ValidateStruct Tests
// ===================================================================================================

// TestStruct for basic validation tests
type TestStruct struct {
	Name    string `validate:"required,min=1,max=100"`
	Age     int    `validate:"min=0,max=150"`
	Email   string `validate:"omitempty,email"`
	Limit   int    `validate:"min=1,max=1000"`
	Offset  int    `validate:"min=0,max=1000000"`
	Enabled bool
}

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name   string
		input  TestStruct
		errMsg string
	}{
		{
			name: "all valid fields",
			input: TestStruct{
				Name:   "John Doe",
				Age:    30,
				Email:  "john@example.com",
				Limit:  100,
				Offset: 0,
			},
		},
		{
			name: "minimum values",
			input: TestStruct{
				Name:   "A",
				Age:    0,
				Email:  "",
				Limit:  1,
				Offset: 0,
			},
		},
		{
			name: "maximum values",
			input: TestStruct{
				Name:   "A",
				Age:    150,
				Email:  "",
				Limit:  1000,
				Offset: 1000000,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if err != nil {
				t.Errorf("ValidateStruct() returned unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     TestStruct
		wantField string
		wantTag   string
	}{
		{
			name: "missing required name",
			input: TestStruct{
				Name:  "",
				Limit: 100,
			},
			wantField: "Name",
			wantTag:   "required",
		},
		{
			name: "age too high",
			input: TestStruct{
				Name: "John",
				Age:  200,
			},
			wantField: "Age",
			wantTag:   "max",
		},
		{
			name: "invalid email",
			input: TestStruct{
				Name:  "John",
				Email: "not-an-email",
			},
			wantField: "Email",
			wantTag:   "email",
		},
		{
			name: "limit too low",
			input: TestStruct{
				Name:  "John",
				Limit: 0,
			},
			wantField: "Limit",
			wantTag:   "min",
		},
		{
			name: "limit too high",
			input: TestStruct{
				Name:  "John",
				Limit: 2000,
			},
			wantField: "Limit",
			wantTag:   "max",
		},
		{
			name: "negative offset",
			input: TestStruct{
				Name:   "John",
				Limit:  100,
				Offset: -1,
			},
			wantField: "Offset",
			wantTag:   "min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() should have returned an error")
			}

			errs := err.Errors()
			if len(errs) == 0 {
				t.Fatal("ValidationErrors should contain at least one error")
			}

			found := false
			for _, e := range errs {
				if e.Field() == tt.wantField && e.Tag() == tt.wantTag {
					found = true
					break
				}
			}

			if !found {
				t.Errorf("Expected error on field %s with tag %s, got: %v", tt.wantField, tt.wantTag, errs)
			}
		})
	}
}

// ===================================================================================================
// ToAPIError Tests
// ===================================================================================================

func TestToAPIError_SingleError(t *testing.T) {
	input := TestStruct{
		Name:  "", // required field missing
		Limit: 100,
	}

	err := ValidateStruct(&input)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	apiErr := err.ToAPIError()

	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected code VALIDATION_ERROR, got %s", apiErr.Code)
	}

	if apiErr.Message == "" {
		t.Error("Expected non-empty message")
	}

	// Should contain field name in details
	if apiErr.Details == nil {
		t.Error("Expected details to be set")
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	input := TestStruct{
		Name:   "", // required field missing
		Age:    200,
		Limit:  0, // below minimum
		Offset: -1,
	}

	err := ValidateStruct(&input)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	apiErr := err.ToAPIError()

	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected code VALIDATION_ERROR, got %s", apiErr.Code)
	}

	// Details should contain field information
	if apiErr.Details == nil {
		t.Error("Expected details to contain field information")
	}

	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("Expected details to contain 'fields' key")
	}
}

// ===================================================================================================
// IP Address Validation Tests
// ===================================================================================================

type EndpointsStruct struct {
	SourceIP string `validate:"omitempty,ip"`
	DestIP   string `validate:"omitempty,ip"`
}

func TestIPValidation_Valid(t *testing.T) {
	tests := []struct {
		name     string
		sourceIP string
		destIP   string
	}{
		{"empty addresses", "", ""},
		{"ipv4 pair", "192.168.1.105", "10.0.0.5"},
		{"ipv6 source", "2001:db8::8a2e:370:7334", ""},
		{"loopback", "127.0.0.1", "::1"},
		{"broadcast-ish", "255.255.255.255", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := EndpointsStruct{SourceIP: tt.sourceIP, DestIP: tt.destIP}
			err := ValidateStruct(&input)
			if err != nil {
				t.Errorf("ValidateStruct() returned unexpected error for %q/%q: %v", tt.sourceIP, tt.destIP, err)
			}
		})
	}
}

func TestIPValidation_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		sourceIP string
	}{
		{"hostname", "attacker.example.com"},
		{"octet out of range", "300.1.2.3"},
		{"trailing garbage", "192.168.1.1x"},
		{"port included", "192.168.1.1:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := EndpointsStruct{SourceIP: tt.sourceIP}
			err := ValidateStruct(&input)
			if err == nil {
				t.Errorf("ValidateStruct() should have returned error for IP %q", tt.sourceIP)
			}
		})
	}
}

// ===================================================================================================
// Feature Map Validation Tests
// ===================================================================================================

type FeatureVectorStruct struct {
	Features map[string]float64 `validate:"required,min=1"`
}

func TestFeatureMapValidation_Valid(t *testing.T) {
	tests := []struct {
		name     string
		features map[string]float64
	}{
		{"single feature", map[string]float64{"total_packets": 100}},
		{"full vector", map[string]float64{
			"total_packets":      150,
			"total_bytes":        98000,
			"packets_per_second": 25.5,
			"tcp_syn_ratio":      0.12,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := FeatureVectorStruct{Features: tt.features}
			err := ValidateStruct(&input)
			if err != nil {
				t.Errorf("ValidateStruct() returned unexpected error: %v", err)
			}
		})
	}
}

func TestFeatureMapValidation_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		features map[string]float64
		wantTag  string
	}{
		{"nil map", nil, "required"},
		{"empty map", map[string]float64{}, "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := FeatureVectorStruct{Features: tt.features}
			err := ValidateStruct(&input)
			if err == nil {
				t.Fatal("ValidateStruct() should have returned an error")
			}

			errs := err.Errors()
			found := false
			for _, e := range errs {
				if e.Tag() == tt.wantTag {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Expected %s error, got: %v", tt.wantTag, errs)
			}
		})
	}
}

// ===================================================================================================
// Flow Batch Validation Tests
// ===================================================================================================

type FlowBatchStruct struct {
	Flows []map[string]float64 `validate:"required,min=1,max=100"`
}

func TestFlowBatchValidation_Valid(t *testing.T) {
	input := FlowBatchStruct{
		Flows: []map[string]float64{
			{"total_packets": 10},
			{"total_packets": 20},
		},
	}

	if err := ValidateStruct(&input); err != nil {
		t.Errorf("ValidateStruct() returned unexpected error: %v", err)
	}
}

func TestFlowBatchValidation_Invalid(t *testing.T) {
	// Empty batch
	empty := FlowBatchStruct{Flows: []map[string]float64{}}
	if err := ValidateStruct(&empty); err == nil {
		t.Error("ValidateStruct() should have returned error for empty batch")
	}

	// Oversized batch
	big := FlowBatchStruct{Flows: make([]map[string]float64, 101)}
	for i := range big.Flows {
		big.Flows[i] = map[string]float64{"total_packets": 1}
	}

	err := ValidateStruct(&big)
	if err == nil {
		t.Fatal("ValidateStruct() should have returned error for oversized batch")
	}

	errs := err.Errors()
	found := false
	for _, e := range errs {
		if e.Field() == "Flows" && e.Tag() == "max" {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Expected max error on Flows, got: %v", errs)
	}
}

// ===================================================================================================
// Oneof Validation Tests
// ===================================================================================================

type StoreBackendStruct struct {
	Backend string `validate:"omitempty,oneof=badger redis memory none"`
}

func TestOneofValidation_Valid(t *testing.T) {
	tests := []struct {
		name    string
		backend string
	}{
		{"empty", ""},
		{"badger", "badger"},
		{"redis", "redis"},
		{"memory", "memory"},
		{"none", "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := StoreBackendStruct{Backend: tt.backend}
			err := ValidateStruct(&input)
			if err != nil {
				t.Errorf("ValidateStruct() returned unexpected error for backend %q: %v", tt.backend, err)
			}
		})
	}
}

func TestOneofValidation_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		backend string
	}{
		{"invalid backend", "etcd"},
		{"partial match", "badgerx"},
		{"case sensitive", "Badger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := StoreBackendStruct{Backend: tt.backend}
			err := ValidateStruct(&input)
			if err == nil {
				t.Errorf("ValidateStruct() should have returned error for backend %q", tt.backend)
			}
		})
	}
}

// ===================================================================================================
// WithRequiredStructEnabled Tests
// ===================================================================================================

type NestedStruct struct {
	Inner InnerStruct `validate:"required"`
}

type InnerStruct struct {
	Value string `validate:"required"`
}

func TestNestedStructValidation(t *testing.T) {
	// Valid nested struct
	valid := NestedStruct{
		Inner: InnerStruct{Value: "test"},
	}

	err := ValidateStruct(&valid)
	if err != nil {
		t.Errorf("ValidateStruct() returned unexpected error for valid nested struct: %v", err)
	}

	// Invalid - missing inner value
	invalid := NestedStruct{
		Inner: InnerStruct{Value: ""},
	}

	err = ValidateStruct(&invalid)
	if err == nil {
		t.Error("ValidateStruct() should have returned error for invalid nested struct")
	}
}

// ===================================================================================================
// Integer Range Validation Tests
// ===================================================================================================

type RangeStruct struct {
	LatencyTargetMs int `validate:"omitempty,min=1,max=60000"`
	BatchLimit      int `validate:"min=0,max=10000"`
}

func TestRangeValidation_Valid(t *testing.T) {
	tests := []struct {
		name            string
		latencyTargetMs int
		batchLimit      int
	}{
		{"zero values", 0, 0},
		{"typical values", 100, 100},
		{"max values", 60000, 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := RangeStruct{LatencyTargetMs: tt.latencyTargetMs, BatchLimit: tt.batchLimit}
			err := ValidateStruct(&input)
			if err != nil {
				t.Errorf("ValidateStruct() returned unexpected error: %v", err)
			}
		})
	}
}

func TestRangeValidation_Invalid(t *testing.T) {
	tests := []struct {
		name            string
		latencyTargetMs int
		batchLimit      int
		wantField       string
	}{
		{"latency too high", 70000, 100, "LatencyTargetMs"},
		{"latency negative when set", -1, 100, "LatencyTargetMs"},
		{"batch limit too high", 100, 20000, "BatchLimit"},
		{"batch limit negative", 100, -1, "BatchLimit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := RangeStruct{LatencyTargetMs: tt.latencyTargetMs, BatchLimit: tt.batchLimit}
			err := ValidateStruct(&input)
			if err == nil {
				t.Errorf("ValidateStruct() should have returned error for latency=%d, batch=%d", tt.latencyTargetMs, tt.batchLimit)
			}
		})
	}
}

// ===================================================================================================
// Error Message Translation Tests
// ===================================================================================================

func TestErrorMessages(t *testing.T) {
	input := TestStruct{
		Name:  "",
		Limit: 0,
	}

	err := ValidateStruct(&input)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	// Error message should be human-readable
	msg := err.Error()
	if msg == "" {
		t.Error("Error message should not be empty")
	}

	// Should contain field name
	if !containsSubstring(msg, "Name") && !containsSubstring(msg, "Limit") {
		t.Errorf("Error message should reference failed field: %s", msg)
	}
}

func TestErrorMessages_MapEntries(t *testing.T) {
	type mapMin struct {
		Features map[string]float64 `validate:"min=2"`
	}

	input := mapMin{Features: map[string]float64{"total_packets": 1}}
	err := ValidateStruct(&input)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	msg := err.Error()
	if !containsSubstring(msg, "entries") {
		t.Errorf("Expected map-shaped message mentioning entries, got: %s", msg)
	}
}

func TestErrorMessages_IP(t *testing.T) {
	input := EndpointsStruct{SourceIP: "not-an-ip"}
	err := ValidateStruct(&input)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	msg := err.Error()
	if !containsSubstring(msg, "valid IP address") {
		t.Errorf("Expected IP message, got: %s", msg)
	}
}

// helper function
func containsSubstring(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > 0 && containsSubstringHelper(s, substr))
}

func containsSubstringHelper(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
