// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package detector

import (
	"math"

	"github.com/flowsentry/flowsentry/internal/logging"
	"github.com/flowsentry/flowsentry/internal/metrics"
)

// Sanitizer repairs incoming feature mappings against a schema. It is a
// best-effort validator: it never rejects a request, it only substitutes and
// clamps. Problems surface through logs and the feature_sanitizations_total
// counter, not through errors.
type Sanitizer struct {
	schema *FeatureSchema
}

// NewSanitizer builds a sanitizer for the given schema.
func NewSanitizer(schema *FeatureSchema) *Sanitizer {
	return &Sanitizer{schema: schema}
}

// Process returns a sanitized copy of raw. Every required feature is present
// in the output: missing names default to 0.0, NaN and infinite values become
// 0.0 with a warning, and values outside a declared range are clamped to its
// nearest bound. Names in raw beyond the required list are carried through so
// models trained on feature supersets still see them; extras are clamped only
// when a range happens to be declared for them.
func (s *Sanitizer) Process(raw map[string]float64) map[string]float64 {
	out := make(map[string]float64, s.schema.Len()+len(raw))

	for _, name := range s.schema.required {
		value, ok := raw[name]
		if !ok {
			metrics.RecordFeatureSanitization("missing")
			out[name] = 0.0
			continue
		}
		out[name] = s.clean(name, value)
	}

	for name, value := range raw {
		if _, done := out[name]; done {
			continue
		}
		out[name] = s.clean(name, value)
	}

	return out
}

// clean repairs a single value: non-finite inputs become 0.0, and declared
// ranges clamp to their nearest bound.
func (s *Sanitizer) clean(name string, value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		logging.Warn().
			Str("feature", name).
			Float64("value", value).
			Msg("non-finite feature value, using 0.0")
		metrics.RecordFeatureSanitization("non_finite")
		return 0.0
	}

	if r, ok := s.schema.Range(name); ok {
		if value < r.Min {
			metrics.RecordFeatureSanitization("clamped")
			return r.Min
		}
		if value > r.Max {
			metrics.RecordFeatureSanitization("clamped")
			return r.Max
		}
	}

	return value
}
