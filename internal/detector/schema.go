// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package detector

// Range bounds a feature value. Sanitized values are clamped into [Min, Max].
type Range struct {
	Min float64
	Max float64
}

// FeatureSchema is the ordered list of feature names the ensemble expects,
// with optional per-name numeric ranges. Read-only after construction; safe
// for unsynchronized concurrent use.
type FeatureSchema struct {
	required []string
	ranges   map[string]Range
}

// NewFeatureSchema builds a schema from an ordered name list and a range map.
// Both inputs are copied. Ranges may cover names outside the required list;
// such ranges still clamp pass-through extras.
func NewFeatureSchema(required []string, ranges map[string]Range) *FeatureSchema {
	s := &FeatureSchema{
		required: make([]string, len(required)),
		ranges:   make(map[string]Range, len(ranges)),
	}
	copy(s.required, required)
	for name, r := range ranges {
		s.ranges[name] = r
	}
	return s
}

// DefaultSchema returns the flow feature schema produced by the capture
// agents: 18 features in canonical order. Ranges reflect what a single flow
// window can plausibly carry; values outside are clamped, not rejected.
func DefaultSchema() *FeatureSchema {
	return NewFeatureSchema(
		[]string{
			"total_packets", "total_bytes", "avg_packet_size", "duration",
			"tcp_ratio", "udp_ratio", "icmp_ratio", "packets_per_second",
			"unique_src_ips", "unique_dst_ips", "tcp_syn_ratio",
			"well_known_ports", "high_ports", "payload_entropy",
			"suspicious_flags", "http_requests", "dns_queries", "tls_handshakes",
		},
		map[string]Range{
			"total_packets":      {0, 10000},
			"total_bytes":        {0, 1000000},
			"avg_packet_size":    {0, 1500}, // Ethernet MTU
			"duration":           {0, 3600},
			"tcp_ratio":          {0, 1},
			"udp_ratio":          {0, 1},
			"icmp_ratio":         {0, 1},
			"packets_per_second": {0, 1000},
			"unique_src_ips":     {0, 1000},
			"unique_dst_ips":     {0, 1000},
			"tcp_syn_ratio":      {0, 1},
			"well_known_ports":   {0, 100},
			"high_ports":         {0, 1000},
			"payload_entropy":    {0, 8}, // bits per byte
			"suspicious_flags":   {0, 100},
			"http_requests":      {0, 1000},
			"dns_queries":        {0, 1000},
			"tls_handshakes":     {0, 1000},
		},
	)
}

// Required returns a copy of the ordered required feature names.
func (s *FeatureSchema) Required() []string {
	out := make([]string, len(s.required))
	copy(out, s.required)
	return out
}

// Range returns the declared range for a feature name, if any.
func (s *FeatureSchema) Range(name string) (Range, bool) {
	r, ok := s.ranges[name]
	return r, ok
}

// Len returns the number of required features.
func (s *FeatureSchema) Len() int {
	return len(s.required)
}
