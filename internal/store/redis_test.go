// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestRedisKey(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		ts   float64
		want string
	}{
		{
			name: "whole_seconds",
			ip:   "192.168.1.100",
			ts:   1700000000,
			want: "detection:192.168.1.100:1700000000",
		},
		{
			name: "fractional_seconds_truncate",
			ip:   "10.0.0.1",
			ts:   1700000000.75,
			want: "detection:10.0.0.1:1700000000",
		},
		{
			name: "empty_source_ip",
			ip:   "",
			ts:   42,
			want: "detection::42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := redisKey(testRecord("id", tt.ip, tt.ts))
			if got != tt.want {
				t.Errorf("redisKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRedisKeyZeroTimestamp(t *testing.T) {
	before := time.Now().Unix()
	got := redisKey(testRecord("id", "1.2.3.4", 0))
	after := time.Now().Unix()

	prefix := "detection:1.2.3.4:"
	if !strings.HasPrefix(got, prefix) {
		t.Fatalf("redisKey = %q, want %q prefix", got, prefix)
	}

	var unix int64
	if _, err := fmt.Sscanf(got[len(prefix):], "%d", &unix); err != nil {
		t.Fatalf("redisKey suffix %q is not an integer: %v", got[len(prefix):], err)
	}
	if unix < before || unix > after {
		t.Errorf("redisKey unix = %d, want within [%d, %d]", unix, before, after)
	}
}

func TestRedisStoreUnreachable(t *testing.T) {
	// Construction never fails on an unreachable server; operations do.
	s, err := newRedisStore(Options{
		TTL:       time.Minute,
		MaxRecent: 100,
		Redis:     RedisOptions{Addr: "127.0.0.1:1"},
	})
	if err != nil {
		t.Fatalf("newRedisStore returned error: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.Ping(ctx); err == nil {
		t.Error("Ping against unreachable server returned nil, want error")
	}
	if err := s.Put(ctx, testRecord("r1", "192.168.1.1", 1)); err == nil {
		t.Error("Put against unreachable server returned nil, want error")
	}
	if _, err := s.Recent(ctx, 5); err == nil {
		t.Error("Recent against unreachable server returned nil, want error")
	}
}
