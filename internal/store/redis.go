// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/flowsentry/flowsentry/internal/logging"
	"github.com/flowsentry/flowsentry/internal/metrics"
	"github.com/flowsentry/flowsentry/internal/models"
)

// recentListKey holds the newest records for the recent-detections query.
const recentListKey = "detections:recent"

// RedisStore keeps detection records in Redis. Each record is written under
// detection:<source_ip>:<unix> with the configured TTL so sibling services
// can look up results per flow, and pushed onto a capped list serving the
// recent-detections query.
type RedisStore struct {
	client    *redis.Client
	ttl       time.Duration
	maxRecent int
}

func newRedisStore(opts Options) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Redis.Addr,
		Password: opts.Redis.Password,
		DB:       opts.Redis.DB,
	})

	// The client reconnects on its own; an unreachable server at startup
	// only delays persistence, it never blocks detection.
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logging.Warn().
			Err(err).
			Str("addr", opts.Redis.Addr).
			Msg("redis unreachable, detection results will not persist until it recovers")
	} else {
		logging.Info().Str("addr", opts.Redis.Addr).Msg("redis connection established")
	}

	return &RedisStore{client: client, ttl: opts.TTL, maxRecent: opts.MaxRecent}, nil
}

// redisKey builds "detection:<source_ip>:<unix>". Records without a
// timestamp take the write time.
func redisKey(rec models.DetectionRecord) string {
	unix := int64(rec.Timestamp)
	if unix <= 0 {
		unix = time.Now().Unix()
	}
	return fmt.Sprintf("%s%s:%d", detectionKeyPrefix, rec.SourceIP, unix)
}

// Put stores the record under its flow key and pushes it onto the capped
// recent list. Both writes share one round trip.
func (s *RedisStore) Put(ctx context.Context, rec models.DetectionRecord) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(BackendRedis, "put", time.Since(start), err) }()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal detection record: %w", err)
	}

	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKey(rec), data, s.ttl)
		pipe.LPush(ctx, recentListKey, data)
		pipe.LTrim(ctx, recentListKey, 0, int64(s.maxRecent-1))
		pipe.Expire(ctx, recentListKey, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store detection record: %w", err)
	}
	return nil
}

// Recent returns up to limit records from the recent list, newest first.
// Entries that fail to decode are skipped.
func (s *RedisStore) Recent(ctx context.Context, limit int) (recs []models.DetectionRecord, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(BackendRedis, "recent", time.Since(start), err) }()

	if limit <= 0 || limit > s.maxRecent {
		limit = s.maxRecent
	}

	vals, err := s.client.LRange(ctx, recentListKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent detections: %w", err)
	}

	recs = make([]models.DetectionRecord, 0, len(vals))
	for _, v := range vals {
		var rec models.DetectionRecord
		if uerr := json.Unmarshal([]byte(v), &rec); uerr != nil {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Ping checks connectivity to the Redis server.
func (s *RedisStore) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(BackendRedis, "ping", time.Since(start), err) }()

	return s.client.Ping(ctx).Err()
}

// Backend returns "redis".
func (s *RedisStore) Backend() string { return BackendRedis }

// Close closes the client connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
