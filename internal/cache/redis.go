package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Service is a thin key/value abstraction over a remote Redis server.
// Every operation is best-effort: transport and decoding failures are
// absorbed and reported as a miss or a boolean, never as an error, so a
// broken cache can never block a caller that is able to proceed from the
// authoritative source. The underlying client dials lazily on the first
// operation.
type Service struct {
	log    *slog.Logger
	client *redis.Client
}

// NewService creates a cache service for the given redis address.
func NewService(log *slog.Logger, addr string) *Service {
	client := redis.NewClient(&redis.Options{Addr: addr})

	return &Service{log: log, client: client}
}

// NewServiceFromClient creates a cache service using an existing client.
func NewServiceFromClient(log *slog.Logger, client *redis.Client) *Service {
	return &Service{log: log, client: client}
}

// Get fetches the value stored under key and decodes it into dest.
// It returns false on a missing key and on any transport or decoding
// failure, so callers treat every failure mode as a plain miss.
func (s *Service) Get(ctx context.Context, key string, dest any) bool {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "Cache get failed", "key", key, "error", err)
		}
		return false
	}

	if err = json.Unmarshal(payload, dest); err != nil {
		s.log.WarnContext(ctx, "Cache entry is malformed, treating as miss", "key", key, "error", err)
		return false
	}

	return true
}

// Set stores value under key with the given expiry. The value is serialized
// to JSON; failure is logged and reported as false.
func (s *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	payload, err := json.Marshal(value)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to serialize value for cache", "key", key, "error", err)
		return false
	}

	if err = s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		s.log.WarnContext(ctx, "Cache set failed", "key", key, "error", err)
		return false
	}

	return true
}

// Delete removes the key from the cache. Failure is logged and reported as false.
func (s *Service) Delete(ctx context.Context, key string) bool {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.log.WarnContext(ctx, "Cache delete failed", "key", key, "error", err)
		return false
	}

	return true
}

// DeletePattern removes every key matching the glob pattern. It enumerates
// matching keys with SCAN and removes them in one bulk delete; used for bulk
// invalidation such as dropping all cached timesheet templates.
func (s *Service) DeletePattern(ctx context.Context, pattern string) bool {
	var keys []string

	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.log.WarnContext(ctx, "Cache scan failed", "pattern", pattern, "error", err)
		return false
	}

	if len(keys) == 0 {
		return true
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.log.WarnContext(ctx, "Cache bulk delete failed", "pattern", pattern, "error", err)
		return false
	}

	return true
}

// Ping verifies that the redis server is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// Close releases the underlying client connections.
func (s *Service) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}
