package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/illmade-knight/go-swr/pkg/swr"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisSourceConfig holds configuration for the Redis client.
type RedisSourceConfig struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix is prepended to every cache key before the Redis lookup.
	KeyPrefix string
}

// RedisSource is a fetcher backed by Redis. Values are stored as JSON and
// unmarshalled into V on fetch. A missing key is a fetch failure, not a
// panic or a zero value.
type RedisSource[V any] struct {
	redisClient *redis.Client
	keyPrefix   string
	logger      zerolog.Logger
}

// NewRedisSource creates and connects a new RedisSource. It pings the
// Redis server to ensure connectivity before returning.
func NewRedisSource[V any](ctx context.Context, cfg *RedisSourceConfig, logger zerolog.Logger) (*RedisSource[V], error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Str("redis_address", cfg.Addr).Msg("Successfully connected to Redis.")

	return &RedisSource[V]{
		redisClient: rdb,
		keyPrefix:   cfg.KeyPrefix,
		logger:      logger.With().Str("component", "RedisSource").Logger(),
	}, nil
}

// Fetch retrieves and unmarshals the value stored for a key.
func (s *RedisSource[V]) Fetch(ctx context.Context, key string) (V, error) {
	var zero V
	redisKey := s.keyPrefix + key

	payload, err := s.redisClient.Get(ctx, redisKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, fmt.Errorf("key '%s' not found in redis", redisKey)
		}
		s.logger.Error().Err(err).Str("key", redisKey).Msg("Unexpected Redis error during fetch.")
		return zero, fmt.Errorf("redis get for %s: %w", redisKey, err)
	}

	var value V
	if err := json.Unmarshal([]byte(payload), &value); err != nil {
		s.logger.Error().Err(err).Str("key", redisKey).Msg("Failed to unmarshal stored data.")
		return zero, fmt.Errorf("unmarshal redis value for %s: %w", redisKey, err)
	}
	return value, nil
}

// Write stores a value for a key, marshalled as JSON with no TTL. Useful
// for tests and for seeding the source of truth.
func (s *RedisSource[V]) Write(ctx context.Context, key string, value V) error {
	redisKey := s.keyPrefix + key
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %s: %w", redisKey, err)
	}
	if err := s.redisClient.Set(ctx, redisKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set for %s: %w", redisKey, err)
	}
	return nil
}

// Fetcher adapts the source to the swr.Fetcher function type.
func (s *RedisSource[V]) Fetcher() swr.Fetcher[V] {
	return s.Fetch
}

// Close closes the Redis client connection.
func (s *RedisSource[V]) Close() error {
	if s.redisClient != nil {
		s.logger.Info().Msg("Closing Redis client connection...")
		return s.redisClient.Close()
	}
	return nil
}
