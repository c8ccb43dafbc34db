package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const validationKeyPrefix = "portal:validation:"

// RedisCache shares validation outcomes between gateway instances.
// Keys are SHA-256 digests of the token; expiry is delegated to Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache returns a cache writing entries with the given ttl.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// Get reads a cached entry. Redis failures are logged and reported as a miss.
func (r *RedisCache) Get(ctx context.Context, token string) (ValidationEntry, bool) {
	raw, err := r.client.Get(ctx, validationKey(token)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("validation cache read failed", zap.Error(err))
		}
		return ValidationEntry{}, false
	}

	var entry ValidationEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		r.logger.Warn("validation cache entry corrupt", zap.Error(err))
		return ValidationEntry{}, false
	}
	return entry, true
}

// Set writes entry with the cache ttl.
func (r *RedisCache) Set(ctx context.Context, token string, entry ValidationEntry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		r.logger.Warn("validation cache encode failed", zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, validationKey(token), payload, r.ttl).Err(); err != nil {
		r.logger.Warn("validation cache write failed", zap.Error(err))
	}
}

func validationKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return validationKeyPrefix + hex.EncodeToString(sum[:])
}
