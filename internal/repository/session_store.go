package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedSessionPrefix = "session:revoked:"

// SessionStore tracks revoked session ids.
type SessionStore interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type redisSessionStore struct {
	client *redis.Client
}

// NewSessionStore returns a Redis-backed revocation list.
func NewSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

// Revoke marks sessionID revoked for ttl. Sessions that already expired need no entry.
func (s *redisSessionStore) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if sessionID == "" {
		return errors.New("session id required")
	}
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedSessionPrefix+sessionID, "1", ttl).Err()
}

func (s *redisSessionStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedSessionPrefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
