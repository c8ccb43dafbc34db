package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreRevocationExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewSessionStore(client)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "sid-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "sid-1", time.Minute))
	revoked, err = store.IsRevoked(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists("session:revoked:sid-1"))

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "sid-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestSessionStoreSkipsExpiredSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewSessionStore(client)
	require.NoError(t, store.Revoke(context.Background(), "sid-2", 0))
	assert.False(t, mr.Exists("session:revoked:sid-2"))
	assert.Error(t, store.Revoke(context.Background(), "", time.Minute))
}
