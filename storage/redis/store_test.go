package redisstore

import (
	"context"
	"os"
	"testing"

	"github.com/PaulFidika/vipbridge/entitlements"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	url := os.Getenv("VIP_TEST_REDIS_URL")
	if url == "" {
		t.Skip("VIP_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	key := "vip:test:" + uuid.NewString()
	t.Cleanup(func() {
		_ = rdb.Del(context.Background(), key).Err()
		_ = rdb.Close()
	})
	return New(rdb, key)
}

func TestRedisMissingKeyIsReadError(t *testing.T) {
	b := newTestBackend(t)
	_, err := b.Load(context.Background())
	assert.ErrorIs(t, err, redis.Nil)
}

func TestRedisRoundTrip(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	require.NoError(t, b.Ping(ctx))

	in := []entitlements.Record{{UserID: "1", Username: "roblox_user1", GamePass: "100"}}
	require.NoError(t, b.Save(ctx, in))
	out, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRedisUnderStore(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	s := entitlements.NewStore(b)

	assert.True(t, s.Upsert(ctx, "1", "roblox_user1", "100").Created)
	assert.False(t, s.Upsert(ctx, "1", "renamed", "100").Created)
	rec, ok := s.FindByUsername(ctx, "roblox_user1")
	require.True(t, ok)
	assert.Equal(t, "1", rec.UserID)
}
