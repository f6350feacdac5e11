package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-checkpoint/internal/config"
)

func TestBoardKey(t *testing.T) {
	assert.Equal(t, "cache:maintenance_board:_all", boardKey(""))
	assert.Equal(t, "cache:maintenance_board:1BPM", boardKey("1BPM"))
}

func TestNopBoardCache(t *testing.T) {
	var c BoardCache = NopBoardCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "1BPM", []byte("[]")))
	got, err := c.Get(ctx, "1BPM")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, c.Invalidate(ctx, "1BPM"))
}

func TestRedisBoardCache_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, config.RedisConfig{Addr: addr})
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	defer client.Close()

	c := NewRedisBoardCache(client, time.Minute)
	require.NoError(t, c.Invalidate(ctx, "TEST"))

	miss, err := c.Get(ctx, "TEST")
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, c.Set(ctx, "TEST", []byte(`[{"plate":"ABC1D23"}]`)))
	require.NoError(t, c.Set(ctx, "", []byte(`[]`)))
	hit, err := c.Get(ctx, "TEST")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"plate":"ABC1D23"}]`, string(hit))

	require.NoError(t, c.Invalidate(ctx, "TEST"))
	all, err := c.Get(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, all)
}
