package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *Client {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	c := NewClient(redis.NewClient(&redis.Options{Addr: addr}))
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Health(context.Background()))
	return c
}

func TestJSONRoundTrip(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	type product struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}

	require.NoError(t, c.SetJSON(ctx, "test:product:1", product{ID: 1, Name: "Laptop"}, time.Minute))

	var got product
	found, err := c.GetJSON(ctx, "test:product:1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Laptop", got.Name)

	require.NoError(t, c.Delete(ctx, "test:product:1"))
	found, err = c.GetJSON(ctx, "test:product:1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIncrWindow(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	key := "test:rate:" + time.Now().Format(time.RFC3339Nano)

	first, err := c.Incr(ctx, key, time.Minute)
	require.NoError(t, err)
	second, err := c.Incr(ctx, key, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)

	ttl, err := c.Redis.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
