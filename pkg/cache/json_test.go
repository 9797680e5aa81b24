package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func counter(calls *int, v payload) func(context.Context) (payload, error) {
	return func(context.Context) (payload, error) {
		*calls++
		return v, nil
	}
}

func TestGetOrLoad_NilClientAlwaysLoads(t *testing.T) {
	ctx := context.Background()
	var calls int
	for i := 0; i < 2; i++ {
		v, err := GetOrLoad(ctx, nil, "k", time.Minute, counter(&calls, payload{Name: "a"}))
		require.NoError(t, err)
		assert.Equal(t, "a", v.Name)
	}
	assert.Equal(t, 2, calls)
	assert.NoError(t, Invalidate(ctx, nil, "k"))
}

func TestGetOrLoad_ClosedClientFallsBack(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	require.NoError(t, rdb.Close())

	var calls int
	v, err := GetOrLoad(context.Background(), rdb, "k", time.Minute, counter(&calls, payload{Count: 3}))
	require.NoError(t, err)
	assert.Equal(t, 3, v.Count)
	assert.Equal(t, 1, calls)
}

func TestGetOrLoad_Redis(t *testing.T) {
	addr := os.Getenv("AUTH_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("AUTH_TEST_REDIS_ADDR is required for tests")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())

	key := "test:cache:" + uuid.NewString()
	t.Cleanup(func() { rdb.Del(ctx, key) })

	var calls int
	_, err := GetOrLoad(ctx, rdb, key, time.Minute, func(context.Context) (payload, error) {
		calls++
		return payload{}, errors.New("boom")
	})
	require.Error(t, err)

	for i := 0; i < 2; i++ {
		v, err := GetOrLoad(ctx, rdb, key, time.Minute, counter(&calls, payload{Name: "cached", Count: 1}))
		require.NoError(t, err)
		assert.Equal(t, payload{Name: "cached", Count: 1}, v)
	}
	assert.Equal(t, 2, calls)

	ttl, err := rdb.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, Invalidate(ctx, rdb, key))
	_, err = GetOrLoad(ctx, rdb, key, time.Minute, counter(&calls, payload{}))
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}
