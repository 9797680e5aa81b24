package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/auth_service/pkg/logging"
)

// GetOrLoad returns the value cached as JSON under key, or calls load and
// caches what it returns for ttl. Without a client, or when Redis fails,
// every call goes to load. Load errors are never cached.
func GetOrLoad[T any](ctx context.Context, rdb *redis.Client, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if rdb == nil {
		return load(ctx)
	}
	l := logging.FromContext(ctx)

	raw, err := rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		l.Warn("cache_decode_failed", "key", key, "error", err)
	case !errors.Is(err, redis.Nil):
		l.Warn("cache_get_failed", "key", key, "error", err)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if b, err := json.Marshal(v); err == nil {
		if err := rdb.Set(ctx, key, b, ttl).Err(); err != nil {
			l.Warn("cache_set_failed", "key", key, "error", err)
		}
	}
	return v, nil
}

// Invalidate deletes keys. It is a no-op without a client.
func Invalidate(ctx context.Context, rdb *redis.Client, keys ...string) error {
	if rdb == nil || len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}
