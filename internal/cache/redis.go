package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanCount is the COUNT hint per SCAN round trip; delBatch bounds how
// many keys a single DEL carries.
const (
	scanCount = 500
	delBatch  = 500
)

// RedisCache implements Cache on top of a Redis client. DeletePrefix is
// implemented with an incremental SCAN over prefix* so it never blocks
// the server the way KEYS would.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache creates a new RedisCache
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// DeletePrefix deletes every key matching prefix*. Best-effort: if the
// scan dies partway the keys removed so far stay removed, the rest expire
// on their TTL, and the error reports the gap.
func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, prefix+"*", scanCount).Iterator()

	keys := make([]string, 0, delBatch)
	flush := func() error {
		if len(keys) == 0 {
			return nil
		}
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			return err
		}
		keys = keys[:0]
		return nil
	}

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= delBatch {
			if err := flush(); err != nil {
				return fmt.Errorf("delete prefix %q: %w", prefix, err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan prefix %q: %w", prefix, err)
	}
	if err := flush(); err != nil {
		return fmt.Errorf("delete prefix %q: %w", prefix, err)
	}
	return nil
}
