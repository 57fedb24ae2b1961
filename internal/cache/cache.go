package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEmpty is returned by list operations that need an element when the list has none.
var ErrEmpty = errors.New("list is empty")

// Cache is the key-value interface. Activity, the offline queue and rate-limit
// counters all go through here. Implementations must be safe for concurrent use.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)

	// PushFrontCapped prepends value and trims the list to at most max elements.
	PushFrontCapped(ctx context.Context, key string, value []byte, max int) error
	// Range returns elements start..stop inclusive. Negative indexes count from the tail.
	Range(ctx context.Context, key string, start, stop int) ([][]byte, error)
	Append(ctx context.Context, key string, value []byte) error
	Head(ctx context.Context, key string) ([]byte, bool, error)
	SetHead(ctx context.Context, key string, value []byte) error
	PopHead(ctx context.Context, key string) ([]byte, bool, error)
	Len(ctx context.Context, key string) (int, error)
}

// RedisCache implements the Cache interface using go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// IncrWithExpiry increments key. The expiry is set only when the counter is
// created, so the window does not slide.
func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *RedisCache) PushFrontCapped(ctx context.Context, key string, value []byte, max int) error {
	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, key, value)
	if max > 0 {
		pipe.LTrim(ctx, key, 0, int64(max-1))
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisCache) Range(ctx context.Context, key string, start, stop int) ([][]byte, error) {
	vals, err := c.client.LRange(ctx, key, int64(start), int64(stop)).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

func (c *RedisCache) Append(ctx context.Context, key string, value []byte) error {
	return c.client.RPush(ctx, key, value).Err()
}

func (c *RedisCache) Head(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.LIndex(ctx, key, 0).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) SetHead(ctx context.Context, key string, value []byte) error {
	n, err := c.client.LLen(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEmpty
	}
	return c.client.LSet(ctx, key, 0, value).Err()
}

func (c *RedisCache) PopHead(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.LPop(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Len(ctx context.Context, key string) (int, error) {
	n, err := c.client.LLen(ctx, key).Result()
	return int(n), err
}

var _ Cache = (*RedisCache)(nil)
