package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

var ErrCacheMiss = errors.New(errors.ErrCodeNotFound, "cache miss")

// Cache is a JSON value cache with read-through loading.
type Cache struct {
	client     *Client
	logger     logging.Logger
	defaultTTL time.Duration
	group      singleflight.Group
}

// NewCache returns a cache over client. ttl applies when Set is given zero.
func NewCache(client *Client, ttl time.Duration, log logging.Logger) *Cache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Cache{client: client, logger: log, defaultTTL: ttl}
}

// jitterTTL spreads expiries by +/-10% so that keys written by one sweep do
// not all expire together.
func jitterTTL(ttl time.Duration) time.Duration {
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

// Get decodes key into dest or returns ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client.isClosed() {
		return ErrClientClosed
	}
	data, err := c.client.rdb.Get(ctx, c.client.Key(key)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode cached value")
	}
	return nil
}

// Set stores value under key.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client.isClosed() {
		return ErrClientClosed
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode cache value")
	}
	if err := c.client.rdb.Set(ctx, c.client.Key(key), data, jitterTTL(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set cache value")
	}
	return nil
}

// Delete removes keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.client.Key(k)
	}
	if err := c.client.rdb.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete cache keys")
	}
	return nil
}

// GetOrLoad reads key, or runs loader once per key across concurrent callers
// and caches its result. Cache write failures are logged, not returned.
func (c *Cache) GetOrLoad(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !stderrors.Is(err, ErrCacheMiss) {
		c.logger.Warn("cache read failed, loading from source", logging.String("key", key), logging.Err(err))
	}

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		v, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		if setErr := c.Set(ctx, key, v, ttl); setErr != nil {
			c.logger.Warn("failed to populate cache", logging.String("key", key), logging.Err(setErr))
		}
		return v, nil
	})
	if err != nil {
		return err
	}

	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to copy loaded value")
	}
	return json.Unmarshal(data, dest)
}

//Personal.AI order the ending
