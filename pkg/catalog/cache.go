package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache stores serialized item lists.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache is a Cache backed by a redis server.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(addr, password string, db int) *RedisCache {
	return &RedisCache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// CachedLister serves lists from a Cache and falls back to the wrapped
// Lister on a miss. Cache failures are logged and never returned.
type CachedLister struct {
	next  Lister
	cache Cache
	ttl   time.Duration
}

func NewCachedLister(next Lister, cache Cache, ttl time.Duration) *CachedLister {
	return &CachedLister{
		next:  next,
		cache: cache,
		ttl:   ttl,
	}
}

func (l *CachedLister) List(ctx context.Context, q Query) ([]Item, error) {
	key := q.CacheKey()

	b, err := l.cache.Get(ctx, key)
	if err == nil {
		var items []Item
		if err := json.Unmarshal(b, &items); err == nil {
			CacheOperations.WithLabelValues("hit").Inc()
			return items, nil
		}
		log.WithField("key", key).Warn("discarding unreadable cache entry")
	} else if !errors.Is(err, ErrCacheMiss) {
		CacheOperations.WithLabelValues("error").Inc()
		log.WithError(err).WithField("key", key).Warn("cache lookup failed")
	}
	CacheOperations.WithLabelValues("miss").Inc()

	items, err := l.next.List(ctx, q)
	if err != nil {
		return nil, err
	}

	b, err = json.Marshal(items)
	if err != nil {
		return items, nil
	}
	if err := l.cache.Set(ctx, key, b, l.ttl); err != nil {
		log.WithError(err).WithField("key", key).Warn("failed to cache list")
	}
	return items, nil
}
