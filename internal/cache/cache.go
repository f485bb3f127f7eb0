package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClientSource yields the current Redis client; the holder swaps clients
// under us when it reconnects.
type ClientSource interface {
	Get() redis.UniversalClient
}

// Cache is a namespaced Redis key-value cache with per-entry TTLs. The
// gateway uses one to remember verified user tokens.
type Cache struct {
	source    ClientSource
	namespace string
}

func NewCache(namespace string, source ClientSource) *Cache {
	return &Cache{
		namespace: namespace,
		source:    source,
	}
}

// Get value from Redis
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	cmd := c.source.Get().Get(ctx, c.namespace+":"+key)
	return cmd.Val(), cmd.Err()
}

// Store data to Redis
func (c *Cache) Store(ctx context.Context, key string, ttl int, value any) error {
	dur, err := time.ParseDuration(strconv.Itoa(ttl) + "s")
	if err != nil {
		return err
	}
	return c.source.Get().Set(ctx, c.namespace+":"+key, value, dur).Err()
}

// Delete key from Redis
func (c *Cache) Remove(ctx context.Context, key string) error {
	return c.source.Get().Del(ctx, c.namespace+":"+key).Err()
}

// Flush drops every key in the namespace.
func (c *Cache) Flush(ctx context.Context) error {
	rc := c.source.Get()
	keys := rc.Keys(ctx, c.namespace+":*")
	// using pipeline to delete keys efficiently
	pl := rc.Pipeline()
	for _, key := range keys.Val() {
		pl.Del(ctx, key)
	}
	_, err := pl.Exec(ctx)
	return err
}
