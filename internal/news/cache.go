package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AllKey is the cache key of the aggregated item list
const AllKey = "all-rss"

// Entry is a cached item list and the time it was stored
type Entry struct {
	Items     []Item    `json:"items"`
	Timestamp time.Time `json:"timestamp"`
}

// Cache stores aggregated news. Get reports false on a miss or an expired entry.
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, bool, error)
	Set(ctx context.Context, key string, items []Item) error
	Clear(ctx context.Context) error
}

// MemoryCache is a process-local Cache with a fixed TTL
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]Entry
	now     func() time.Time
}

// NewMemoryCache creates an in-memory cache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.now().Sub(e.Timestamp) > c.ttl {
		delete(c.entries, key)
		return nil, false, nil
	}
	return &e, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, items []Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{Items: items, Timestamp: c.now()}
	return nil
}

func (c *MemoryCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
	return nil
}

const redisKeyPrefix = "beegate:news:"

// RedisCache shares the aggregated news between gateway replicas
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCache connects to the Redis server at rawURL
func NewRedisCache(ctx context.Context, rawURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

// Close closes the Redis client
func (c *RedisCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Entry, bool, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("decode cached news %s: %w", key, err)
	}
	return &e, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, items []Item) error {
	data, err := json.Marshal(Entry{Items: items, Timestamp: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode news: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
