package explain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/okian/reco/pkg/logger"
	"github.com/okian/reco/pkg/metrics"
)

// Cache stores generated texts by prompt key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type cacheEntry struct {
	expiry time.Time
	value  string
}

// MemoryCache is an in-process TTL cache.
type MemoryCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
	once    sync.Once
}

// NewMemoryCache creates a cache whose entries live for ttl. Expired entries
// are swept once per ttl (at most every five minutes) until Close.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}
	go c.cleanup(min(ttl, 5*time.Minute))
	return c
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiry) {
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expiry: time.Now().Add(c.ttl)}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Close stops the cleanup goroutine.
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stopCh) })
	return nil
}

// RedisCache stores texts in Redis with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, prefix: "reco:explain:"}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key, value string) error {
	return c.client.Set(ctx, c.prefix+key, value, c.ttl).Err()
}

// defaultCallTimeout bounds a shared upstream call that no caller can cancel.
const defaultCallTimeout = 30 * time.Second

// Cached serves repeated prompts from a cache. Concurrent calls for the same
// prompt share one upstream request, which runs detached from any single
// caller so one caller giving up does not fail the others.
type Cached struct {
	next        Explainer
	cache       Cache
	group       singleflight.Group
	callTimeout time.Duration
	log         logger.Logger
}

// CachedOption configures NewCached.
type CachedOption func(*Cached)

// WithCallTimeout bounds the shared upstream call.
func WithCallTimeout(d time.Duration) CachedOption {
	return func(c *Cached) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// NewCached wraps next with cache.
func NewCached(next Explainer, cache Cache, opts ...CachedOption) *Cached {
	c := &Cached{
		next:        next,
		cache:       cache,
		callTimeout: defaultCallTimeout,
		log:         logger.Get().Named("explain.cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Explain implements Explainer. It returns ctx.Err() as soon as the caller's
// own context ends, while the shared call keeps running for other callers.
func (c *Cached) Explain(ctx context.Context, p Prompt) (string, error) {
	key := p.Key()

	v, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.RecordExplanationCache("error")
		c.log.Warn(ctx, "cache read failed", logger.String("kind", string(p.Kind)), logger.Error(err))
	case ok:
		metrics.RecordExplanationCache("hit")
		return v, nil
	default:
		metrics.RecordExplanationCache("miss")
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(detached, c.callTimeout)
		defer cancel()

		text, err := c.next.Explain(callCtx, p)
		if err != nil {
			return "", err
		}
		if err := c.cache.Set(callCtx, key, text); err != nil {
			c.log.Warn(callCtx, "cache write failed", logger.String("kind", string(p.Kind)), logger.Error(err))
		}
		return text, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}
