package price

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	goredis "github.com/go-redis/redis/v8"

	"github.com/STTM-NSU/portfolio-tracker/internal/logger"
	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

type Cache interface {
	Get(ctx context.Context, key string) (model.Quote, bool)
	Set(ctx context.Context, key string, q model.Quote, ttl time.Duration)
	Clear(ctx context.Context) error
}

func CacheKey(symbol string, instrumentType model.InstrumentType, market model.Market) string {
	return string(instrumentType) + ":" + string(market) + ":" + strings.ToUpper(symbol)
}

type memoryEntry struct {
	quote   model.Quote
	expires time.Time
}

type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (model.Quote, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expires) {
		return model.Quote{}, false
	}
	return e.quote, true
}

func (c *MemoryCache) Set(_ context.Context, key string, q model.Quote, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	// drop expired entries while holding the lock anyway
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = memoryEntry{quote: q, expires: now.Add(ttl)}
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
	return nil
}

const (
	_redisKeyPrefix = "portfolio:price:"
	_redisScanCount = 100
)

// RedisCache shares quotes between service replicas. Errors are logged and
// treated as misses.
type RedisCache struct {
	client *goredis.Client
	logger logger.Logger
}

func NewRedisCache(client *goredis.Client, logger logger.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) (model.Quote, bool) {
	data, err := c.client.Get(ctx, _redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger.Warnf("%s: can't get cached price %s", err, key)
		}
		return model.Quote{}, false
	}

	var q model.Quote
	if err := sonic.Unmarshal(data, &q); err != nil {
		c.logger.Warnf("%s: can't decode cached price %s", err, key)
		return model.Quote{}, false
	}
	return q, true
}

func (c *RedisCache) Set(ctx context.Context, key string, q model.Quote, ttl time.Duration) {
	data, err := sonic.Marshal(q)
	if err != nil {
		c.logger.Warnf("%s: can't encode price %s", err, key)
		return
	}
	if err := c.client.Set(ctx, _redisKeyPrefix+key, data, ttl).Err(); err != nil {
		c.logger.Warnf("%s: can't cache price %s", err, key)
	}
}

// Clear removes every cached price. Keys of other applications sharing the
// redis database are left alone.
func (c *RedisCache) Clear(ctx context.Context) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, _redisKeyPrefix+"*", _redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: can't scan cached prices", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: can't delete cached prices", err)
	}
	return nil
}

// Cached keeps successful lookups for ttl. Failures are not cached.
type Cached struct {
	next  Resolver
	cache Cache
	ttl   time.Duration
}

func NewCached(next Resolver, cache Cache, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: cache, ttl: ttl}
}

func (c *Cached) Resolve(ctx context.Context, symbol string, instrumentType model.InstrumentType, market model.Market) (model.Quote, error) {
	key := CacheKey(symbol, instrumentType, market)
	if q, ok := c.cache.Get(ctx, key); ok {
		return q, nil
	}

	q, err := c.next.Resolve(ctx, symbol, instrumentType, market)
	if err != nil {
		return model.Quote{}, err
	}
	c.cache.Set(ctx, key, q, c.ttl)
	return q, nil
}

// ClearCache drops all cached quotes.
func (c *Cached) ClearCache(ctx context.Context) error {
	return c.cache.Clear(ctx)
}
