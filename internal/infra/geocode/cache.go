package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"vendorbook/internal/app/policies"
	"vendorbook/internal/domain/geo"
)

// Cache stores resolved points by normalized query.
type Cache interface {
	Get(ctx context.Context, key string) (geo.Point, bool, error)
	Set(ctx context.Context, key string, p geo.Point, ttl time.Duration) error
}

// CachedGeocoder consults Cache before the upstream geocoder. Cache failures
// are logged and fall through to the upstream.
type CachedGeocoder struct {
	Upstream policies.Geocoder
	Cache    Cache
	TTL      time.Duration
	Logger   *slog.Logger
}

func (g *CachedGeocoder) Geocode(ctx context.Context, query string) (geo.Point, error) {
	key := cacheKey(query)
	if g.Cache != nil {
		p, ok, err := g.Cache.Get(ctx, key)
		if err != nil {
			g.warn(ctx, "geocode cache read failed", key, err)
		} else if ok {
			return p, nil
		}
	}
	p, err := g.Upstream.Geocode(ctx, query)
	if err != nil {
		return geo.Point{}, err
	}
	if g.Cache != nil {
		if err := g.Cache.Set(ctx, key, p, g.TTL); err != nil {
			g.warn(ctx, "geocode cache write failed", key, err)
		}
	}
	return p, nil
}

func (g *CachedGeocoder) warn(ctx context.Context, msg, key string, err error) {
	if g.Logger != nil {
		g.Logger.WarnContext(ctx, msg, "key", key, "error", err)
	}
}

func cacheKey(query string) string {
	return "geocode:" + strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// MemoryCache is a process-local TTL cache.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

type memoryEntry struct {
	point   geo.Point
	expires time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (geo.Point, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return geo.Point{}, false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.items, key)
		return geo.Point{}, false, nil
	}
	return e.point, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, p geo.Point, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{point: p}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.items[key] = e
	return nil
}

// RedisCache shares resolved points between instances.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (geo.Point, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return geo.Point{}, false, nil
		}
		return geo.Point{}, false, err
	}
	var p geo.Point
	if err := json.Unmarshal(raw, &p); err != nil {
		return geo.Point{}, false, err
	}
	return p, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, p geo.Point, ttl time.Duration) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

var (
	_ Cache             = (*MemoryCache)(nil)
	_ Cache             = (*RedisCache)(nil)
	_ policies.Geocoder = (*CachedGeocoder)(nil)
)
