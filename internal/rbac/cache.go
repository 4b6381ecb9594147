package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	rolesKeyPrefix = "rbac:user_roles:"
	permsKeyPrefix = "rbac:user_permissions:"
)

// CacheMetrics counts cache traffic. Nil disables counting.
type CacheMetrics struct {
	Hits          prometheus.Counter
	Misses        prometheus.Counter
	Invalidations prometheus.Counter
}

// NewCacheMetrics registers resolution cache counters.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rolesvc_resolution_cache_hits_total",
			Help: "Resolution cache hits.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rolesvc_resolution_cache_misses_total",
			Help: "Resolution cache misses.",
		}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rolesvc_resolution_cache_invalidations_total",
			Help: "Explicit resolution cache invalidations.",
		}),
	}
	reg.MustRegister(m.Hits, m.Misses, m.Invalidations)
	return m
}

// Cache is the read-through store for resolved roles and permissions. A nil
// client degrades to loader pass-through so the service keeps working without
// Redis.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *CacheMetrics
	group   singleflight.Group
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration, metrics *CacheMetrics) *Cache {
	return &Cache{client: client, ttl: ttl, metrics: metrics}
}

// FetchRoles returns the user's resolved roles, populating the cache on miss.
func (c *Cache) FetchRoles(ctx context.Context, userID int64, loader func(context.Context) ([]ResolvedRole, error)) ([]ResolvedRole, error) {
	var roles []ResolvedRole
	err := c.fetchJSON(ctx, rolesKey(userID), &roles, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	return roles, err
}

// FetchPermissions returns the user's flattened permission names, populating
// the cache on miss.
func (c *Cache) FetchPermissions(ctx context.Context, userID int64, loader func(context.Context) ([]string, error)) ([]string, error) {
	var perms []string
	err := c.fetchJSON(ctx, permsKey(userID), &perms, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	return perms, err
}

// Invalidate drops both resolution keys for the user.
func (c *Cache) Invalidate(ctx context.Context, userID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	if c.metrics != nil {
		c.metrics.Invalidations.Inc()
	}
	return c.client.Del(ctx, rolesKey(userID), permsKey(userID)).Err()
}

// fetchJSON is the read-through core. Concurrent misses on the same key are
// collapsed through singleflight so the loader runs once.
func (c *Cache) fetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("rbac: cache loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return remarshal(value, dest)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		if c.metrics != nil {
			c.metrics.Hits.Inc()
		}
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		// Redis unreachable. Serve from the loader so resolution keeps
		// working without the cache.
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return remarshal(value, dest)
	}
	if c.metrics != nil {
		c.metrics.Misses.Inc()
	}
	raw, err, _ := c.group.Do(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		// A failed populate leaves the entry cold; the next read loads again.
		_ = c.client.Set(ctx, key, encoded, c.ttl).Err()
		return encoded, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}

func remarshal(value, dest any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func rolesKey(userID int64) string {
	return fmt.Sprintf("%s%d", rolesKeyPrefix, userID)
}

func permsKey(userID int64) string {
	return fmt.Sprintf("%s%d", permsKeyPrefix, userID)
}
