package registry

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
	"github.com/suteetoe/tenantstarter/pkg/logger"
	"github.com/suteetoe/tenantstarter/prometheus"
)

// ErrCacheMiss means the key is not cached
var ErrCacheMiss = errors.New("cache miss")

// KVStore is the slice of Redis the hostname cache needs
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisKV is a KVStore over go-redis
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV wraps client
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

const hostKeyPrefix = "tenantstarter:host:"

// Cached remembers which partition key a hostname routes to. Only positive
// lookups are cached, and every write that can change routing evicts the
// affected hosts. Cache failures are logged and never fail a lookup.
type Cached struct {
	Catalog
	kv  KVStore
	ttl time.Duration
}

// NewCached decorates c with a hostname cache
func NewCached(c Catalog, kv KVStore, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cached{Catalog: c, kv: kv, ttl: ttl}
}

func hostKey(host string) string {
	return hostKeyPrefix + host
}

func (c *Cached) TenantByDomain(ctx context.Context, host string) (*model.Tenant, error) {
	host = NormalizeHost(host)
	log := logger.FromContext(ctx)

	schemaName, err := c.kv.Get(ctx, hostKey(host))
	switch {
	case err == nil:
		t, err := c.Catalog.TenantBySchema(ctx, schemaName)
		if err == nil {
			prometheus.RecordResolve("cache_hit")
			return t, nil
		}
		if !errors.Is(err, tenancy.ErrTenantNotFound) {
			return nil, err
		}
		c.evict(ctx, host)
	case !errors.Is(err, ErrCacheMiss):
		log.Warn("Hostname cache read failed", zap.String("host", host), zap.Error(err))
	}

	t, err := c.Catalog.TenantByDomain(ctx, host)
	if err != nil {
		return nil, err
	}
	if err := c.kv.Set(ctx, hostKey(host), t.SchemaName, c.ttl); err != nil {
		log.Warn("Hostname cache write failed", zap.String("host", host), zap.Error(err))
	}
	return t, nil
}

func (c *Cached) AddDomain(ctx context.Context, tenantID uint, host string, primary bool) (*model.Domain, error) {
	d, err := c.Catalog.AddDomain(ctx, tenantID, host, primary)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, d.Domain)
	return d, nil
}

func (c *Cached) RemoveDomain(ctx context.Context, host string) error {
	if err := c.Catalog.RemoveDomain(ctx, host); err != nil {
		return err
	}
	c.evict(ctx, NormalizeHost(host))
	return nil
}

func (c *Cached) ClearDomains(ctx context.Context, tenantID uint) ([]string, error) {
	hosts, err := c.Catalog.ClearDomains(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, hosts...)
	return hosts, nil
}

func (c *Cached) DeleteTenant(ctx context.Context, id uint, hard bool) error {
	var hosts []string
	if t, err := c.Catalog.GetTenant(ctx, id); err == nil {
		for _, d := range t.Domains {
			hosts = append(hosts, d.Domain)
		}
	}
	if err := c.Catalog.DeleteTenant(ctx, id, hard); err != nil {
		return err
	}
	c.evict(ctx, hosts...)
	return nil
}

// EnsurePublicTenant goes through the decorator so new hosts are evicted
func (c *Cached) EnsurePublicTenant(ctx context.Context, name string, hosts []string) (*model.Tenant, error) {
	return ensurePublic(ctx, c, name, hosts)
}

func (c *Cached) evict(ctx context.Context, hosts ...string) {
	if len(hosts) == 0 {
		return
	}
	keys := make([]string, len(hosts))
	for i, h := range hosts {
		keys[i] = hostKey(h)
	}
	if err := c.kv.Del(ctx, keys...); err != nil {
		logger.FromContext(ctx).Warn("Hostname cache eviction failed", zap.Strings("hosts", hosts), zap.Error(err))
	}
}
