package service

import (
	"context"
	"time"

	"github.com/natours/api/pkg/circuit"
)

// RemoteCache is a networked Cache that can also delete by key pattern.
type RemoteCache interface {
	Cache
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

// GuardedCache puts a circuit breaker in front of a RemoteCache. While the
// circuit is open every call fails with circuit.ErrOpen without touching the
// network, and Remember falls through to the database.
type GuardedCache struct {
	cache   RemoteCache
	breaker *circuit.Breaker
}

func NewGuardedCache(cache RemoteCache, breaker *circuit.Breaker) *GuardedCache {
	return &GuardedCache{cache: cache, breaker: breaker}
}

func (g *GuardedCache) Get(ctx context.Context, key string) (raw []byte, ok bool, err error) {
	err = g.breaker.Execute(func() error {
		raw, ok, err = g.cache.Get(ctx, key)
		return err
	})
	return raw, ok, err
}

func (g *GuardedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return g.breaker.Execute(func() error {
		return g.cache.Set(ctx, key, value, ttl)
	})
}

func (g *GuardedCache) GetInt(ctx context.Context, key string) (n int64, err error) {
	err = g.breaker.Execute(func() error {
		n, err = g.cache.GetInt(ctx, key)
		return err
	})
	return n, err
}

func (g *GuardedCache) Incr(ctx context.Context, key string) (n int64, err error) {
	err = g.breaker.Execute(func() error {
		n, err = g.cache.Incr(ctx, key)
		return err
	})
	return n, err
}

func (g *GuardedCache) DeleteByPattern(ctx context.Context, pattern string) (n int, err error) {
	err = g.breaker.Execute(func() error {
		n, err = g.cache.DeleteByPattern(ctx, pattern)
		return err
	})
	return n, err
}

func (g *GuardedCache) PoolStats() map[string]interface{} {
	if p, ok := g.cache.(poolStater); ok {
		return p.PoolStats()
	}
	return nil
}

func (g *GuardedCache) BreakerStats() map[string]interface{} {
	return g.breaker.Stats()
}
