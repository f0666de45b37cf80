package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/natours/api/internal/constants"
	"github.com/natours/api/pkg/logger"
	"github.com/natours/api/pkg/metrics"
)

// Cache is the storage behind CacheService. Both the Redis client and the
// in-process cache satisfy it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	GetInt(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// invalidateAttempts bounds the generation bumps tried per invalidation.
const invalidateAttempts = 3

// CacheService caches read results per resource. Writes bump a per-resource
// generation counter, which retires every key built from the old one.
//
// A resource whose bump failed is stale: its reads skip the cache until a
// later bump succeeds.
type CacheService struct {
	cache Cache
	ttl   time.Duration

	mu    sync.Mutex
	stale map[string]bool
}

// NewCacheService returns a disabled service when cache is nil.
func NewCacheService(cache Cache, ttl time.Duration) *CacheService {
	return &CacheService{cache: cache, ttl: ttl, stale: map[string]bool{}}
}

func (s *CacheService) Enabled() bool {
	return s != nil && s.cache != nil && s.ttl > 0
}

func generationKey(resource string) string {
	return constants.CacheKeyPrefix + resource + ":gen"
}

func (s *CacheService) key(ctx context.Context, resource, suffix string) (string, error) {
	gen, err := s.cache.GetInt(ctx, generationKey(resource))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s:%d:%s", constants.CacheKeyPrefix, resource, gen, suffix), nil
}

// Invalidate retires every cached entry of resource. When the bump keeps
// failing the resource is marked stale instead.
func (s *CacheService) Invalidate(ctx context.Context, resource string) {
	if !s.Enabled() {
		return
	}
	if err := s.bump(ctx, resource); err != nil {
		s.setStale(resource, true)
		logger.WarnWithContext(ctx, "Failed to invalidate cache, bypassing it until the next bump").
			String("resource", resource).
			Err(err).
			Log()
		return
	}
	s.setStale(resource, false)
}

func (s *CacheService) bump(ctx context.Context, resource string) error {
	var err error
	for attempt := 0; attempt < invalidateAttempts; attempt++ {
		if _, err = s.cache.Incr(ctx, generationKey(resource)); err == nil {
			return nil
		}
	}
	return err
}

func (s *CacheService) setStale(resource string, stale bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stale {
		s.stale[resource] = true
	} else {
		delete(s.stale, resource)
	}
}

func (s *CacheService) isStale(resource string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale[resource]
}

// resync retries the bump of a stale resource. It reports whether the
// cache may serve resource again.
func (s *CacheService) resync(ctx context.Context, resource string) bool {
	if !s.isStale(resource) {
		return true
	}
	if err := s.bump(ctx, resource); err != nil {
		return false
	}
	s.setStale(resource, false)
	logger.InfoWithContext(ctx, "Deferred cache invalidation applied").
		String("resource", resource).
		Log()
	return true
}

type patternDeleter interface {
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

type poolStater interface {
	PoolStats() map[string]interface{}
}

type breakerStater interface {
	BreakerStats() map[string]interface{}
}

type sizer interface {
	Len() int
}

// ClearAll drops every cached entry. Stores that can delete by pattern lose
// the keys outright; others have every resource generation bumped.
func (s *CacheService) ClearAll(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}
	if d, ok := s.cache.(patternDeleter); ok {
		n, err := d.DeleteByPattern(ctx, constants.CacheKeyPrefix+"*")
		if err == nil {
			s.clearStale()
		}
		return n, err
	}
	for _, resource := range []string{constants.ResourceTour, constants.ResourceUser, constants.ResourceReview} {
		if err := s.bump(ctx, resource); err != nil {
			return 0, err
		}
		s.setStale(resource, false)
	}
	return 0, nil
}

func (s *CacheService) clearStale() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stale = map[string]bool{}
}

// Stats describes the backing store for the admin endpoint.
func (s *CacheService) Stats() map[string]interface{} {
	stats := map[string]interface{}{"enabled": s.Enabled()}
	if !s.Enabled() {
		return stats
	}
	stats["ttl"] = s.ttl.String()
	stats["stale"] = s.staleResources()
	if p, ok := s.cache.(poolStater); ok {
		stats["pool"] = p.PoolStats()
	}
	if b, ok := s.cache.(breakerStater); ok {
		stats["breaker"] = b.BreakerStats()
	}
	if l, ok := s.cache.(sizer); ok {
		stats["items"] = l.Len()
	}
	return stats
}

func (s *CacheService) staleResources() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.stale))
	for resource := range s.stale {
		out = append(out, resource)
	}
	sort.Strings(out)
	return out
}

// Remember returns the cached value for (resource, suffix) or calls load and
// caches its result. Cache failures fall through to load.
func Remember[T any](ctx context.Context, s *CacheService, resource, suffix string, load func() (T, error)) (T, error) {
	if !s.Enabled() {
		return load()
	}
	if !s.resync(ctx, resource) {
		metrics.CacheLookup(false)
		return load()
	}

	key, err := s.key(ctx, resource, suffix)
	if err != nil {
		logger.WarnWithContext(ctx, "Cache unavailable, loading directly").
			String("resource", resource).
			Err(err).
			Log()
		return load()
	}

	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			metrics.CacheLookup(true)
			logger.DebugWithContext(ctx, "Cache hit").
				String("cache_key", key).
				Log()
			return cached, nil
		}
	}
	metrics.CacheLookup(false)

	value, err := load()
	if err != nil {
		return value, err
	}

	raw, err := json.Marshal(value)
	if err == nil {
		err = s.cache.Set(ctx, key, raw, s.ttl)
	}
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to cache response").
			String("cache_key", key).
			Err(err).
			Log()
	}
	return value, nil
}
