package price

import (
	"context"
	"fmt"
	"time"
)

// Cache is the subset of the cache layer the provider decorator needs.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedProvider wraps a Provider with a read-through cache. Cache failures
// are treated as misses; the underlying provider remains the source of truth.
type CachedProvider struct {
	inner Provider
	cache Cache
	ttl   time.Duration
}

// NewCachedProvider creates a caching decorator around a provider.
func NewCachedProvider(inner Provider, cache Cache, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedProvider{inner: inner, cache: cache, ttl: ttl}
}

// GetPrices returns the cached series when present, otherwise fetches from
// the underlying provider and populates the cache.
func (p *CachedProvider) GetPrices(ctx context.Context, market string, days int) ([]Point, error) {
	key := fmt.Sprintf("prices:%s:%dd", market, days)

	var cached []Point
	if err := p.cache.GetJSON(ctx, key, &cached); err == nil && len(cached) > 0 {
		return cached, nil
	}

	points, err := p.inner.GetPrices(ctx, market, days)
	if err != nil {
		return nil, err
	}

	if len(points) > 0 {
		// Best effort; a failed write must not fail the fetch.
		_ = p.cache.SetJSON(ctx, key, points, p.ttl)
	}

	return points, nil
}
