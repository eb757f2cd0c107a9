package service

import (
	"context"
	"time"

	"propertyhub_backend/pkg/cache"
)

// ResultCache is the part of pkg/cache the services read and invalidate.
type ResultCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) bool
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration)
	DeletePrefix(ctx context.Context, prefix string)
}

func orDisabled(c ResultCache) ResultCache {
	if c == nil {
		return &cache.Cache{}
	}
	return c
}

// invalidateListings drops every cached result derived from property rows
// or their media.
func invalidateListings(ctx context.Context, c ResultCache) {
	c.DeletePrefix(ctx, featuredCachePrefix)
	c.DeletePrefix(ctx, statsCacheKey)
}
