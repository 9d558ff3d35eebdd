// Package cache provides the optional Redis-backed cache for short link
// resolution. Cache failures are never surfaced to callers; a miss or an
// unreachable Redis simply falls through to the database.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const shortLinkKeyPrefix = "shortlink:"

// ShortLinkCache caches short ID to original URL mappings.
type ShortLinkCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewShortLinkCache(client *redis.Client, ttl time.Duration) *ShortLinkCache {
	return &ShortLinkCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached original URL for shortID, if present.
func (c *ShortLinkCache) Get(ctx context.Context, shortID string) (string, bool) {
	originalURL, err := c.client.Get(ctx, shortLinkKeyPrefix+shortID).Result()
	if err != nil {
		return "", false
	}

	return originalURL, true
}

// Set caches the mapping from shortID to originalURL. Errors are discarded.
func (c *ShortLinkCache) Set(ctx context.Context, shortID, originalURL string) {
	c.client.Set(ctx, shortLinkKeyPrefix+shortID, originalURL, c.ttl)
}
