package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ixianhq/ixian-server/app/dto"
)

const tagCacheKey = "tags:live"

// TagCache caches the live tag listing in Redis. The listing is tiny and
// read-heavy (every client renders the tag picker), so a single key with a
// short TTL is enough.
type TagCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTagCache creates a Redis-backed tag cache
func NewTagCache(client *redis.Client, ttl time.Duration) *TagCache {
	return &TagCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached listing; the second result is false on a miss
func (c *TagCache) Get(ctx context.Context) ([]dto.TagResponse, bool, error) {
	data, err := c.client.Get(ctx, tagCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read tag cache: %w", err)
	}

	var tags []dto.TagResponse
	if err := json.Unmarshal(data, &tags); err != nil {
		// Treat a corrupt entry as a miss; the next Set overwrites it
		return nil, false, nil
	}

	return tags, true, nil
}

// Set stores the listing with the configured TTL
func (c *TagCache) Set(ctx context.Context, tags []dto.TagResponse) error {
	data, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tag cache entry: %w", err)
	}

	if err := c.client.Set(ctx, tagCacheKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write tag cache: %w", err)
	}

	return nil
}

// Invalidate drops the cached listing after any tag write
func (c *TagCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, tagCacheKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate tag cache: %w", err)
	}
	return nil
}
