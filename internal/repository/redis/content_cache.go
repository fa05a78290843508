package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/arklim/content-platform-accounts/internal/core/port"
)

// ContentCache invalidates cached content by bumping a version counter.
// Readers include the current version in their cache keys, so incrementing it
// orphans every previously cached entry without scanning for keys.
type ContentCache struct {
	client *redis.Client
	prefix string
}

// NewContentCache constructs a Redis-backed content cache.
func NewContentCache(client *redis.Client, prefix string) *ContentCache {
	if prefix == "" {
		prefix = "accounts:content-cache"
	}
	return &ContentCache{client: client, prefix: prefix}
}

func (c *ContentCache) versionKey() string {
	return c.prefix + ":version"
}

// InvalidateEntryCaches bumps the entry cache version.
func (c *ContentCache) InvalidateEntryCaches(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.versionKey()).Err(); err != nil {
		return fmt.Errorf("bump content cache version: %w", err)
	}
	return nil
}

// CurrentVersion returns the active cache version. A missing key means no
// invalidation has happened yet and version zero is in effect.
func (c *ContentCache) CurrentVersion(ctx context.Context) (int64, error) {
	version, err := c.client.Get(ctx, c.versionKey()).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read content cache version: %w", err)
	}
	return version, nil
}

var _ port.ContentCache = (*ContentCache)(nil)
