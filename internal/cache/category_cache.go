package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/domain"
)

const categoryTreeKey = "catalog:categories:tree"

// CategoryCache stores the rendered category tree.
// A nil *CategoryCache or one without redis behaves as an always-empty cache.
type CategoryCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewCategoryCache creates a CategoryCache. redis may be nil.
func NewCategoryCache(redis *RedisClient, ttl time.Duration) *CategoryCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CategoryCache{redis: redis, ttl: ttl}
}

func (c *CategoryCache) enabled() bool {
	return c != nil && c.redis != nil
}

// GetTree returns the cached tree or ErrMiss
func (c *CategoryCache) GetTree(ctx context.Context) ([]*domain.CategoryNode, error) {
	if !c.enabled() {
		return nil, ErrMiss
	}

	b, err := c.redis.Get(ctx, categoryTreeKey)
	if err != nil {
		return nil, err
	}

	var tree []*domain.CategoryNode
	if err := json.Unmarshal(b, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode cached category tree: %w", err)
	}
	return tree, nil
}

// SetTree caches the tree
func (c *CategoryCache) SetTree(ctx context.Context, tree []*domain.CategoryNode) error {
	if !c.enabled() {
		return nil
	}

	b, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to encode category tree: %w", err)
	}
	return c.redis.Set(ctx, categoryTreeKey, b, c.ttl)
}

// Invalidate drops the cached tree
func (c *CategoryCache) Invalidate(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.redis.Delete(ctx, categoryTreeKey)
}
