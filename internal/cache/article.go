package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pressroom/pressroom/internal/model"
)

const (
	publishedArticlesKey = "articles:published"

	// DefaultArticleListTTL is the TTL for the cached published list.
	DefaultArticleListTTL = 60 * time.Second
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetPublishedArticles returns the cached published article list.
// Returns ErrCacheMiss if nothing is cached.
func (c *Cache) GetPublishedArticles(ctx context.Context) ([]*model.ArticleWithAuthor, error) {
	data, err := c.client.Get(ctx, publishedArticlesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var articles []*model.ArticleWithAuthor
	if err := json.Unmarshal(data, &articles); err != nil {
		// Treat undecodable entries as a miss; the next Set overwrites them.
		return nil, ErrCacheMiss
	}
	return articles, nil
}

// SetPublishedArticles caches the published article list.
func (c *Cache) SetPublishedArticles(ctx context.Context, articles []*model.ArticleWithAuthor, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultArticleListTTL
	}
	if articles == nil {
		articles = []*model.ArticleWithAuthor{}
	}

	data, err := json.Marshal(articles)
	if err != nil {
		return fmt.Errorf("marshal articles: %w", err)
	}

	if err := c.client.Set(ctx, publishedArticlesKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidatePublishedArticles drops the cached published list.
func (c *Cache) InvalidatePublishedArticles(ctx context.Context) error {
	if err := c.client.Del(ctx, publishedArticlesKey).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}
