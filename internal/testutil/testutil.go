// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/pressroom/pressroom/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 731_001

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// TruncateAll empties every application table. The schema itself is
// left in place so goose's version table stays consistent.
func TruncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `TRUNCATE pageviews, articles, users`); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// NewTestUser creates a user with a unique username.
func NewTestUser(t testing.TB, prefix string) *model.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.User{
		ID:           model.NewID(),
		Name:         "Test " + prefix,
		Username:     UniqueName(prefix),
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdHNhbHQ$aGFzaGhhc2g",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestArticle creates an article owned by authorID.
func NewTestArticle(t testing.TB, authorID string, status model.ArticleStatus) *model.Article {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Article{
		ID:        model.NewID(),
		Title:     "Title " + UniqueName("article"),
		Content:   "<p>Body</p>",
		Status:    status,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestPageView creates a page view for articleID at viewedAt.
func NewTestPageView(t testing.TB, articleID string, viewedAt time.Time) *model.PageView {
	t.Helper()
	id := model.NewID()
	return &model.PageView{
		ID:        id,
		EventID:   id,
		ArticleID: articleID,
		ViewedAt:  viewedAt.UTC(),
	}
}

// UniqueName generates a unique name for tests.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
