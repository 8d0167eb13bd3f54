package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pressroom/pressroom/internal/model"
)

// PageViewRepository provides database access for page views.
type PageViewRepository struct {
	repo *Repository
}

// NewPageViewRepository creates a new PageViewRepository.
func NewPageViewRepository(repo *Repository) *PageViewRepository {
	return &PageViewRepository{repo: repo}
}

const insertPageViewQuery = `
	INSERT INTO pageviews (id, event_id, article_id, viewed_at, created_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (event_id) DO NOTHING
`

// Insert records a single page view.
func (r *PageViewRepository) Insert(ctx context.Context, view *model.PageView) error {
	_, err := r.repo.pool.Exec(ctx, insertPageViewQuery,
		view.ID,
		view.EventID,
		view.ArticleID,
		view.ViewedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert page view: %w", err)
	}
	return nil
}

// BulkInsert inserts multiple page views with idempotency via ON CONFLICT DO NOTHING.
func (r *PageViewRepository) BulkInsert(ctx context.Context, views []*model.PageView) error {
	if len(views) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, view := range views {
		batch.Queue(insertPageViewQuery,
			view.ID,
			view.EventID,
			view.ArticleID,
			view.ViewedAt,
		)
	}

	results := r.repo.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(views); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert page view %d: %w", i, err)
		}
	}

	return nil
}

// Count returns the number of page views matching the filter.
func (r *PageViewRepository) Count(ctx context.Context, filter model.PageViewFilter) (int64, error) {
	where, args := buildPageViewWhere(filter)
	query := `SELECT COUNT(*) FROM pageviews` + where

	var count int64
	if err := r.repo.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count page views: %w", err)
	}
	return count, nil
}

// AggregateByBucket groups matching page views into UTC buckets of the given
// interval. Only non-empty buckets are returned, ordered by label ascending.
func (r *PageViewRepository) AggregateByBucket(ctx context.Context, filter model.PageViewFilter, interval model.Interval) ([]model.BucketCount, error) {
	where, args := buildPageViewWhere(filter)
	query := fmt.Sprintf(`
		SELECT to_char(viewed_at AT TIME ZONE 'UTC', '%s') AS bucket, COUNT(*)
		FROM pageviews%s
		GROUP BY bucket
		ORDER BY bucket ASC
	`, bucketFormat(interval), where)

	rows, err := r.repo.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate page views: %w", err)
	}
	defer rows.Close()

	buckets := make([]model.BucketCount, 0)
	for rows.Next() {
		var b model.BucketCount
		if err := rows.Scan(&b.Bucket, &b.Count); err != nil {
			return nil, fmt.Errorf("failed to scan bucket: %w", err)
		}
		buckets = append(buckets, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating buckets: %w", err)
	}

	return buckets, nil
}

// bucketFormat returns the to_char pattern producing the bucket label.
func bucketFormat(interval model.Interval) string {
	switch interval {
	case model.IntervalHourly:
		return `YYYY-MM-DD"T"HH24":00:00Z"`
	case model.IntervalMonthly:
		return `YYYY-MM`
	default:
		return `YYYY-MM-DD`
	}
}

func buildPageViewWhere(filter model.PageViewFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if filter.ArticleID != "" {
		args = append(args, filter.ArticleID)
		clauses = append(clauses, fmt.Sprintf("article_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("viewed_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("viewed_at <= $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
