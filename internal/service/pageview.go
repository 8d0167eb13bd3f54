package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pressroom/pressroom/internal/analytics"
	"github.com/pressroom/pressroom/internal/metrics"
	"github.com/pressroom/pressroom/internal/model"
)

// PageViewWriter stores a page view synchronously.
type PageViewWriter interface {
	Insert(ctx context.Context, view *model.PageView) error
}

// PageViewPublisher queues a page view for asynchronous persistence.
type PageViewPublisher interface {
	Publish(ctx context.Context, articleID string, viewedAt time.Time) (string, error)
}

// PageViewService records and reports page views.
type PageViewService struct {
	writer     PageViewWriter
	publisher  PageViewPublisher
	aggregator *analytics.Aggregator
	logger     *slog.Logger
	metrics    metrics.Recorder
	now        func() time.Time
}

// NewPageViewService creates a new PageViewService. When publisher is
// non-nil, Track queues views instead of writing them directly.
func NewPageViewService(writer PageViewWriter, publisher PageViewPublisher, aggregator *analytics.Aggregator, logger *slog.Logger, recorder metrics.Recorder) *PageViewService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PageViewService{
		writer:     writer,
		publisher:  publisher,
		aggregator: aggregator,
		logger:     logger.With("component", "service.pageview"),
		metrics:    recorder,
		now:        time.Now,
	}
}

// Track records one anonymous view of an article. The reference is only
// checked for syntax; the article does not need to exist.
func (s *PageViewService) Track(ctx context.Context, articleRef string) error {
	articleID, ok := model.NormalizeID(strings.TrimSpace(articleRef))
	if !ok {
		return invalid("Invalid article ID")
	}

	viewedAt := s.now().UTC()

	if s.publisher != nil {
		if _, err := s.publisher.Publish(ctx, articleID, viewedAt); err != nil {
			return fmt.Errorf("queue page view: %w", err)
		}
		return nil
	}

	view := &model.PageView{
		ID:        model.NewID(),
		ArticleID: articleID,
		ViewedAt:  viewedAt,
	}
	view.EventID = view.ID

	if err := s.writer.Insert(ctx, view); err != nil {
		return fmt.Errorf("record page view: %w", err)
	}

	s.metrics.IncPageViewRecorded("direct")
	return nil
}

// Count returns the number of views matching the query.
func (s *PageViewService) Count(ctx context.Context, q analytics.Query) (int64, error) {
	count, err := s.aggregator.Count(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("count page views: %w", err)
	}
	return count, nil
}

// Aggregate returns views grouped into time buckets.
func (s *PageViewService) Aggregate(ctx context.Context, q analytics.Query) (*model.Series, error) {
	series, err := s.aggregator.Aggregate(ctx, q)
	if err != nil {
		if errors.Is(err, analytics.ErrRangeTooLarge) {
			return nil, invalid("Date range is too large for the selected interval")
		}
		return nil, err
	}
	return series, nil
}
