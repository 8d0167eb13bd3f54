package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pressroom/pressroom/internal/metrics"
)

const (
	// StreamKey is the Redis stream for page view events.
	StreamKey = "stream:pageviews"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:pageviews:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 500 * time.Millisecond
)

// PageViewPayload is the compact event format stored in the stream.
type PageViewPayload struct {
	ArticleID string `json:"a"`
	ViewedAt  int64  `json:"t"` // Unix milliseconds
}

// Publisher enqueues page views to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new page view publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "analytics.publisher"),
		metrics: recorder,
	}
}

// Publish appends a page view to the stream and returns its stream id.
func (p *Publisher) Publish(ctx context.Context, articleID string, viewedAt time.Time) (string, error) {
	payload := PageViewPayload{ArticleID: articleID, ViewedAt: viewedAt.UnixMilli()}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	id, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		p.logger.Warn("failed to publish page view", "article_id", articleID, "error", err)
		return "", fmt.Errorf("xadd: %w", err)
	}

	p.logger.Debug("page view published", "article_id", articleID, "stream_id", id)
	p.metrics.IncPageViewRecorded("stream")
	return id, nil
}
