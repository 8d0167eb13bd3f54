package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pressroom/pressroom/internal/metrics"
	"github.com/pressroom/pressroom/internal/model"
)

// ConsumerGroup is the consumer group that writes page views to Postgres.
const ConsumerGroup = "pageview_writers"

// deadLetterMaxLen caps the dead-letter stream.
const deadLetterMaxLen = 10000

// WorkerConfig tunes how the stream is drained.
type WorkerConfig struct {
	BatchSize    int           // max messages per XREADGROUP / XAUTOCLAIM
	Block        time.Duration // XREADGROUP block time
	MaxAttempts  int           // insert attempts per batch before leaving it pending
	RetryBackoff time.Duration // first retry delay, doubled per attempt
	ClaimEvery   time.Duration // how often to reclaim stale pending messages; 0 disables
	ClaimIdle    time.Duration // pending age after which a message is reclaimed
	DepthEvery   time.Duration // how often to publish the queue depth gauge; 0 disables
}

// DefaultWorkerConfig returns production settings.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		BatchSize:    500,
		Block:        5 * time.Second,
		MaxAttempts:  3,
		RetryBackoff: 2 * time.Second,
		ClaimEvery:   10 * time.Second,
		ClaimIdle:    30 * time.Second,
		DepthEvery:   5 * time.Second,
	}
}

// Repository defines the interface for page view persistence.
type Repository interface {
	BulkInsert(ctx context.Context, views []*model.PageView) error
}

// Worker drains the page view stream into the database in batches.
// Messages are acknowledged only after their batch is stored; the stream
// id becomes the view's event id so redelivery cannot double count.
type Worker struct {
	rdb        *redis.Client
	repo       Repository
	logger     *slog.Logger
	metrics    metrics.Recorder
	consumerID string
	cfg        WorkerConfig

	claim     every
	depth     every
	claimFrom string

	running atomic.Bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// every reports whether a periodic task is due.
type every struct {
	period time.Duration
	last   time.Time
}

func (e *every) due(now time.Time) bool {
	if e.period <= 0 {
		return false
	}
	if !e.last.IsZero() && now.Sub(e.last) < e.period {
		return false
	}
	e.last = now
	return true
}

// NewWorker creates a page view worker. Zero fields in cfg take defaults.
func NewWorker(client *redis.Client, repo Repository, logger *slog.Logger, consumerID string, recorder metrics.Recorder, cfg WorkerConfig) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	def := DefaultWorkerConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Block <= 0 {
		cfg.Block = def.Block
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}
	if cfg.ClaimIdle <= 0 {
		cfg.ClaimIdle = def.ClaimIdle
	}

	return &Worker{
		rdb:        client,
		repo:       repo,
		logger:     logger.With("component", "analytics.worker", "consumer_id", consumerID),
		metrics:    recorder,
		consumerID: consumerID,
		cfg:        cfg,
		claim:      every{period: cfg.ClaimEvery},
		depth:      every{period: cfg.DepthEvery},
		claimFrom:  "0-0",
	}
}

// Run drains the stream until ctx is cancelled or Shutdown is called.
// A stop requested through Shutdown returns nil.
func (w *Worker) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return errors.New("worker already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.mu.Lock()
	w.cancel, w.done = cancel, done
	w.mu.Unlock()
	defer close(done)
	defer cancel()

	if err := w.ensureConsumerGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}
	w.logger.Info("pageview worker started", "batch_size", w.cfg.BatchSize)

	for {
		err := w.processOnce(ctx)
		if ctx.Err() != nil {
			w.logger.Info("pageview worker stopped")
			return nil
		}
		if err != nil {
			w.logger.Error("pageview batch failed", "error", err)
			sleepCtx(ctx, time.Second)
		}
	}
}

// Shutdown stops Run and waits for the in-flight batch to finish.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if cancel == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		w.logger.Warn("pageview worker shutdown timed out")
		return ctx.Err()
	}
}

func (w *Worker) ensureConsumerGroup(ctx context.Context) error {
	err := w.rdb.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "0").Err()
	if err != nil && !isConsumerGroupExistsError(err) {
		return err
	}
	return nil
}

// processOnce handles one batch: reclaimed stale messages when due,
// otherwise new ones.
func (w *Worker) processOnce(ctx context.Context) error {
	now := time.Now()
	if w.depth.due(now) {
		w.reportDepth(ctx)
	}

	var msgs []redis.XMessage
	if w.claim.due(now) {
		claimed, err := w.reclaim(ctx)
		if err != nil {
			w.logger.Warn("failed to reclaim pending page views", "error", err)
		}
		msgs = claimed
	}
	if len(msgs) == 0 {
		read, err := w.read(ctx)
		if err != nil {
			return err
		}
		msgs = read
	}
	if len(msgs) == 0 {
		return nil
	}

	ids := make([]string, 0, len(msgs))
	views := make([]*model.PageView, 0, len(msgs))
	for _, msg := range msgs {
		ids = append(ids, msg.ID)
		view, reason, err := decodeView(msg)
		if err != nil {
			w.deadLetter(ctx, msg, reason, err)
			continue
		}
		views = append(views, view)
	}

	if len(views) > 0 {
		if err := w.store(ctx, views); err != nil {
			// Unacked messages stay pending and are reclaimed later.
			return err
		}
	}

	if err := w.rdb.XAck(ctx, StreamKey, ConsumerGroup, ids...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func (w *Worker) read(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := w.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		Streams:  []string{StreamKey, ">"},
		Count:    int64(w.cfg.BatchSize),
		Block:    w.cfg.Block,
	}).Result()
	if errors.Is(err, redis.Nil) || len(streams) == 0 {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}
	return streams[0].Messages, nil
}

// reclaim takes over messages another consumer read but never acknowledged.
func (w *Worker) reclaim(ctx context.Context) ([]redis.XMessage, error) {
	msgs, next, err := w.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		MinIdle:  w.cfg.ClaimIdle,
		Start:    w.claimFrom,
		Count:    int64(w.cfg.BatchSize),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}
	if next != "" {
		w.claimFrom = next
	}
	return msgs, nil
}

func (w *Worker) reportDepth(ctx context.Context) {
	groups, err := w.rdb.XInfoGroups(ctx, StreamKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		w.logger.Warn("failed to read stream group info", "error", err)
		return
	}
	for _, g := range groups {
		if g.Name == ConsumerGroup {
			w.metrics.SetPageViewQueueDepth(g.Pending + g.Lag)
			return
		}
	}
}

// decodeView turns a stream message into a page view. On failure it
// returns the dead-letter reason.
func decodeView(msg redis.XMessage) (*model.PageView, string, error) {
	raw, ok := msg.Values["payload"].(string)
	if !ok {
		return nil, "invalid_format", errors.New("payload field missing or not a string")
	}

	var payload PageViewPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, "unmarshal_error", err
	}
	if err := ValidatePageViewPayload(payload); err != nil {
		return nil, "validation_error", err
	}

	articleID, _ := model.NormalizeID(payload.ArticleID)
	return &model.PageView{
		ID:        model.NewID(),
		EventID:   msg.ID,
		ArticleID: articleID,
		ViewedAt:  time.UnixMilli(payload.ViewedAt).UTC(),
	}, "", nil
}

// deadLetter copies a message that can never be stored to the DLQ stream.
// The caller acknowledges it with the rest of the batch.
func (w *Worker) deadLetter(ctx context.Context, msg redis.XMessage, reason string, cause error) {
	w.logger.Warn("dead-lettering page view message",
		"message_id", msg.ID,
		"reason", reason,
		"error", cause,
	)

	err := w.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStreamKey,
		MaxLen: deadLetterMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"original_id":      msg.ID,
			"reason":           reason,
			"detail":           cause.Error(),
			"payload":          fmt.Sprint(msg.Values["payload"]),
			"dead_lettered_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		w.logger.Error("failed to write dead-letter entry", "message_id", msg.ID, "error", err)
	}

	w.metrics.IncPageViewProcessed("dead_lettered")
}

// store inserts views, retrying with doubling backoff.
func (w *Worker) store(ctx context.Context, views []*model.PageView) error {
	backoff := w.cfg.RetryBackoff

	var err error
	for attempt := 1; ; attempt++ {
		start := time.Now()
		if err = w.repo.BulkInsert(ctx, views); err == nil {
			w.recordStored(views, time.Since(start))
			return nil
		}
		if attempt >= w.cfg.MaxAttempts {
			break
		}

		w.logger.Warn("page view insert failed, retrying",
			"attempt", attempt,
			"batch_size", len(views),
			"backoff", backoff,
			"error", err,
		)
		if !sleepCtx(ctx, backoff) {
			return ctx.Err()
		}
		backoff *= 2
	}

	for range views {
		w.metrics.IncPageViewProcessed("failed")
	}
	return fmt.Errorf("bulk insert %d page views: %w", len(views), err)
}

func (w *Worker) recordStored(views []*model.PageView, took time.Duration) {
	w.logger.Debug("page views stored", "count", len(views), "duration", took)

	w.metrics.ObservePageViewBatchSize(len(views))
	w.metrics.ObservePageViewBatchDuration(took)
	now := time.Now()
	for _, v := range views {
		w.metrics.IncPageViewProcessed("success")
		w.metrics.ObservePageViewIngestLag(now.Sub(v.ViewedAt))
	}
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// isConsumerGroupExistsError reports the BUSYGROUP reply from XGROUP CREATE.
func isConsumerGroupExistsError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
