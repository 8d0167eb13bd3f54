package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncArticleCacheHit is a no-op.
func (n *NoopRecorder) IncArticleCacheHit() {}

// IncArticleCacheMiss is a no-op.
func (n *NoopRecorder) IncArticleCacheMiss() {}

// IncArticleCreated is a no-op.
func (n *NoopRecorder) IncArticleCreated() {}

// IncArticleUpdated is a no-op.
func (n *NoopRecorder) IncArticleUpdated() {}

// IncArticleDeleted is a no-op.
func (n *NoopRecorder) IncArticleDeleted() {}

// IncAuthFailure is a no-op.
func (n *NoopRecorder) IncAuthFailure(reason string) {}

// IncPageViewRecorded is a no-op.
func (n *NoopRecorder) IncPageViewRecorded(mode string) {}

// IncPageViewProcessed is a no-op.
func (n *NoopRecorder) IncPageViewProcessed(status string) {}

// ObservePageViewBatchSize is a no-op.
func (n *NoopRecorder) ObservePageViewBatchSize(size int) {}

// ObservePageViewBatchDuration is a no-op.
func (n *NoopRecorder) ObservePageViewBatchDuration(duration time.Duration) {}

// SetPageViewQueueDepth is a no-op.
func (n *NoopRecorder) SetPageViewQueueDepth(depth int64) {}

// ObservePageViewIngestLag is a no-op.
func (n *NoopRecorder) ObservePageViewIngestLag(lag time.Duration) {}

// ObserveAggregationBuckets is a no-op.
func (n *NoopRecorder) ObserveAggregationBuckets(interval string, buckets int) {}
