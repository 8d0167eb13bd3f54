// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory for tests.
type Recorder interface {
	// Article metrics
	IncArticleCacheHit()
	IncArticleCacheMiss()
	IncArticleCreated()
	IncArticleUpdated()
	IncArticleDeleted()

	// Auth metrics
	IncAuthFailure(reason string) // reason: "missing", "invalid", "credentials"

	// Page view pipeline metrics
	IncPageViewRecorded(mode string)    // mode: "direct" or "stream"
	IncPageViewProcessed(status string) // status: "success", "failed", "dead_lettered"
	ObservePageViewBatchSize(size int)
	ObservePageViewBatchDuration(duration time.Duration)
	SetPageViewQueueDepth(depth int64)
	ObservePageViewIngestLag(lag time.Duration)

	// Aggregation metrics
	ObserveAggregationBuckets(interval string, buckets int)
}
