package metrics

import (
	"sync"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ArticleCacheHits    uint64
	ArticleCacheMisses  uint64
	ArticlesCreated     uint64
	ArticlesUpdated     uint64
	ArticlesDeleted     uint64
	AuthFailures        map[string]uint64
	PageViewsRecorded   map[string]uint64
	PageViewsProcessed  map[string]uint64
	PageViewBatches     uint64
	PageViewQueueDepth  int64
	AggregationRequests uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		snap: Snapshot{
			AuthFailures:       make(map[string]uint64),
			PageViewsRecorded:  make(map[string]uint64),
			PageViewsProcessed: make(map[string]uint64),
		},
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.snap
	out.AuthFailures = copyCounts(m.snap.AuthFailures)
	out.PageViewsRecorded = copyCounts(m.snap.PageViewsRecorded)
	out.PageViewsProcessed = copyCounts(m.snap.PageViewsProcessed)
	return out
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *InMemoryRecorder) update(fn func(s *Snapshot)) {
	m.mu.Lock()
	fn(&m.snap)
	m.mu.Unlock()
}

// IncArticleCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncArticleCacheHit() {
	m.update(func(s *Snapshot) { s.ArticleCacheHits++ })
}

// IncArticleCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncArticleCacheMiss() {
	m.update(func(s *Snapshot) { s.ArticleCacheMisses++ })
}

// IncArticleCreated increments the article created counter.
func (m *InMemoryRecorder) IncArticleCreated() {
	m.update(func(s *Snapshot) { s.ArticlesCreated++ })
}

// IncArticleUpdated increments the article updated counter.
func (m *InMemoryRecorder) IncArticleUpdated() {
	m.update(func(s *Snapshot) { s.ArticlesUpdated++ })
}

// IncArticleDeleted increments the article deleted counter.
func (m *InMemoryRecorder) IncArticleDeleted() {
	m.update(func(s *Snapshot) { s.ArticlesDeleted++ })
}

// IncAuthFailure counts a rejected credential by reason.
func (m *InMemoryRecorder) IncAuthFailure(reason string) {
	m.update(func(s *Snapshot) { s.AuthFailures[reason]++ })
}

// IncPageViewRecorded counts an accepted page view by ingest mode.
func (m *InMemoryRecorder) IncPageViewRecorded(mode string) {
	m.update(func(s *Snapshot) { s.PageViewsRecorded[mode]++ })
}

// IncPageViewProcessed counts a stream page view by outcome.
func (m *InMemoryRecorder) IncPageViewProcessed(status string) {
	m.update(func(s *Snapshot) { s.PageViewsProcessed[status]++ })
}

// ObservePageViewBatchSize counts processed batches.
func (m *InMemoryRecorder) ObservePageViewBatchSize(size int) {
	m.update(func(s *Snapshot) { s.PageViewBatches++ })
}

// ObservePageViewBatchDuration is not tracked in memory.
func (m *InMemoryRecorder) ObservePageViewBatchDuration(duration time.Duration) {}

// SetPageViewQueueDepth records the latest queue depth.
func (m *InMemoryRecorder) SetPageViewQueueDepth(depth int64) {
	m.update(func(s *Snapshot) { s.PageViewQueueDepth = depth })
}

// ObservePageViewIngestLag is not tracked in memory.
func (m *InMemoryRecorder) ObservePageViewIngestLag(lag time.Duration) {}

// ObserveAggregationBuckets counts aggregation requests.
func (m *InMemoryRecorder) ObserveAggregationBuckets(interval string, buckets int) {
	m.update(func(s *Snapshot) { s.AggregationRequests++ })
}
