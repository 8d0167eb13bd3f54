package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pressroom"

// PrometheusRecorder exports metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	articleCache       *prometheus.CounterVec
	articleMutations   *prometheus.CounterVec
	authFailures       *prometheus.CounterVec
	pageViewsRecorded  *prometheus.CounterVec
	pageViewsProcessed *prometheus.CounterVec
	batchSize          prometheus.Histogram
	batchDuration      prometheus.Histogram
	queueDepth         prometheus.Gauge
	ingestLag          prometheus.Histogram
	aggregationSize    *prometheus.HistogramVec
}

// NewPrometheus creates a recorder registered on a fresh registry that also
// carries the Go runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		articleCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "article_cache_requests_total",
			Help:      "Published article list cache lookups by result",
		}, []string{"result"}),
		articleMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "article_mutations_total",
			Help:      "Article create, update and delete operations",
		}, []string{"op"}),
		authFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected credentials by reason",
		}, []string{"reason"}),
		pageViewsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pageviews_recorded_total",
			Help:      "Page views accepted by ingest mode",
		}, []string{"mode"}),
		pageViewsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pageviews_processed_total",
			Help:      "Stream page views processed by the worker by outcome",
		}, []string{"status"}),
		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pageview_batch_size",
			Help:      "Distribution of worker batch sizes",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pageview_batch_duration_seconds",
			Help:      "Duration of worker batch inserts in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pageview_queue_depth",
			Help:      "Pending plus undelivered page view stream entries",
		}),
		ingestLag: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pageview_ingest_lag_seconds",
			Help:      "Delay between a view and its persistence in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		aggregationSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_buckets",
			Help:      "Number of buckets returned per aggregation",
			Buckets:   []float64{1, 7, 31, 90, 366, 1000, 5000, 10000},
		}, []string{"interval"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) IncArticleCacheHit() {
	p.articleCache.WithLabelValues("hit").Inc()
}

func (p *PrometheusRecorder) IncArticleCacheMiss() {
	p.articleCache.WithLabelValues("miss").Inc()
}

func (p *PrometheusRecorder) IncArticleCreated() {
	p.articleMutations.WithLabelValues("create").Inc()
}

func (p *PrometheusRecorder) IncArticleUpdated() {
	p.articleMutations.WithLabelValues("update").Inc()
}

func (p *PrometheusRecorder) IncArticleDeleted() {
	p.articleMutations.WithLabelValues("delete").Inc()
}

func (p *PrometheusRecorder) IncAuthFailure(reason string) {
	p.authFailures.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) IncPageViewRecorded(mode string) {
	p.pageViewsRecorded.WithLabelValues(mode).Inc()
}

func (p *PrometheusRecorder) IncPageViewProcessed(status string) {
	p.pageViewsProcessed.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) ObservePageViewBatchSize(size int) {
	p.batchSize.Observe(float64(size))
}

func (p *PrometheusRecorder) ObservePageViewBatchDuration(duration time.Duration) {
	p.batchDuration.Observe(duration.Seconds())
}

func (p *PrometheusRecorder) SetPageViewQueueDepth(depth int64) {
	p.queueDepth.Set(float64(depth))
}

func (p *PrometheusRecorder) ObservePageViewIngestLag(lag time.Duration) {
	p.ingestLag.Observe(lag.Seconds())
}

func (p *PrometheusRecorder) ObserveAggregationBuckets(interval string, buckets int) {
	p.aggregationSize.WithLabelValues(interval).Observe(float64(buckets))
}
