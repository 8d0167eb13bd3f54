// Package analytics provides page view ingestion and time-bucket aggregation.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressroom/pressroom/internal/metrics"
	"github.com/pressroom/pressroom/internal/model"
)

// DefaultMaxBuckets bounds densification when no limit is configured.
const DefaultMaxBuckets = 10000

// ErrRangeTooLarge is returned when a densified range would exceed the bucket limit.
var ErrRangeTooLarge = errors.New("date range spans too many buckets")

// boundLayouts are the accepted startAt/endAt shapes, tried in order.
// Layouts without a zone are read as UTC.
var boundLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseInterval maps a query value to an interval. Unknown or empty values
// fall back to daily.
func ParseInterval(raw string) model.Interval {
	switch model.Interval(strings.ToLower(strings.TrimSpace(raw))) {
	case model.IntervalHourly:
		return model.IntervalHourly
	case model.IntervalMonthly:
		return model.IntervalMonthly
	default:
		return model.IntervalDaily
	}
}

// BucketKey returns the label of the UTC bucket containing t.
func BucketKey(t time.Time, interval model.Interval) string {
	t = t.UTC()
	switch interval {
	case model.IntervalHourly:
		return t.Format("2006-01-02T15") + ":00:00Z"
	case model.IntervalMonthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// bucketStart truncates t to the start of its UTC bucket.
func bucketStart(t time.Time, interval model.Interval) time.Time {
	t = t.UTC()
	switch interval {
	case model.IntervalHourly:
		return t.Truncate(time.Hour)
	case model.IntervalMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// nextBucket steps by one calendar unit.
func nextBucket(t time.Time, interval model.Interval) time.Time {
	switch interval {
	case model.IntervalHourly:
		return t.Add(time.Hour)
	case model.IntervalMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// ParseBound parses a startAt/endAt query value. Blank or unparseable
// values report false.
func ParseBound(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range boundLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// EndOfDay returns the last millisecond of t's UTC calendar day.
func EndOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

// Range is a normalized pair of optional inclusive bounds.
type Range struct {
	Start *time.Time
	End   *time.Time
}

// Bounded reports whether both bounds are present.
func (r Range) Bounded() bool {
	return r.Start != nil && r.End != nil
}

// NormalizeRange parses raw bounds. Invalid values are treated as absent and
// a present end is widened to the end of its UTC day.
func NormalizeRange(startRaw, endRaw string) Range {
	var r Range
	if start, ok := ParseBound(startRaw); ok {
		r.Start = &start
	}
	if end, ok := ParseBound(endRaw); ok {
		end = EndOfDay(end)
		r.End = &end
	}
	return r
}

// BucketLabels lists every bucket label from the bucket containing start
// through end inclusive. It fails with ErrRangeTooLarge past max labels.
// A start after end yields no labels.
func BucketLabels(start, end time.Time, interval model.Interval, max int) ([]string, error) {
	if max <= 0 {
		max = DefaultMaxBuckets
	}

	end = end.UTC()
	labels := make([]string, 0)
	for current := bucketStart(start, interval); !current.After(end); current = nextBucket(current, interval) {
		if len(labels) == max {
			return nil, fmt.Errorf("%w: more than %d %s buckets", ErrRangeTooLarge, max, interval)
		}
		labels = append(labels, BucketKey(current, interval))
	}
	return labels, nil
}

// Densify left-joins sparse counts onto labels, defaulting missing buckets to zero.
// Sparse entries whose label is not in labels are dropped.
func Densify(sparse []model.BucketCount, labels []string) []model.BucketCount {
	counts := make(map[string]int64, len(sparse))
	for _, b := range sparse {
		counts[b.Bucket] += b.Count
	}

	out := make([]model.BucketCount, len(labels))
	for i, label := range labels {
		out[i] = model.BucketCount{Bucket: label, Count: counts[label]}
	}
	return out
}

// Query carries the raw analytics query parameters.
type Query struct {
	Interval string
	Article  string
	StartAt  string
	EndAt    string
}

// Filter builds the store filter. An article value that is not a valid
// identifier is ignored.
func (q Query) Filter() (model.PageViewFilter, Range) {
	rng := NormalizeRange(q.StartAt, q.EndAt)
	filter := model.PageViewFilter{From: rng.Start, To: rng.End}

	if article, ok := model.NormalizeID(strings.TrimSpace(q.Article)); ok {
		filter.ArticleID = article
	}
	return filter, rng
}

// Store is the persistence the aggregator reads from.
type Store interface {
	Count(ctx context.Context, filter model.PageViewFilter) (int64, error)
	AggregateByBucket(ctx context.Context, filter model.PageViewFilter, interval model.Interval) ([]model.BucketCount, error)
}

// Aggregator counts and buckets page views.
type Aggregator struct {
	store      Store
	maxBuckets int
	metrics    metrics.Recorder
}

// NewAggregator creates an Aggregator. A non-positive maxBuckets uses DefaultMaxBuckets.
func NewAggregator(store Store, maxBuckets int, recorder metrics.Recorder) *Aggregator {
	if maxBuckets <= 0 {
		maxBuckets = DefaultMaxBuckets
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Aggregator{
		store:      store,
		maxBuckets: maxBuckets,
		metrics:    recorder,
	}
}

// Count returns the number of page views matching the query.
func (a *Aggregator) Count(ctx context.Context, q Query) (int64, error) {
	filter, _ := q.Filter()
	return a.store.Count(ctx, filter)
}

// Aggregate returns the bucketed series. The series is dense only when both
// bounds are valid; otherwise only non-empty buckets are returned.
func (a *Aggregator) Aggregate(ctx context.Context, q Query) (*model.Series, error) {
	interval := ParseInterval(q.Interval)
	filter, rng := q.Filter()

	var labels []string
	if rng.Bounded() {
		var err error
		labels, err = BucketLabels(*rng.Start, *rng.End, interval, a.maxBuckets)
		if err != nil {
			return nil, err
		}
	}

	sparse, err := a.store.AggregateByBucket(ctx, filter, interval)
	if err != nil {
		return nil, fmt.Errorf("aggregate page views: %w", err)
	}

	data := sparse
	if labels != nil {
		data = Densify(sparse, labels)
	}
	if data == nil {
		data = []model.BucketCount{}
	}

	a.metrics.ObserveAggregationBuckets(string(interval), len(data))

	return &model.Series{Interval: interval, Data: data}, nil
}
