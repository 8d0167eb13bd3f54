package model

import "time"

// PageView is a single append-only view event for an article.
type PageView struct {
	ID        string    `json:"id"`       // ULID (time-sortable)
	EventID   string    `json:"event_id"` // Idempotency key (stream ID or ID)
	ArticleID string    `json:"article"`
	ViewedAt  time.Time `json:"viewed_at"`
}

// PageViewFilter restricts which page views a count or aggregation covers.
// Zero values mean "no restriction".
type PageViewFilter struct {
	ArticleID string
	From      *time.Time // inclusive
	To        *time.Time // inclusive
}

// Interval is the width of an aggregation bucket.
type Interval string

// Aggregation intervals.
const (
	IntervalHourly  Interval = "hourly"
	IntervalDaily   Interval = "daily"
	IntervalMonthly Interval = "monthly"
)

// BucketCount is the number of page views in one bucket.
type BucketCount struct {
	Bucket string `json:"_id"`
	Count  int64  `json:"count"`
}

// Series is the aggregation result returned to clients.
type Series struct {
	Interval Interval      `json:"interval"`
	Data     []BucketCount `json:"data"`
}
