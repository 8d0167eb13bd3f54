package analytics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressroom/pressroom/internal/metrics"
	"github.com/pressroom/pressroom/internal/model"
)

func TestParseInterval(t *testing.T) {
	testCases := map[string]model.Interval{
		"hourly":  model.IntervalHourly,
		"HOURLY":  model.IntervalHourly,
		"daily":   model.IntervalDaily,
		"monthly": model.IntervalMonthly,
		"":        model.IntervalDaily,
		"weekly":  model.IntervalDaily,
	}
	for raw, want := range testCases {
		assert.Equal(t, want, ParseInterval(raw), "ParseInterval(%q)", raw)
	}
}

func TestBucketKey(t *testing.T) {
	ts := time.Date(2025, 7, 25, 14, 37, 12, 0, time.UTC)

	assert.Equal(t, "2025-07-25T14:00:00Z", BucketKey(ts, model.IntervalHourly))
	assert.Equal(t, "2025-07-25", BucketKey(ts, model.IntervalDaily))
	assert.Equal(t, "2025-07", BucketKey(ts, model.IntervalMonthly))

	// Non-UTC input is bucketed by its UTC instant.
	tokyo := time.FixedZone("JST", 9*3600)
	local := time.Date(2025, 7, 26, 3, 0, 0, 0, tokyo)
	assert.Equal(t, "2025-07-25", BucketKey(local, model.IntervalDaily))
}

func TestParseBound(t *testing.T) {
	testCases := []struct {
		raw    string
		want   time.Time
		wantOK bool
	}{
		{raw: "2025-07-25", want: time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC), wantOK: true},
		{raw: "2025-07-25T10:30:00Z", want: time.Date(2025, 7, 25, 10, 30, 0, 0, time.UTC), wantOK: true},
		{raw: "2025-07-25T10:30:00.250Z", want: time.Date(2025, 7, 25, 10, 30, 0, 250e6, time.UTC), wantOK: true},
		{raw: "2025-07-25T12:00:00+02:00", want: time.Date(2025, 7, 25, 10, 0, 0, 0, time.UTC), wantOK: true},
		{raw: "2025-07-25T10:30", want: time.Date(2025, 7, 25, 10, 30, 0, 0, time.UTC), wantOK: true},
		{raw: " 2025-07-25 ", want: time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC), wantOK: true},
		{raw: ""},
		{raw: "yesterday"},
		{raw: "2025-13-01"},
	}

	for _, tc := range testCases {
		got, ok := ParseBound(tc.raw)
		assert.Equal(t, tc.wantOK, ok, "ParseBound(%q)", tc.raw)
		if tc.wantOK {
			assert.True(t, tc.want.Equal(got), "ParseBound(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeRange(t *testing.T) {
	t.Run("end widened to end of day", func(t *testing.T) {
		r := NormalizeRange("2025-07-25", "2025-07-26T08:00:00Z")
		require.True(t, r.Bounded())
		assert.Equal(t, time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC), *r.Start)
		assert.Equal(t, time.Date(2025, 7, 26, 23, 59, 59, 999e6, time.UTC), *r.End)
	})

	t.Run("invalid bound treated as absent", func(t *testing.T) {
		r := NormalizeRange("garbage", "2025-07-26")
		assert.Nil(t, r.Start)
		require.NotNil(t, r.End)
		assert.False(t, r.Bounded())
	})

	t.Run("no bounds", func(t *testing.T) {
		r := NormalizeRange("", "")
		assert.Nil(t, r.Start)
		assert.Nil(t, r.End)
	})
}

func TestBucketLabels(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	t.Run("daily inclusive", func(t *testing.T) {
		labels, err := BucketLabels(day(2025, 7, 25), EndOfDay(day(2025, 7, 27)), model.IntervalDaily, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"2025-07-25", "2025-07-26", "2025-07-27"}, labels)
	})

	t.Run("hourly covers whole end day", func(t *testing.T) {
		labels, err := BucketLabels(time.Date(2025, 7, 25, 22, 15, 0, 0, time.UTC), EndOfDay(day(2025, 7, 25)), model.IntervalHourly, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"2025-07-25T22:00:00Z", "2025-07-25T23:00:00Z"}, labels)
	})

	t.Run("monthly from the 31st does not skip short months", func(t *testing.T) {
		labels, err := BucketLabels(day(2025, 1, 31), EndOfDay(day(2025, 4, 1)), model.IntervalMonthly, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"2025-01", "2025-02", "2025-03", "2025-04"}, labels)
	})

	t.Run("daily across leap day", func(t *testing.T) {
		labels, err := BucketLabels(day(2024, 2, 28), EndOfDay(day(2024, 3, 1)), model.IntervalDaily, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"}, labels)
	})

	t.Run("start after end", func(t *testing.T) {
		labels, err := BucketLabels(day(2025, 7, 27), EndOfDay(day(2025, 7, 25)), model.IntervalDaily, 0)
		require.NoError(t, err)
		assert.Empty(t, labels)
	})

	t.Run("too many buckets", func(t *testing.T) {
		_, err := BucketLabels(day(2020, 1, 1), EndOfDay(day(2025, 1, 1)), model.IntervalHourly, 1000)
		assert.ErrorIs(t, err, ErrRangeTooLarge)
	})

	t.Run("exactly at limit", func(t *testing.T) {
		labels, err := BucketLabels(day(2025, 7, 1), EndOfDay(day(2025, 7, 10)), model.IntervalDaily, 10)
		require.NoError(t, err)
		assert.Len(t, labels, 10)
	})
}

func TestDensify(t *testing.T) {
	sparse := []model.BucketCount{
		{Bucket: "2025-07-24", Count: 9}, // outside labels
		{Bucket: "2025-07-26", Count: 4},
	}
	got := Densify(sparse, []string{"2025-07-25", "2025-07-26", "2025-07-27"})

	assert.Equal(t, []model.BucketCount{
		{Bucket: "2025-07-25", Count: 0},
		{Bucket: "2025-07-26", Count: 4},
		{Bucket: "2025-07-27", Count: 0},
	}, got)
}

func TestQueryFilter(t *testing.T) {
	valid := model.NewID()

	filter, rng := Query{Article: valid, StartAt: "2025-07-25", EndAt: "2025-07-26"}.Filter()
	assert.Equal(t, valid, filter.ArticleID)
	assert.True(t, rng.Bounded())
	assert.Equal(t, rng.Start, filter.From)
	assert.Equal(t, rng.End, filter.To)

	filter, _ = Query{Article: "not-an-id"}.Filter()
	assert.Empty(t, filter.ArticleID, "invalid article filter must be ignored")

	filter, _ = Query{Article: " " + strings.ToLower(valid) + " "}.Filter()
	assert.Equal(t, valid, filter.ArticleID, "article filter is case-insensitive")
}

// fakeStore buckets in-memory page views with BucketKey, mirroring the SQL grouping.
type fakeStore struct {
	views     []model.PageView
	err       error
	lastQuery model.PageViewFilter
	calls     int
}

func (s *fakeStore) matches(v model.PageView, f model.PageViewFilter) bool {
	if f.ArticleID != "" && v.ArticleID != f.ArticleID {
		return false
	}
	if f.From != nil && v.ViewedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && v.ViewedAt.After(*f.To) {
		return false
	}
	return true
}

func (s *fakeStore) Count(_ context.Context, f model.PageViewFilter) (int64, error) {
	s.calls++
	s.lastQuery = f
	if s.err != nil {
		return 0, s.err
	}
	var n int64
	for _, v := range s.views {
		if s.matches(v, f) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) AggregateByBucket(_ context.Context, f model.PageViewFilter, interval model.Interval) ([]model.BucketCount, error) {
	s.calls++
	s.lastQuery = f
	if s.err != nil {
		return nil, s.err
	}
	counts := map[string]int64{}
	var order []string
	for _, v := range s.views {
		if !s.matches(v, f) {
			continue
		}
		key := BucketKey(v.ViewedAt, interval)
		if _, ok := counts[key]; !ok {
			order = append(order, key)
		}
		counts[key]++
	}
	// Views are inserted chronologically in these tests, so first-seen order is ascending.
	out := make([]model.BucketCount, 0, len(order))
	for _, key := range order {
		out = append(out, model.BucketCount{Bucket: key, Count: counts[key]})
	}
	return out, nil
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAggregator_DailyExample(t *testing.T) {
	article := model.NewID()
	store := &fakeStore{views: []model.PageView{
		{ArticleID: article, ViewedAt: at("2025-07-25T10:00:00Z")},
		{ArticleID: article, ViewedAt: at("2025-07-25T14:00:00Z")},
		{ArticleID: article, ViewedAt: at("2025-07-26T09:00:00Z")},
	}}

	series, err := NewAggregator(store, 0, nil).Aggregate(context.Background(), Query{
		Interval: "daily",
		StartAt:  "2025-07-25",
		EndAt:    "2025-07-26",
	})
	require.NoError(t, err)
	assert.Equal(t, model.IntervalDaily, series.Interval)
	assert.Equal(t, []model.BucketCount{
		{Bucket: "2025-07-25", Count: 2},
		{Bucket: "2025-07-26", Count: 1},
	}, series.Data)
}

func TestAggregator_EmptyRangeIsZeroFilled(t *testing.T) {
	series, err := NewAggregator(&fakeStore{}, 0, nil).Aggregate(context.Background(), Query{
		StartAt: "2025-07-01",
		EndAt:   "2025-07-03",
	})
	require.NoError(t, err)
	assert.Equal(t, []model.BucketCount{
		{Bucket: "2025-07-01", Count: 0},
		{Bucket: "2025-07-02", Count: 0},
		{Bucket: "2025-07-03", Count: 0},
	}, series.Data)
}

func TestAggregator_EndWithoutStartIsSparse(t *testing.T) {
	store := &fakeStore{views: []model.PageView{
		{ViewedAt: at("2025-07-01T10:00:00Z")},
		{ViewedAt: at("2025-07-03T10:00:00Z")},
		{ViewedAt: at("2025-07-09T10:00:00Z")},
	}}

	series, err := NewAggregator(store, 0, nil).Aggregate(context.Background(), Query{EndAt: "2025-07-03"})
	require.NoError(t, err)
	assert.Equal(t, []model.BucketCount{
		{Bucket: "2025-07-01", Count: 1},
		{Bucket: "2025-07-03", Count: 1},
	}, series.Data)
	require.NotNil(t, store.lastQuery.To)
	assert.Nil(t, store.lastQuery.From)
}

func TestAggregator_DenseSumsMatchCount(t *testing.T) {
	store := &fakeStore{}
	for h := 0; h < 30; h++ {
		store.views = append(store.views, model.PageView{
			ViewedAt: time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC).Add(time.Duration(h*5) * time.Hour),
		})
	}
	agg := NewAggregator(store, 0, nil)

	for _, interval := range []string{"hourly", "daily", "monthly"} {
		q := Query{Interval: interval, StartAt: "2025-03-30", EndAt: "2025-04-03"}

		series, err := agg.Aggregate(context.Background(), q)
		require.NoError(t, err)
		count, err := agg.Count(context.Background(), q)
		require.NoError(t, err)

		var sum int64
		seen := map[string]bool{}
		for _, b := range series.Data {
			sum += b.Count
			assert.False(t, seen[b.Bucket], "duplicate bucket %s", b.Bucket)
			seen[b.Bucket] = true
		}
		assert.Equal(t, count, sum, "interval %s", interval)
	}
}

func TestAggregator_UnknownIntervalFallsBackToDaily(t *testing.T) {
	series, err := NewAggregator(&fakeStore{}, 0, nil).Aggregate(context.Background(), Query{Interval: "fortnightly"})
	require.NoError(t, err)
	assert.Equal(t, model.IntervalDaily, series.Interval)
	assert.NotNil(t, series.Data)
	assert.Empty(t, series.Data)
}

func TestAggregator_RangeTooLarge(t *testing.T) {
	store := &fakeStore{}
	_, err := NewAggregator(store, 100, nil).Aggregate(context.Background(), Query{
		Interval: "hourly",
		StartAt:  "2025-01-01",
		EndAt:    "2025-12-31",
	})
	assert.ErrorIs(t, err, ErrRangeTooLarge)
	assert.Zero(t, store.calls, "store must not be queried for rejected ranges")
}

func TestAggregator_StoreError(t *testing.T) {
	_, err := NewAggregator(&fakeStore{err: errors.New("db down")}, 0, nil).Aggregate(context.Background(), Query{})
	require.Error(t, err)
}

func TestAggregator_RecordsMetrics(t *testing.T) {
	rec := metrics.NewInMemory()
	_, err := NewAggregator(&fakeStore{}, 0, rec).Aggregate(context.Background(), Query{StartAt: "2025-07-01", EndAt: "2025-07-02"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.Snapshot().AggregationRequests)
}

func TestAggregator_CountIgnoresInvalidArticle(t *testing.T) {
	store := &fakeStore{views: []model.PageView{
		{ArticleID: model.NewID(), ViewedAt: at("2025-07-01T10:00:00Z")},
		{ArticleID: model.NewID(), ViewedAt: at("2025-07-02T10:00:00Z")},
	}}

	count, err := NewAggregator(store, 0, nil).Count(context.Background(), Query{Article: "bogus"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
