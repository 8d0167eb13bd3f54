package dto

import "github.com/pressroom/pressroom/internal/model"

// TrackPageViewRequest is the body of POST /api/page-view.
type TrackPageViewRequest struct {
	Article string `json:"article"`
}

// CountResponse is returned by GET /api/page-view/count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// SeriesResponse is returned by GET /api/page-view/aggregate-date.
type SeriesResponse struct {
	Interval string              `json:"interval"`
	Data     []model.BucketCount `json:"data"`
}

// ToSeriesResponse converts an aggregation result.
func ToSeriesResponse(series *model.Series) SeriesResponse {
	data := series.Data
	if data == nil {
		data = []model.BucketCount{}
	}
	return SeriesResponse{Interval: string(series.Interval), Data: data}
}
