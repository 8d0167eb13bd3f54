package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pressroom/pressroom/internal/analytics"
	"github.com/pressroom/pressroom/internal/handler/dto"
	"github.com/pressroom/pressroom/internal/model"
)

// PageViewTracker records and reports page views.
type PageViewTracker interface {
	Track(ctx context.Context, articleRef string) error
	Count(ctx context.Context, q analytics.Query) (int64, error)
	Aggregate(ctx context.Context, q analytics.Query) (*model.Series, error)
}

// PageViewHandler handles page view tracking and analytics.
type PageViewHandler struct {
	svc    PageViewTracker
	logger *slog.Logger
}

// NewPageViewHandler creates a new PageViewHandler.
func NewPageViewHandler(svc PageViewTracker, logger *slog.Logger) *PageViewHandler {
	return &PageViewHandler{svc: svc, logger: logger}
}

// Track handles POST /api/page-view. No authentication is required.
func (h *PageViewHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req dto.TrackPageViewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.Track(r.Context(), req.Article); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MessageResponse{Message: "Page view recorded"})
}

// Count handles GET /api/page-view/count?article=&startAt=&endAt=.
func (h *PageViewHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.Count(r.Context(), analyticsQuery(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CountResponse{Count: count})
}

// Aggregate handles GET /api/page-view/aggregate-date?interval=&article=&startAt=&endAt=.
func (h *PageViewHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	series, err := h.svc.Aggregate(r.Context(), analyticsQuery(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToSeriesResponse(series))
}

func analyticsQuery(r *http.Request) analytics.Query {
	q := r.URL.Query()
	return analytics.Query{
		Interval: q.Get("interval"),
		Article:  q.Get("article"),
		StartAt:  q.Get("startAt"),
		EndAt:    q.Get("endAt"),
	}
}
