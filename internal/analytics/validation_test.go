package analytics

import (
	"testing"
	"time"

	"github.com/pressroom/pressroom/internal/model"
)

func TestValidatePageViewPayload(t *testing.T) {
	valid := PageViewPayload{
		ArticleID: model.NewID(),
		ViewedAt:  time.Now().UnixMilli(),
	}

	if err := ValidatePageViewPayload(valid); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}

	cases := []struct {
		name    string
		payload PageViewPayload
	}{
		{"missing_article", PageViewPayload{ViewedAt: 1}},
		{"invalid_article", PageViewPayload{ArticleID: "507f1f77bcf86cd799439011", ViewedAt: 1}},
		{"missing_viewed_at", PageViewPayload{ArticleID: valid.ArticleID}},
		{"negative_viewed_at", PageViewPayload{ArticleID: valid.ArticleID, ViewedAt: -5}},
	}

	for _, tc := range cases {
		if err := ValidatePageViewPayload(tc.payload); err == nil {
			t.Fatalf("expected error for %s", tc.name)
		}
	}
}
