package analytics

import (
	"fmt"

	"github.com/pressroom/pressroom/internal/model"
)

// ValidatePageViewPayload validates page view payload fields.
func ValidatePageViewPayload(payload PageViewPayload) error {
	if payload.ArticleID == "" {
		return fmt.Errorf("article is required")
	}
	if !model.IsValidID(payload.ArticleID) {
		return fmt.Errorf("article is not a valid id")
	}
	if payload.ViewedAt <= 0 {
		return fmt.Errorf("viewed_at must be set")
	}
	return nil
}
