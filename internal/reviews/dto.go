package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
)

// ReviewDTO is the review payload returned to clients.
type ReviewDTO struct {
	ID               uuid.UUID `json:"id"`
	ProductID        uuid.UUID `json:"product_id"`
	UserID           uuid.UUID `json:"user_id"`
	Rating           int       `json:"rating"`
	Comment          *string   `json:"comment,omitempty"`
	VerifiedPurchase bool      `json:"verified_purchase"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ReviewListResult is one page of reviews plus the cursor for the next.
type ReviewListResult struct {
	Items      []ReviewDTO `json:"items"`
	NextCursor *string     `json:"next_cursor,omitempty"`
}

// NewReviewDTO builds a DTO from the persisted model.
func NewReviewDTO(review *models.Review) *ReviewDTO {
	return &ReviewDTO{
		ID:               review.ID,
		ProductID:        review.ProductID,
		UserID:           review.UserID,
		Rating:           review.Rating,
		Comment:          review.Comment,
		VerifiedPurchase: review.VerifiedPurchase,
		CreatedAt:        review.CreatedAt,
		UpdatedAt:        review.UpdatedAt,
	}
}
