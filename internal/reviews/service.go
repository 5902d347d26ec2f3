package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
	"github.com/aquaticpose/aquaticpose-backend/pkg/pagination"
)

// Service exposes product review operations.
type Service interface {
	CreateReview(ctx context.Context, productID, userID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error)
	ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewListResult, error)
}

// CreateReviewInput holds the validated payload to create a review.
type CreateReviewInput struct {
	Rating  int
	Comment *string
}

type productRatingStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateRating(ctx context.Context, id uuid.UUID, average float64, count int64) error
}

// service implements the review service.
type service struct {
	repo        *Repository
	productRepo productRatingStore
}

// NewService constructs a review service instance.
func NewService(repo *Repository, productRepo productRatingStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, productRepo: productRepo}, nil
}

// CreateReview records a rating for a product, marks it verified when the
// reviewer's completed orders contain the product, and refreshes the
// product's cached rating summary.
func (s *service) CreateReview(ctx context.Context, productID, userID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	var comment *string
	if input.Comment != nil {
		trimmed := strings.TrimSpace(*input.Comment)
		if trimmed != "" {
			comment = &trimmed
		}
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load product")
	}

	already, err := s.repo.ExistsForUser(ctx, productID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check existing review")
	}
	if already {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "user already reviewed this product")
	}

	verified, err := s.repo.HasCompletedPurchase(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check purchase history")
	}

	review := &models.Review{
		ID:               uuid.New(),
		ProductID:        productID,
		UserID:           userID,
		Rating:           input.Rating,
		Comment:          comment,
		VerifiedPurchase: verified,
	}
	created, err := s.repo.Create(ctx, review)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create review")
	}

	average, count, err := s.repo.RatingSummary(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to compute rating summary")
	}
	if err := s.productRepo.UpdateRating(ctx, productID, average, count); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update rating cache")
	}

	return NewReviewDTO(created), nil
}

// ListReviews returns one page of a product's reviews, newest first.
func (s *service) ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewListResult, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load product")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByProduct(ctx, productID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list reviews")
	}

	result := &ReviewListResult{Items: make([]ReviewDTO, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		result.Items = append(result.Items, *NewReviewDTO(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &next
	}
	return result, nil
}
