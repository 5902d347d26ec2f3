package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
)

// ProductDTO is the catalog listing payload returned to clients.
type ProductDTO struct {
	ID                  uuid.UUID  `json:"id"`
	SKU                 string     `json:"sku"`
	Name                string     `json:"name"`
	Slug                string     `json:"slug"`
	Description         *string    `json:"description,omitempty"`
	CategoryID          *uuid.UUID `json:"category_id,omitempty"`
	PriceCents          int64      `json:"price_cents"`
	CompareAtPriceCents *int64     `json:"compare_at_price_cents,omitempty"`
	ImageURLs           []string   `json:"image_urls"`
	IsActive            bool       `json:"is_active"`
	IsFeatured          bool       `json:"is_featured"`
	RatingAverage       float64    `json:"rating_average"`
	RatingCount         int64      `json:"rating_count"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ProductListResult is one page of products plus the cursor for the next.
type ProductListResult struct {
	Items      []ProductDTO `json:"items"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	images := product.ImageURLs
	if images == nil {
		images = []string{}
	}
	return &ProductDTO{
		ID:                  product.ID,
		SKU:                 product.SKU,
		Name:                product.Name,
		Slug:                product.Slug,
		Description:         product.Description,
		CategoryID:          product.CategoryID,
		PriceCents:          product.PriceCents,
		CompareAtPriceCents: product.CompareAtPriceCents,
		ImageURLs:           images,
		IsActive:            product.IsActive,
		IsFeatured:          product.IsFeatured,
		RatingAverage:       product.RatingAverage,
		RatingCount:         product.RatingCount,
		CreatedAt:           product.CreatedAt,
		UpdatedAt:           product.UpdatedAt,
	}
}
