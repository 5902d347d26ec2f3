package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product represents a storefront catalog listing.
type Product struct {
	ID                  uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU                 string         `gorm:"column:sku;not null;uniqueIndex"`
	Name                string         `gorm:"column:name;not null"`
	Slug                string         `gorm:"column:slug;not null;uniqueIndex"`
	Description         *string        `gorm:"column:description"`
	CategoryID          *uuid.UUID     `gorm:"column:category_id;type:uuid;index"`
	PriceCents          int64          `gorm:"column:price_cents;not null"`
	CompareAtPriceCents *int64         `gorm:"column:compare_at_price_cents"`
	ImageURLs           pq.StringArray `gorm:"column:image_urls;type:text[]"`
	IsActive            bool           `gorm:"column:is_active;not null"`
	IsFeatured          bool           `gorm:"column:is_featured;not null;default:false"`
	RatingAverage       float64        `gorm:"column:rating_average;not null;default:0"`
	RatingCount         int64          `gorm:"column:rating_count;not null;default:0"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
