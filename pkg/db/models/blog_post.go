package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// BlogPost is an editorial article published on the storefront.
type BlogPost struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title         string         `gorm:"column:title;not null"`
	Slug          string         `gorm:"column:slug;not null;uniqueIndex"`
	BodyHTML      string         `gorm:"column:body_html;not null"`
	CoverImageURL *string        `gorm:"column:cover_image_url"`
	Tags          pq.StringArray `gorm:"column:tags;type:text[]"`
	AuthorID      uuid.UUID      `gorm:"column:author_id;type:uuid;not null"`
	IsPublished   bool           `gorm:"column:is_published;not null;default:false"`
	PublishedAt   *time.Time     `gorm:"column:published_at"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
