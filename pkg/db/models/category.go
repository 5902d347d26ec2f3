package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a node in the catalog's category forest. Level is derived from
// the parent chain (0 for roots) and ProductCount is a cached value refreshed
// on demand, never authoritative.
type Category struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string     `gorm:"column:name;not null;uniqueIndex"`
	Slug         string     `gorm:"column:slug;not null;uniqueIndex"`
	Description  *string    `gorm:"column:description"`
	Icon         *string    `gorm:"column:icon"`
	ParentID     *uuid.UUID `gorm:"column:parent_id;type:uuid;index"`
	Level        int        `gorm:"column:level;not null;default:0"`
	DisplayOrder int        `gorm:"column:display_order;not null;default:0"`
	IsActive     bool       `gorm:"column:is_active;not null"`
	ProductCount int64      `gorm:"column:product_count;not null;default:0"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
