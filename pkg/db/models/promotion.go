package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/aquaticpose/aquaticpose-backend/pkg/enums"
)

// Promotion is a discount rule evaluated against carts and products. The
// evaluation path never mutates it; administrators own the lifecycle.
type Promotion struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string              `gorm:"column:name;not null"`
	Code          *string             `gorm:"column:code;uniqueIndex"`
	Type          enums.PromotionType `gorm:"column:type;not null"`
	DiscountType  enums.DiscountType  `gorm:"column:discount_type;not null"`
	DiscountValue decimal.Decimal     `gorm:"column:discount_value;type:numeric(12,2);not null"`

	MinOrderCents int64          `gorm:"column:min_order_cents;not null;default:0"`
	ProductIDs    pq.StringArray `gorm:"column:product_ids;type:text[]"`
	CategoryIDs   pq.StringArray `gorm:"column:category_ids;type:text[]"`
	BuyQuantity   int            `gorm:"column:buy_quantity;not null;default:0"`
	GetQuantity   int            `gorm:"column:get_quantity;not null;default:0"`

	StartsAt  time.Time `gorm:"column:starts_at;not null"`
	EndsAt    time.Time `gorm:"column:ends_at;not null"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// AvailableAt reports whether the promotion is active and inside its validity
// window at the given instant (boundaries inclusive).
func (p Promotion) AvailableAt(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if now.Before(p.StartsAt) {
		return false
	}
	if now.After(p.EndsAt) {
		return false
	}
	return true
}
