package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a customer rating attached to a product. VerifiedPurchase is set
// when the reviewer's completed order history contains the product.
type Review struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID        uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	UserID           uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Rating           int       `gorm:"column:rating;not null"`
	Comment          *string   `gorm:"column:comment"`
	VerifiedPurchase bool      `gorm:"column:verified_purchase;not null;default:false"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
