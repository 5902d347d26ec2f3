package promotions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
	"github.com/aquaticpose/aquaticpose-backend/pkg/enums"
)

// PromotionDTO is the promotion payload returned to clients.
type PromotionDTO struct {
	ID            uuid.UUID           `json:"id"`
	Name          string              `json:"name"`
	Code          *string             `json:"code,omitempty"`
	Type          enums.PromotionType `json:"type"`
	DiscountType  enums.DiscountType  `json:"discount_type"`
	DiscountValue decimal.Decimal     `json:"discount_value"`
	MinOrderCents int64               `json:"min_order_cents"`
	ProductIDs    []string            `json:"product_ids,omitempty"`
	CategoryIDs   []string            `json:"category_ids,omitempty"`
	BuyQuantity   int                 `json:"buy_quantity,omitempty"`
	GetQuantity   int                 `json:"get_quantity,omitempty"`
	StartsAt      time.Time           `json:"starts_at"`
	EndsAt        time.Time           `json:"ends_at"`
	IsActive      bool                `json:"is_active"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// CouponValidationDTO reports a successful coupon evaluation. Nothing is
// persisted: attaching the promotion to an order is the checkout's job.
type CouponValidationDTO struct {
	Promotion     PromotionDTO `json:"promotion"`
	SubtotalCents int64        `json:"subtotal_cents"`
	DiscountCents int64        `json:"discount_cents"`
	FreeShipping  bool         `json:"free_shipping"`
}

// NewPromotionDTO builds a DTO from the persisted model.
func NewPromotionDTO(promo *models.Promotion) *PromotionDTO {
	return &PromotionDTO{
		ID:            promo.ID,
		Name:          promo.Name,
		Code:          promo.Code,
		Type:          promo.Type,
		DiscountType:  promo.DiscountType,
		DiscountValue: promo.DiscountValue,
		MinOrderCents: promo.MinOrderCents,
		ProductIDs:    promo.ProductIDs,
		CategoryIDs:   promo.CategoryIDs,
		BuyQuantity:   promo.BuyQuantity,
		GetQuantity:   promo.GetQuantity,
		StartsAt:      promo.StartsAt,
		EndsAt:        promo.EndsAt,
		IsActive:      promo.IsActive,
		CreatedAt:     promo.CreatedAt,
		UpdatedAt:     promo.UpdatedAt,
	}
}

// NewPromotionDTOs maps a promotion slice preserving order.
func NewPromotionDTOs(promos []models.Promotion) []PromotionDTO {
	out := make([]PromotionDTO, 0, len(promos))
	for i := range promos {
		out = append(out, *NewPromotionDTO(&promos[i]))
	}
	return out
}
