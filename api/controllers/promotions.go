package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aquaticpose/aquaticpose-backend/api/responses"
	"github.com/aquaticpose/aquaticpose-backend/api/validators"
	promotionsvc "github.com/aquaticpose/aquaticpose-backend/internal/promotions"
	"github.com/aquaticpose/aquaticpose-backend/pkg/enums"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
	"github.com/aquaticpose/aquaticpose-backend/pkg/logger"
)

// PromotionList serves currently available promotions.
func PromotionList(svc promotionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		promos, err := svc.ListAvailable(r.Context(), time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promos)
	}
}

// ProductPromotions lists live promotions matching one product.
func ProductPromotions(svc promotionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promos, err := svc.PromotionsForProduct(r.Context(), id, time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promos)
	}
}

// ProductBestPromotion returns the single most attractive live promotion.
func ProductBestPromotion(svc promotionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promo, err := svc.BestPromotionFor(r.Context(), id, time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promo)
	}
}

type cartItemRequest struct {
	ProductID      string  `json:"product_id" validate:"required"`
	CategoryID     *string `json:"category_id,omitempty"`
	UnitPriceCents int64   `json:"unit_price_cents" validate:"required,min=1"`
	Quantity       int     `json:"quantity" validate:"required,min=1"`
}

type validateCouponRequest struct {
	Code  string            `json:"code" validate:"required"`
	Items []cartItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (req validateCouponRequest) toCart() (promotionsvc.Cart, error) {
	items := make([]promotionsvc.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return promotionsvc.Cart{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		categoryID, err := parseOptionalUUID(item.CategoryID, "category_id")
		if err != nil {
			return promotionsvc.Cart{}, err
		}
		items = append(items, promotionsvc.CartItem{
			ProductID:      productID,
			CategoryID:     categoryID,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		})
	}
	return promotionsvc.Cart{Items: items}, nil
}

// ValidateCoupon evaluates a coupon code against the submitted cart.
func ValidateCoupon(svc promotionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload validateCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := payload.toCart()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ValidateCoupon(r.Context(), payload.Code, cart, time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type createPromotionRequest struct {
	Name          string          `json:"name" validate:"required"`
	Code          *string         `json:"code,omitempty"`
	Type          string          `json:"type" validate:"required"`
	DiscountType  string          `json:"discount_type" validate:"required"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MinOrderCents int64           `json:"min_order_cents" validate:"omitempty,min=0"`
	ProductIDs    []string        `json:"product_ids,omitempty"`
	CategoryIDs   []string        `json:"category_ids,omitempty"`
	BuyQuantity   int             `json:"buy_quantity,omitempty" validate:"omitempty,min=1"`
	GetQuantity   int             `json:"get_quantity,omitempty" validate:"omitempty,min=1"`
	StartsAt      time.Time       `json:"starts_at" validate:"required"`
	EndsAt        time.Time       `json:"ends_at" validate:"required"`
	IsActive      *bool           `json:"is_active,omitempty"`
}

// AdminCreatePromotion handles promotion creation.
func AdminCreatePromotion(svc promotionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createPromotionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promoType, err := enums.ParsePromotionType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promotion type"))
			return
		}
		discountType, err := enums.ParseDiscountType(payload.DiscountType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type"))
			return
		}

		isActive := true
		if payload.IsActive != nil {
			isActive = *payload.IsActive
		}

		promo, err := svc.CreatePromotion(r.Context(), promotionsvc.CreatePromotionInput{
			Name:          payload.Name,
			Code:          payload.Code,
			Type:          promoType,
			DiscountType:  discountType,
			DiscountValue: payload.DiscountValue,
			MinOrderCents: payload.MinOrderCents,
			ProductIDs:    payload.ProductIDs,
			CategoryIDs:   payload.CategoryIDs,
			BuyQuantity:   payload.BuyQuantity,
			GetQuantity:   payload.GetQuantity,
			StartsAt:      payload.StartsAt,
			EndsAt:        payload.EndsAt,
			IsActive:      isActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, promo)
	}
}

type updatePromotionRequest struct {
	Name          *string          `json:"name,omitempty"`
	Code          *string          `json:"code,omitempty"`
	DiscountValue *decimal.Decimal `json:"discount_value,omitempty"`
	MinOrderCents *int64           `json:"min_order_cents,omitempty" validate:"omitempty,min=0"`
	ProductIDs    *[]string        `json:"product_ids,omitempty"`
	CategoryIDs   *[]string        `json:"category_ids,omitempty"`
	BuyQuantity   *int             `json:"buy_quantity,omitempty" validate:"omitempty,min=1"`
	GetQuantity   *int             `json:"get_quantity,omitempty" validate:"omitempty,min=1"`
	StartsAt      *time.Time       `json:"starts_at,omitempty"`
	EndsAt        *time.Time       `json:"ends_at,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
}

// AdminUpdatePromotion handles partial promotion updates.
func AdminUpdatePromotion(svc promotionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "promotionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePromotionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promo, err := svc.UpdatePromotion(r.Context(), id, promotionsvc.UpdatePromotionInput{
			Name:          payload.Name,
			Code:          payload.Code,
			DiscountValue: payload.DiscountValue,
			MinOrderCents: payload.MinOrderCents,
			ProductIDs:    payload.ProductIDs,
			CategoryIDs:   payload.CategoryIDs,
			BuyQuantity:   payload.BuyQuantity,
			GetQuantity:   payload.GetQuantity,
			StartsAt:      payload.StartsAt,
			EndsAt:        payload.EndsAt,
			IsActive:      payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, promo)
	}
}

// AdminListPromotions returns every promotion regardless of window or state.
func AdminListPromotions(svc promotionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		promos, err := svc.ListPromotions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promos)
	}
}

// AdminDeletePromotion removes a promotion.
func AdminDeletePromotion(svc promotionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "promotionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeletePromotion(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
