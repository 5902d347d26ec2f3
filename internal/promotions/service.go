package promotions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
	"github.com/aquaticpose/aquaticpose-backend/pkg/enums"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
)

// Service exposes promotion management and evaluation operations.
type Service interface {
	CreatePromotion(ctx context.Context, input CreatePromotionInput) (*PromotionDTO, error)
	UpdatePromotion(ctx context.Context, promotionID uuid.UUID, input UpdatePromotionInput) (*PromotionDTO, error)
	DeletePromotion(ctx context.Context, promotionID uuid.UUID) error
	GetPromotion(ctx context.Context, promotionID uuid.UUID) (*PromotionDTO, error)
	ListPromotions(ctx context.Context) ([]PromotionDTO, error)
	ListAvailable(ctx context.Context, now time.Time) ([]PromotionDTO, error)
	PromotionsForProduct(ctx context.Context, productID uuid.UUID, now time.Time) ([]PromotionDTO, error)
	BestPromotionFor(ctx context.Context, productID uuid.UUID, now time.Time) (*PromotionDTO, error)
	ValidateCoupon(ctx context.Context, code string, cart Cart, now time.Time) (*CouponValidationDTO, error)
}

// CreatePromotionInput holds the validated payload to create a promotion.
type CreatePromotionInput struct {
	Name          string
	Code          *string
	Type          enums.PromotionType
	DiscountType  enums.DiscountType
	DiscountValue decimal.Decimal
	MinOrderCents int64
	ProductIDs    []string
	CategoryIDs   []string
	BuyQuantity   int
	GetQuantity   int
	StartsAt      time.Time
	EndsAt        time.Time
	IsActive      bool
}

// UpdatePromotionInput holds optional mutation values for a promotion.
type UpdatePromotionInput struct {
	Name          *string
	Code          *string
	DiscountValue *decimal.Decimal
	MinOrderCents *int64
	ProductIDs    *[]string
	CategoryIDs   *[]string
	BuyQuantity   *int
	GetQuantity   *int
	StartsAt      *time.Time
	EndsAt        *time.Time
	IsActive      *bool
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// service implements the promotion service.
type service struct {
	repo        *Repository
	productRepo productLoader
}

// NewService constructs a promotion service instance.
func NewService(repo *Repository, productRepo productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotion repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, productRepo: productRepo}, nil
}

// NormalizeCode upper-cases and trims a coupon code for storage and lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreatePromotion creates a promotion after validating the rule shape.
func (s *service) CreatePromotion(ctx context.Context, input CreatePromotionInput) (*PromotionDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	var code *string
	if input.Code != nil {
		normalized := NormalizeCode(*input.Code)
		if normalized != "" {
			code = &normalized
		}
	}
	if input.Type == enums.PromotionTypeCoupon && code == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon promotions require a code")
	}

	if err := validateRule(input.Type, input.DiscountType, input.DiscountValue, input.BuyQuantity, input.GetQuantity, input.StartsAt, input.EndsAt); err != nil {
		return nil, err
	}

	if code != nil {
		taken, err := s.repo.CodeExists(ctx, *code, nil)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check promotion code")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "promotion code already in use")
		}
	}

	promo := &models.Promotion{
		ID:            uuid.New(),
		Name:          name,
		Code:          code,
		Type:          input.Type,
		DiscountType:  input.DiscountType,
		DiscountValue: input.DiscountValue,
		MinOrderCents: input.MinOrderCents,
		ProductIDs:    input.ProductIDs,
		CategoryIDs:   input.CategoryIDs,
		BuyQuantity:   input.BuyQuantity,
		GetQuantity:   input.GetQuantity,
		StartsAt:      input.StartsAt,
		EndsAt:        input.EndsAt,
		IsActive:      input.IsActive,
	}

	created, err := s.repo.Create(ctx, promo)
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "promotion code already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create promotion")
	}
	return NewPromotionDTO(created), nil
}

// UpdatePromotion applies a partial update. The promotion type is fixed at
// creation since it changes how every other field is interpreted.
func (s *service) UpdatePromotion(ctx context.Context, promotionID uuid.UUID, input UpdatePromotionInput) (*PromotionDTO, error) {
	promo, err := s.repo.FindByID(ctx, promotionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load promotion")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		promo.Name = name
	}
	if input.Code != nil {
		normalized := NormalizeCode(*input.Code)
		if normalized == "" {
			if promo.Type == enums.PromotionTypeCoupon {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon promotions require a code")
			}
			promo.Code = nil
		} else {
			taken, err := s.repo.CodeExists(ctx, normalized, &promotionID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check promotion code")
			}
			if taken {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "promotion code already in use")
			}
			promo.Code = &normalized
		}
	}
	if input.DiscountValue != nil {
		promo.DiscountValue = *input.DiscountValue
	}
	if input.MinOrderCents != nil {
		promo.MinOrderCents = *input.MinOrderCents
	}
	if input.ProductIDs != nil {
		promo.ProductIDs = *input.ProductIDs
	}
	if input.CategoryIDs != nil {
		promo.CategoryIDs = *input.CategoryIDs
	}
	if input.BuyQuantity != nil {
		promo.BuyQuantity = *input.BuyQuantity
	}
	if input.GetQuantity != nil {
		promo.GetQuantity = *input.GetQuantity
	}
	if input.StartsAt != nil {
		promo.StartsAt = *input.StartsAt
	}
	if input.EndsAt != nil {
		promo.EndsAt = *input.EndsAt
	}
	if input.IsActive != nil {
		promo.IsActive = *input.IsActive
	}

	if err := validateRule(promo.Type, promo.DiscountType, promo.DiscountValue, promo.BuyQuantity, promo.GetQuantity, promo.StartsAt, promo.EndsAt); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, promo)
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "promotion code already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update promotion")
	}
	return NewPromotionDTO(updated), nil
}

// DeletePromotion removes a promotion.
func (s *service) DeletePromotion(ctx context.Context, promotionID uuid.UUID) error {
	if err := s.repo.Delete(ctx, promotionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to delete promotion")
	}
	return nil
}

// GetPromotion loads one promotion by id.
func (s *service) GetPromotion(ctx context.Context, promotionID uuid.UUID) (*PromotionDTO, error) {
	promo, err := s.repo.FindByID(ctx, promotionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load promotion")
	}
	return NewPromotionDTO(promo), nil
}

// ListPromotions returns every promotion for administration.
func (s *service) ListPromotions(ctx context.Context) ([]PromotionDTO, error) {
	promos, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list promotions")
	}
	return NewPromotionDTOs(promos), nil
}

// ListAvailable returns promotions live at the given instant, most attractive
// first.
func (s *service) ListAvailable(ctx context.Context, now time.Time) ([]PromotionDTO, error) {
	promos, err := s.repo.ListAvailable(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list promotions")
	}
	sortByAttractiveness(promos)
	return NewPromotionDTOs(promos), nil
}

// PromotionsForProduct returns the live promotions a product page can badge:
// scoped promotions whose conditions name the product or its category, plus
// order-wide discounts. Coupons are excluded since they require explicit code
// entry.
func (s *service) PromotionsForProduct(ctx context.Context, productID uuid.UUID, now time.Time) ([]PromotionDTO, error) {
	matched, err := s.matchProductPromotions(ctx, productID, now)
	if err != nil {
		return nil, err
	}
	sortByAttractiveness(matched)
	return NewPromotionDTOs(matched), nil
}

// BestPromotionFor picks the single most attractive live promotion for a
// product, for badge display. Fixed amounts are ranked against percentages
// via the reference-order heuristic, so this is a display choice rather than
// a price guarantee.
func (s *service) BestPromotionFor(ctx context.Context, productID uuid.UUID, now time.Time) (*PromotionDTO, error) {
	matched, err := s.matchProductPromotions(ctx, productID, now)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no promotion applies to this product")
	}
	sortByAttractiveness(matched)
	return NewPromotionDTO(&matched[0]), nil
}

func (s *service) matchProductPromotions(ctx context.Context, productID uuid.UUID, now time.Time) ([]models.Promotion, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load product")
	}

	promos, err := s.repo.ListAvailable(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list promotions")
	}

	var matched []models.Promotion
	for i := range promos {
		promo := &promos[i]
		switch promo.Type {
		case enums.PromotionTypeCoupon:
			continue
		case enums.PromotionTypeOrderDiscount:
			matched = append(matched, *promo)
		case enums.PromotionTypeProductDiscount, enums.PromotionTypeConditionalDiscount:
			if itemMatchesConditions(promo, product.ID, product.CategoryID) {
				matched = append(matched, *promo)
			}
		}
	}
	return matched, nil
}

// ValidateCoupon evaluates a coupon code against a cart snapshot. It is
// read-only: persisting the promotion-to-order association belongs to the
// checkout that eventually places the order. Failures are typed so callers
// can tell "try another code" from "system unavailable".
func (s *service) ValidateCoupon(ctx context.Context, code string, cart Cart, now time.Time) (*CouponValidationDTO, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	promo, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to look up coupon")
	}

	// A disabled coupon reads the same as a lapsed one from the outside.
	if !promo.AvailableAt(now) {
		return nil, pkgerrors.New(pkgerrors.CodeExpired, "coupon is no longer valid")
	}

	subtotal := cart.SubtotalCents()
	if subtotal < promo.MinOrderCents {
		return nil, pkgerrors.New(pkgerrors.CodeConditionNotMet, "cart subtotal is below the coupon minimum").
			WithDetails(map[string]int64{
				"min_order_cents": promo.MinOrderCents,
				"subtotal_cents":  subtotal,
			})
	}

	result, err := ComputeDiscount(promo, cart)
	if err != nil {
		return nil, err
	}

	return &CouponValidationDTO{
		Promotion:     *NewPromotionDTO(promo),
		SubtotalCents: subtotal,
		DiscountCents: result.DiscountCents,
		FreeShipping:  result.FreeShipping,
	}, nil
}

// validateRule checks the cross-field constraints that give a promotion a
// single coherent meaning.
func validateRule(promoType enums.PromotionType, discountType enums.DiscountType, value decimal.Decimal, buyQty, getQty int, startsAt, endsAt time.Time) error {
	if !promoType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid promotion type")
	}
	if !discountType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}

	switch discountType {
	case enums.DiscountTypePercentage:
		if value.IsNegative() || value.GreaterThan(hundred) {
			return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount must be between 0 and 100")
		}
	case enums.DiscountTypeFixedAmount:
		if value.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "fixed discount cannot be negative")
		}
	case enums.DiscountTypeBuyXGetY:
		if buyQty <= 0 || getQty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "buy_quantity and get_quantity must be positive")
		}
	}

	if startsAt.IsZero() || endsAt.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "validity window is required")
	}
	if !endsAt.After(startsAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "ends_at must be after starts_at")
	}
	return nil
}
