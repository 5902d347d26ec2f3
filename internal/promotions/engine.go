package promotions

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
	"github.com/aquaticpose/aquaticpose-backend/pkg/enums"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
)

// CartItem is one line of the cart snapshot the engine evaluates. The cart is
// an input, never persisted here.
type CartItem struct {
	ProductID      uuid.UUID
	CategoryID     *uuid.UUID
	UnitPriceCents int64
	Quantity       int
}

// Cart is the snapshot a client submits for evaluation.
type Cart struct {
	Items []CartItem
}

// SubtotalCents sums every line of the cart.
func (c Cart) SubtotalCents() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.UnitPriceCents * int64(item.Quantity)
	}
	return total
}

// DiscountResult is the outcome of evaluating one promotion against a cart.
// FreeShipping is a flag because the shipping fee is tracked outside the item
// subtotal.
type DiscountResult struct {
	DiscountCents int64
	FreeShipping  bool
}

// hundred is the percentage divisor, kept as decimal to avoid float drift.
var hundred = decimal.NewFromInt(100)

// ComputeDiscount evaluates a promotion against a cart without touching
// storage. DiscountValue is a percentage for PERCENTAGE and an amount in
// cents for FIXED_AMOUNT. Product and conditional promotions discount only
// the lines matching their product/category conditions; order and coupon
// promotions discount the whole cart.
func ComputeDiscount(promo *models.Promotion, cart Cart) (DiscountResult, error) {
	scoped := scopedItems(promo, cart)
	subtotal := scoped.SubtotalCents()

	switch promo.DiscountType {
	case enums.DiscountTypePercentage:
		value := promo.DiscountValue
		if value.IsNegative() || value.GreaterThan(hundred) {
			return DiscountResult{}, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount must be between 0 and 100")
		}
		discount := decimal.NewFromInt(subtotal).Mul(value).Div(hundred).RoundDown(0).IntPart()
		if discount > subtotal {
			discount = subtotal
		}
		return DiscountResult{DiscountCents: discount}, nil

	case enums.DiscountTypeFixedAmount:
		if promo.DiscountValue.IsNegative() {
			return DiscountResult{}, pkgerrors.New(pkgerrors.CodeValidation, "fixed discount cannot be negative")
		}
		discount := promo.DiscountValue.RoundDown(0).IntPart()
		if discount > subtotal {
			discount = subtotal
		}
		return DiscountResult{DiscountCents: discount}, nil

	case enums.DiscountTypeFreeShipping:
		return DiscountResult{FreeShipping: true}, nil

	case enums.DiscountTypeBuyXGetY:
		if promo.BuyQuantity <= 0 || promo.GetQuantity <= 0 {
			return DiscountResult{}, pkgerrors.New(pkgerrors.CodeValidation, "buy_quantity and get_quantity must be positive")
		}
		return DiscountResult{DiscountCents: buyXGetYDiscount(promo, scoped)}, nil

	default:
		return DiscountResult{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown discount type")
	}
}

// buyXGetYDiscount expands the eligible lines into single units, forms groups
// of buy+get units, and gives away get units per group. The free units are
// always the cheapest eligible ones so repeated evaluations of the same cart
// agree with each other.
func buyXGetYDiscount(promo *models.Promotion, scoped Cart) int64 {
	type unit struct {
		priceCents int64
		productID  uuid.UUID
	}

	var units []unit
	for _, item := range scoped.Items {
		for i := 0; i < item.Quantity; i++ {
			units = append(units, unit{priceCents: item.UnitPriceCents, productID: item.ProductID})
		}
	}

	groupSize := promo.BuyQuantity + promo.GetQuantity
	freeCount := (len(units) / groupSize) * promo.GetQuantity
	if freeCount == 0 {
		return 0
	}

	sort.SliceStable(units, func(i, j int) bool {
		if units[i].priceCents != units[j].priceCents {
			return units[i].priceCents < units[j].priceCents
		}
		return units[i].productID.String() < units[j].productID.String()
	})

	var discount int64
	for i := 0; i < freeCount; i++ {
		discount += units[i].priceCents
	}
	return discount
}

// scopedItems narrows the cart to the promotion's condition set for product
// and conditional promotions. Order and coupon promotions see the whole cart,
// as does a scoped promotion with no conditions at all.
func scopedItems(promo *models.Promotion, cart Cart) Cart {
	if promo.Type != enums.PromotionTypeProductDiscount && promo.Type != enums.PromotionTypeConditionalDiscount {
		return cart
	}
	if len(promo.ProductIDs) == 0 && len(promo.CategoryIDs) == 0 {
		return cart
	}

	scoped := Cart{}
	for _, item := range cart.Items {
		if itemMatchesConditions(promo, item.ProductID, item.CategoryID) {
			scoped.Items = append(scoped.Items, item)
		}
	}
	return scoped
}

// itemMatchesConditions reports whether the promotion's condition set names
// the product or its category. An empty condition set matches everything.
func itemMatchesConditions(promo *models.Promotion, productID uuid.UUID, categoryID *uuid.UUID) bool {
	if len(promo.ProductIDs) == 0 && len(promo.CategoryIDs) == 0 {
		return true
	}
	pid := productID.String()
	for _, id := range promo.ProductIDs {
		if id == pid {
			return true
		}
	}
	if categoryID != nil {
		cid := categoryID.String()
		for _, id := range promo.CategoryIDs {
			if id == cid {
				return true
			}
		}
	}
	return false
}

// referenceOrderCents anchors the fixed-amount to percentage conversion used
// when ranking promotions. A fixed discount is treated as a percentage of
// this reference order value. It is a display heuristic, not a financial
// guarantee.
const referenceOrderCents = 100_000

// normalizedPercent maps any promotion onto a rough percentage scale for
// ranking. FREE_SHIPPING and BUY_X_GET_Y get fixed rank values since their
// worth depends on the cart.
func normalizedPercent(promo *models.Promotion) decimal.Decimal {
	switch promo.DiscountType {
	case enums.DiscountTypePercentage:
		return promo.DiscountValue
	case enums.DiscountTypeFixedAmount:
		return promo.DiscountValue.Div(decimal.NewFromInt(referenceOrderCents)).Mul(hundred)
	case enums.DiscountTypeBuyXGetY:
		if promo.BuyQuantity+promo.GetQuantity > 0 {
			ratio := decimal.NewFromInt(int64(promo.GetQuantity)).
				Div(decimal.NewFromInt(int64(promo.BuyQuantity + promo.GetQuantity)))
			return ratio.Mul(hundred)
		}
		return decimal.Zero
	case enums.DiscountTypeFreeShipping:
		return decimal.NewFromInt(5)
	default:
		return decimal.Zero
	}
}

// sortByAttractiveness orders promotions by descending normalized discount,
// breaking ties by name then id for a stable listing.
func sortByAttractiveness(promos []models.Promotion) {
	sort.SliceStable(promos, func(i, j int) bool {
		a, b := normalizedPercent(&promos[i]), normalizedPercent(&promos[j])
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		if promos[i].Name != promos[j].Name {
			return promos[i].Name < promos[j].Name
		}
		return promos[i].ID.String() < promos[j].ID.String()
	})
}
