package enums

import "fmt"

// PromotionType classifies how a promotion is surfaced and matched.
type PromotionType string

const (
	PromotionTypeProductDiscount     PromotionType = "PRODUCT_DISCOUNT"
	PromotionTypeOrderDiscount       PromotionType = "ORDER_DISCOUNT"
	PromotionTypeConditionalDiscount PromotionType = "CONDITIONAL_DISCOUNT"
	PromotionTypeCoupon              PromotionType = "COUPON"
)

var validPromotionTypes = []PromotionType{
	PromotionTypeProductDiscount,
	PromotionTypeOrderDiscount,
	PromotionTypeConditionalDiscount,
	PromotionTypeCoupon,
}

// String implements fmt.Stringer.
func (p PromotionType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PromotionType.
func (p PromotionType) IsValid() bool {
	for _, candidate := range validPromotionTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromotionType converts raw input into a PromotionType.
func ParsePromotionType(value string) (PromotionType, error) {
	for _, candidate := range validPromotionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion type %q", value)
}

// DiscountType controls how a promotion's discount value is interpreted.
type DiscountType string

const (
	DiscountTypePercentage   DiscountType = "PERCENTAGE"
	DiscountTypeFixedAmount  DiscountType = "FIXED_AMOUNT"
	DiscountTypeFreeShipping DiscountType = "FREE_SHIPPING"
	DiscountTypeBuyXGetY     DiscountType = "BUY_X_GET_Y"
)

var validDiscountTypes = []DiscountType{
	DiscountTypePercentage,
	DiscountTypeFixedAmount,
	DiscountTypeFreeShipping,
	DiscountTypeBuyXGetY,
}

// String implements fmt.Stringer.
func (d DiscountType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountType.
func (d DiscountType) IsValid() bool {
	for _, candidate := range validDiscountTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountType converts raw input into a DiscountType.
func ParseDiscountType(value string) (DiscountType, error) {
	for _, candidate := range validDiscountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount type %q", value)
}
