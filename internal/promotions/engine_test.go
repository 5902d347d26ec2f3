package promotions

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
	"github.com/aquaticpose/aquaticpose-backend/pkg/enums"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
)

func percentPromo(value int64) *models.Promotion {
	return &models.Promotion{
		ID:            uuid.New(),
		Name:          "percent",
		Type:          enums.PromotionTypeOrderDiscount,
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(value),
	}
}

func TestComputeDiscountPercentage(t *testing.T) {
	cart := Cart{Items: []CartItem{
		{ProductID: uuid.New(), UnitPriceCents: 10_000, Quantity: 2},
	}}

	result, err := ComputeDiscount(percentPromo(10), cart)
	if err != nil {
		t.Fatalf("ComputeDiscount failed: %v", err)
	}
	if result.DiscountCents != 2_000 {
		t.Fatalf("expected 2000 cents off, got %d", result.DiscountCents)
	}

	// 100% never exceeds the subtotal.
	result, err = ComputeDiscount(percentPromo(100), cart)
	if err != nil {
		t.Fatalf("ComputeDiscount failed: %v", err)
	}
	if result.DiscountCents != 20_000 {
		t.Fatalf("expected full subtotal off, got %d", result.DiscountCents)
	}

	if _, err := ComputeDiscount(percentPromo(150), cart); err == nil {
		t.Fatal("expected validation error for >100 percent")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestComputeDiscountFixedAmount(t *testing.T) {
	promo := &models.Promotion{
		ID:            uuid.New(),
		Name:          "fixed",
		Type:          enums.PromotionTypeOrderDiscount,
		DiscountType:  enums.DiscountTypeFixedAmount,
		DiscountValue: decimal.NewFromInt(5_000),
	}

	cart := Cart{Items: []CartItem{{ProductID: uuid.New(), UnitPriceCents: 8_000, Quantity: 1}}}
	result, err := ComputeDiscount(promo, cart)
	if err != nil {
		t.Fatalf("ComputeDiscount failed: %v", err)
	}
	if result.DiscountCents != 5_000 {
		t.Fatalf("expected 5000 cents off, got %d", result.DiscountCents)
	}

	// Discount is clamped to the subtotal on a small cart.
	small := Cart{Items: []CartItem{{ProductID: uuid.New(), UnitPriceCents: 3_000, Quantity: 1}}}
	result, err = ComputeDiscount(promo, small)
	if err != nil {
		t.Fatalf("ComputeDiscount failed: %v", err)
	}
	if result.DiscountCents != 3_000 {
		t.Fatalf("expected clamp to 3000 cents, got %d", result.DiscountCents)
	}
}

func TestComputeDiscountFreeShipping(t *testing.T) {
	promo := &models.Promotion{
		ID:           uuid.New(),
		Name:         "ship",
		Type:         enums.PromotionTypeOrderDiscount,
		DiscountType: enums.DiscountTypeFreeShipping,
	}

	result, err := ComputeDiscount(promo, Cart{Items: []CartItem{{ProductID: uuid.New(), UnitPriceCents: 1_000, Quantity: 1}}})
	if err != nil {
		t.Fatalf("ComputeDiscount failed: %v", err)
	}
	if !result.FreeShipping {
		t.Fatal("expected free shipping flag")
	}
	if result.DiscountCents != 0 {
		t.Fatalf("expected no subtotal discount, got %d", result.DiscountCents)
	}
}

func TestComputeDiscountBuyXGetYIsDeterministic(t *testing.T) {
	promo := &models.Promotion{
		ID:           uuid.New(),
		Name:         "b2g1",
		Type:         enums.PromotionTypeOrderDiscount,
		DiscountType: enums.DiscountTypeBuyXGetY,
		BuyQuantity:  2,
		GetQuantity:  1,
	}

	cart := Cart{Items: []CartItem{
		{ProductID: uuid.New(), UnitPriceCents: 9_000, Quantity: 1},
		{ProductID: uuid.New(), UnitPriceCents: 2_000, Quantity: 1},
		{ProductID: uuid.New(), UnitPriceCents: 5_000, Quantity: 1},
	}}

	first, err := ComputeDiscount(promo, cart)
	if err != nil {
		t.Fatalf("ComputeDiscount failed: %v", err)
	}
	// Cheapest of the three units rides free.
	if first.DiscountCents != 2_000 {
		t.Fatalf("expected cheapest unit (2000) free, got %d", first.DiscountCents)
	}

	for i := 0; i < 10; i++ {
		again, err := ComputeDiscount(promo, cart)
		if err != nil {
			t.Fatalf("ComputeDiscount failed on repeat: %v", err)
		}
		if again.DiscountCents != first.DiscountCents {
			t.Fatalf("evaluation not idempotent: %d vs %d", again.DiscountCents, first.DiscountCents)
		}
	}

	// Two full groups: the two cheapest units ride free.
	bulk := Cart{Items: []CartItem{
		{ProductID: uuid.New(), UnitPriceCents: 1_000, Quantity: 3},
		{ProductID: uuid.New(), UnitPriceCents: 4_000, Quantity: 3},
	}}
	result, err := ComputeDiscount(promo, bulk)
	if err != nil {
		t.Fatalf("ComputeDiscount failed: %v", err)
	}
	if result.DiscountCents != 2_000 {
		t.Fatalf("expected two cheapest units (2000), got %d", result.DiscountCents)
	}

	// Not enough units for a group.
	tiny := Cart{Items: []CartItem{{ProductID: uuid.New(), UnitPriceCents: 1_000, Quantity: 2}}}
	result, err = ComputeDiscount(promo, tiny)
	if err != nil {
		t.Fatalf("ComputeDiscount failed: %v", err)
	}
	if result.DiscountCents != 0 {
		t.Fatalf("expected no discount below group size, got %d", result.DiscountCents)
	}
}

func TestComputeDiscountScopesConditionalPromotions(t *testing.T) {
	targetCategory := uuid.New()
	promo := &models.Promotion{
		ID:            uuid.New(),
		Name:          "plants only",
		Type:          enums.PromotionTypeConditionalDiscount,
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(50),
		CategoryIDs:   []string{targetCategory.String()},
	}

	cart := Cart{Items: []CartItem{
		{ProductID: uuid.New(), CategoryID: &targetCategory, UnitPriceCents: 4_000, Quantity: 1},
		{ProductID: uuid.New(), UnitPriceCents: 100_000, Quantity: 1},
	}}

	result, err := ComputeDiscount(promo, cart)
	if err != nil {
		t.Fatalf("ComputeDiscount failed: %v", err)
	}
	// 50% of the matching 4000-cent line only.
	if result.DiscountCents != 2_000 {
		t.Fatalf("expected 2000 cents off scoped line, got %d", result.DiscountCents)
	}
}

func TestSortByAttractiveness(t *testing.T) {
	ten := percentPromo(10)
	thirty := percentPromo(30)
	fixed := &models.Promotion{
		ID:           uuid.New(),
		Name:         "fixed",
		Type:         enums.PromotionTypeOrderDiscount,
		DiscountType: enums.DiscountTypeFixedAmount,
		// 20000 cents against the reference order ranks as 20%.
		DiscountValue: decimal.NewFromInt(20_000),
	}

	promos := []models.Promotion{*ten, *fixed, *thirty}
	sortByAttractiveness(promos)

	if promos[0].ID != thirty.ID {
		t.Fatalf("expected 30%% promo first, got %s", promos[0].Name)
	}
	if promos[1].ID != fixed.ID {
		t.Fatalf("expected fixed promo second, got %s", promos[1].Name)
	}
	if promos[2].ID != ten.ID {
		t.Fatalf("expected 10%% promo last, got %s", promos[2].Name)
	}
}
