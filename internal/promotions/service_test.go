package promotions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aquaticpose/aquaticpose-backend/pkg/enums"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
)

func TestCreatePromotionValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now()
	startsAt, endsAt := liveWindow(now)

	// Coupons need a code.
	_, err := svc.CreatePromotion(ctx, CreatePromotionInput{
		Name:          "no code",
		Type:          enums.PromotionTypeCoupon,
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(10),
		StartsAt:      startsAt,
		EndsAt:        endsAt,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for coupon without code, got %v", err)
	}

	// Buy-x-get-y needs both quantities.
	_, err = svc.CreatePromotion(ctx, CreatePromotionInput{
		Name:         "bogo",
		Type:         enums.PromotionTypeOrderDiscount,
		DiscountType: enums.DiscountTypeBuyXGetY,
		BuyQuantity:  2,
		StartsAt:     startsAt,
		EndsAt:       endsAt,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for missing get_quantity, got %v", err)
	}

	// Window must be ordered.
	_, err = svc.CreatePromotion(ctx, CreatePromotionInput{
		Name:          "inverted",
		Type:          enums.PromotionTypeOrderDiscount,
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(10),
		StartsAt:      endsAt,
		EndsAt:        startsAt,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for inverted window, got %v", err)
	}

	// Percentage stays within [0,100].
	_, err = svc.CreatePromotion(ctx, CreatePromotionInput{
		Name:          "too steep",
		Type:          enums.PromotionTypeOrderDiscount,
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(120),
		StartsAt:      startsAt,
		EndsAt:        endsAt,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for >100 percent, got %v", err)
	}
}

func TestCreatePromotionNormalizesAndGuardsCode(t *testing.T) {
	svc, _ := newTestService(t)
	now := time.Now()

	created := mustCreatePromotion(t, svc, percentCoupon("spring", "  spring10 ", 10, 0, now))
	if created.Code == nil || *created.Code != "SPRING10" {
		t.Fatalf("expected normalized code SPRING10, got %v", created.Code)
	}

	_, err := svc.CreatePromotion(context.Background(), percentCoupon("dupe", "SPRING10", 15, 0, now))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT for duplicate code, got %v", err)
	}
}

func TestValidateCoupon(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	mustCreatePromotion(t, svc, percentCoupon("ten off", "TENOFF", 10, 5_000, now))

	cart := Cart{Items: []CartItem{{ProductID: uuid.New(), UnitPriceCents: 5_000, Quantity: 2}}}

	// Lookup is case-insensitive.
	result, err := svc.ValidateCoupon(ctx, "tenoff", cart, now)
	if err != nil {
		t.Fatalf("ValidateCoupon failed: %v", err)
	}
	if result.DiscountCents != 1_000 {
		t.Fatalf("expected 1000 cents off, got %d", result.DiscountCents)
	}
	if result.SubtotalCents != 10_000 {
		t.Fatalf("expected subtotal 10000, got %d", result.SubtotalCents)
	}

	// Subtotal exactly at the minimum passes.
	boundary := Cart{Items: []CartItem{{ProductID: uuid.New(), UnitPriceCents: 5_000, Quantity: 1}}}
	if _, err := svc.ValidateCoupon(ctx, "TENOFF", boundary, now); err != nil {
		t.Fatalf("expected boundary subtotal to pass, got %v", err)
	}

	// One cent below fails with a typed condition error.
	below := Cart{Items: []CartItem{{ProductID: uuid.New(), UnitPriceCents: 4_999, Quantity: 1}}}
	_, err = svc.ValidateCoupon(ctx, "TENOFF", below, now)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConditionNotMet {
		t.Fatalf("expected CONDITION_NOT_MET, got %v", err)
	}

	_, err = svc.ValidateCoupon(ctx, "NOSUCH", cart, now)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestValidateCouponExpiry(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	created := mustCreatePromotion(t, svc, percentCoupon("brief", "BRIEF", 10, 0, now))
	cart := Cart{Items: []CartItem{{ProductID: uuid.New(), UnitPriceCents: 1_000, Quantity: 1}}}

	// Valid one second before the window closes, expired one second after.
	if _, err := svc.ValidateCoupon(ctx, "BRIEF", cart, created.EndsAt.Add(-time.Second)); err != nil {
		t.Fatalf("expected coupon valid inside window, got %v", err)
	}
	_, err := svc.ValidateCoupon(ctx, "BRIEF", cart, created.EndsAt.Add(time.Second))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeExpired {
		t.Fatalf("expected EXPIRED after window, got %v", err)
	}

	_, err = svc.ValidateCoupon(ctx, "BRIEF", cart, created.StartsAt.Add(-time.Second))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeExpired {
		t.Fatalf("expected EXPIRED before window, got %v", err)
	}

	// Deactivation reads as expired too.
	inactive := false
	if _, err := svc.UpdatePromotion(ctx, created.ID, UpdatePromotionInput{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	_, err = svc.ValidateCoupon(ctx, "BRIEF", cart, now)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeExpired {
		t.Fatalf("expected EXPIRED for deactivated coupon, got %v", err)
	}
}

func TestListAvailableFiltersAndOrders(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now()
	startsAt, endsAt := liveWindow(now)

	mustCreatePromotion(t, svc, CreatePromotionInput{
		Name: "small", Type: enums.PromotionTypeOrderDiscount,
		DiscountType: enums.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(5),
		StartsAt: startsAt, EndsAt: endsAt, IsActive: true,
	})
	big := mustCreatePromotion(t, svc, CreatePromotionInput{
		Name: "big", Type: enums.PromotionTypeOrderDiscount,
		DiscountType: enums.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(25),
		StartsAt: startsAt, EndsAt: endsAt, IsActive: true,
	})
	mustCreatePromotion(t, svc, CreatePromotionInput{
		Name: "lapsed", Type: enums.PromotionTypeOrderDiscount,
		DiscountType: enums.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(90),
		StartsAt: now.Add(-48 * time.Hour), EndsAt: now.Add(-24 * time.Hour), IsActive: true,
	})
	mustCreatePromotion(t, svc, CreatePromotionInput{
		Name: "disabled", Type: enums.PromotionTypeOrderDiscount,
		DiscountType: enums.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(80),
		StartsAt: startsAt, EndsAt: endsAt, IsActive: false,
	})

	available, err := svc.ListAvailable(ctx, now)
	if err != nil {
		t.Fatalf("ListAvailable failed: %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("expected 2 live promotions, got %d", len(available))
	}
	if available[0].ID != big.ID {
		t.Fatalf("expected most attractive promotion first, got %s", available[0].Name)
	}
}

func TestPromotionsForProduct(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	now := time.Now()
	startsAt, endsAt := liveWindow(now)

	categoryID := uuid.New()
	product := mustCreateTestProduct(t, conn, &categoryID, 10_000)
	other := mustCreateTestProduct(t, conn, nil, 10_000)

	byProduct := mustCreatePromotion(t, svc, CreatePromotionInput{
		Name: "this product", Type: enums.PromotionTypeProductDiscount,
		DiscountType: enums.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(30),
		ProductIDs: []string{product.ID.String()},
		StartsAt:   startsAt, EndsAt: endsAt, IsActive: true,
	})
	byCategory := mustCreatePromotion(t, svc, CreatePromotionInput{
		Name: "this category", Type: enums.PromotionTypeConditionalDiscount,
		DiscountType: enums.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(20),
		CategoryIDs: []string{categoryID.String()},
		StartsAt:    startsAt, EndsAt: endsAt, IsActive: true,
	})
	orderWide := mustCreatePromotion(t, svc, CreatePromotionInput{
		Name: "order wide", Type: enums.PromotionTypeOrderDiscount,
		DiscountType: enums.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(5),
		StartsAt: startsAt, EndsAt: endsAt, IsActive: true,
	})
	code := "HIDDEN"
	mustCreatePromotion(t, svc, CreatePromotionInput{
		Name: "coupon", Code: &code, Type: enums.PromotionTypeCoupon,
		DiscountType: enums.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(50),
		StartsAt: startsAt, EndsAt: endsAt, IsActive: true,
	})

	promos, err := svc.PromotionsForProduct(ctx, product.ID, now)
	if err != nil {
		t.Fatalf("PromotionsForProduct failed: %v", err)
	}
	if len(promos) != 3 {
		t.Fatalf("expected 3 promotions (coupon excluded), got %d", len(promos))
	}
	if promos[0].ID != byProduct.ID || promos[1].ID != byCategory.ID || promos[2].ID != orderWide.ID {
		t.Fatal("expected promotions ordered by attractiveness")
	}

	// A product outside the condition sets only sees the order-wide discount.
	otherPromos, err := svc.PromotionsForProduct(ctx, other.ID, now)
	if err != nil {
		t.Fatalf("PromotionsForProduct failed: %v", err)
	}
	if len(otherPromos) != 1 || otherPromos[0].ID != orderWide.ID {
		t.Fatalf("expected only order-wide promotion, got %d", len(otherPromos))
	}

	best, err := svc.BestPromotionFor(ctx, product.ID, now)
	if err != nil {
		t.Fatalf("BestPromotionFor failed: %v", err)
	}
	if best.ID != byProduct.ID {
		t.Fatalf("expected 30%% product promotion as best, got %s", best.Name)
	}

	_, err = svc.BestPromotionFor(ctx, uuid.New(), now)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for unknown product, got %v", err)
	}
}
