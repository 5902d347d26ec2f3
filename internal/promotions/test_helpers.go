package promotions

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
	"github.com/aquaticpose/aquaticpose-backend/pkg/enums"
)

// The model tags carry postgres column types, so the sqlite test schema is
// created with explicit DDL instead of AutoMigrate.
const testPromotionsDDL = `
CREATE TABLE IF NOT EXISTS promotions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  code TEXT UNIQUE,
  type TEXT NOT NULL,
  discount_type TEXT NOT NULL,
  discount_value NUMERIC NOT NULL,
  min_order_cents INTEGER NOT NULL DEFAULT 0,
  product_ids TEXT,
  category_ids TEXT,
  buy_quantity INTEGER NOT NULL DEFAULT 0,
  get_quantity INTEGER NOT NULL DEFAULT 0,
  starts_at DATETIME NOT NULL,
  ends_at DATETIME NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`

const testProductsDDL = `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  category_id TEXT,
  price_cents INTEGER NOT NULL,
  compare_at_price_cents INTEGER,
  image_urls TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_featured INTEGER NOT NULL DEFAULT 0,
  rating_average REAL NOT NULL DEFAULT 0,
  rating_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	for _, ddl := range []string{testPromotionsDDL, testProductsDDL} {
		if err := conn.Exec(ddl).Error; err != nil {
			t.Fatalf("failed to create test schema: %v", err)
		}
	}
	return conn
}

type testProductRepo struct {
	conn *gorm.DB
}

func (r *testProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.conn.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	conn := openTestDB(t)
	svc, err := NewService(NewRepository(conn), &testProductRepo{conn: conn})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc, conn
}

func mustCreateTestProduct(t *testing.T, conn *gorm.DB, categoryID *uuid.UUID, priceCents int64) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:         uuid.New(),
		SKU:        fmt.Sprintf("SKU-%s", uuid.NewString()),
		Name:       "Test Product",
		Slug:       fmt.Sprintf("test-product-%s", uuid.NewString()),
		CategoryID: categoryID,
		PriceCents: priceCents,
		IsActive:   true,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func mustCreatePromotion(t *testing.T, svc Service, input CreatePromotionInput) *PromotionDTO {
	t.Helper()

	promo, err := svc.CreatePromotion(context.Background(), input)
	if err != nil {
		t.Fatalf("create promotion %q: %v", input.Name, err)
	}
	return promo
}

func liveWindow(now time.Time) (time.Time, time.Time) {
	return now.Add(-time.Hour), now.Add(time.Hour)
}

func percentCoupon(name, code string, value int64, minOrderCents int64, now time.Time) CreatePromotionInput {
	startsAt, endsAt := liveWindow(now)
	return CreatePromotionInput{
		Name:          name,
		Code:          &code,
		Type:          enums.PromotionTypeCoupon,
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(value),
		MinOrderCents: minOrderCents,
		StartsAt:      startsAt,
		EndsAt:        endsAt,
		IsActive:      true,
	}
}
