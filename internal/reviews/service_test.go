package reviews

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
	"github.com/aquaticpose/aquaticpose-backend/pkg/enums"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
	"github.com/aquaticpose/aquaticpose-backend/pkg/pagination"
)

// The model tags carry postgres column types, so the sqlite test schema is
// created with explicit DDL instead of AutoMigrate.
const testReviewsDDL = `
CREATE TABLE IF NOT EXISTS reviews (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  rating INTEGER NOT NULL,
  comment TEXT,
  verified_purchase INTEGER NOT NULL DEFAULT 0,
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

const testOrdersDDL = `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  subtotal_cents INTEGER NOT NULL DEFAULT 0,
  discount_cents INTEGER NOT NULL DEFAULT 0,
  promotion_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`

const testOrderItemsDDL = `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL
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
	for _, ddl := range []string{testReviewsDDL, testProductsDDL, testOrdersDDL, testOrderItemsDDL} {
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

func (r *testProductRepo) UpdateRating(ctx context.Context, id uuid.UUID, average float64, count int64) error {
	return r.conn.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{"rating_average": average, "rating_count": count}).Error
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

func mustSeedProduct(t *testing.T, conn *gorm.DB) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:         uuid.New(),
		SKU:        fmt.Sprintf("SKU-%s", uuid.NewString()),
		Name:       "Reviewed Product",
		Slug:       fmt.Sprintf("reviewed-%s", uuid.NewString()),
		PriceCents: 10_000,
		IsActive:   true,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func mustSeedCompletedOrder(t *testing.T, conn *gorm.DB, userID, productID uuid.UUID) {
	t.Helper()

	order := &models.Order{
		ID:     uuid.New(),
		UserID: userID,
		Status: enums.OrderStatusCompleted,
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: productID, Quantity: 1, UnitPriceCents: 10_000},
		},
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
}

func TestCreateReviewValidatesRating(t *testing.T) {
	svc, conn := newTestService(t)
	product := mustSeedProduct(t, conn)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.CreateReview(context.Background(), product.ID, uuid.New(), CreateReviewInput{Rating: rating})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected VALIDATION_ERROR for rating %d, got %v", rating, err)
		}
	}
}

func TestCreateReviewVerifiedPurchase(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	product := mustSeedProduct(t, conn)

	buyer := uuid.New()
	mustSeedCompletedOrder(t, conn, buyer, product.ID)

	// A pending order does not verify the purchase.
	browser := uuid.New()
	pending := &models.Order{
		ID:     uuid.New(),
		UserID: browser,
		Status: enums.OrderStatusPending,
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: product.ID, Quantity: 1, UnitPriceCents: 10_000},
		},
	}
	if err := conn.Create(pending).Error; err != nil {
		t.Fatalf("create pending order: %v", err)
	}

	verified, err := svc.CreateReview(ctx, product.ID, buyer, CreateReviewInput{Rating: 5})
	if err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}
	if !verified.VerifiedPurchase {
		t.Fatal("expected verified purchase for completed order")
	}

	unverified, err := svc.CreateReview(ctx, product.ID, browser, CreateReviewInput{Rating: 3})
	if err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}
	if unverified.VerifiedPurchase {
		t.Fatal("expected unverified review for pending order")
	}

	// One review per user per product.
	_, err = svc.CreateReview(ctx, product.ID, buyer, CreateReviewInput{Rating: 4})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT for duplicate review, got %v", err)
	}
}

func TestCreateReviewRefreshesRatingCache(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	product := mustSeedProduct(t, conn)

	if _, err := svc.CreateReview(ctx, product.ID, uuid.New(), CreateReviewInput{Rating: 5}); err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}
	if _, err := svc.CreateReview(ctx, product.ID, uuid.New(), CreateReviewInput{Rating: 2}); err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}

	var reloaded models.Product
	if err := conn.First(&reloaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.RatingCount != 2 {
		t.Fatalf("expected rating_count 2, got %d", reloaded.RatingCount)
	}
	if reloaded.RatingAverage != 3.5 {
		t.Fatalf("expected rating_average 3.5, got %v", reloaded.RatingAverage)
	}
}

func TestListReviews(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	product := mustSeedProduct(t, conn)

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateReview(ctx, product.ID, uuid.New(), CreateReviewInput{Rating: i + 1}); err != nil {
			t.Fatalf("CreateReview failed: %v", err)
		}
	}

	result, err := svc.ListReviews(ctx, product.ID, pagination.Params{})
	if err != nil {
		t.Fatalf("ListReviews failed: %v", err)
	}
	if len(result.Items) != 3 {
		t.Fatalf("expected 3 reviews, got %d", len(result.Items))
	}

	_, err = svc.ListReviews(ctx, uuid.New(), pagination.Params{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for unknown product, got %v", err)
	}
}
