package products

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
)

// The model tags carry postgres column types, so the sqlite test schema is
// created with explicit DDL instead of AutoMigrate.
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

const testCategoriesDDL = `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  icon TEXT,
  parent_id TEXT,
  level INTEGER NOT NULL DEFAULT 0,
  display_order INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  product_count INTEGER NOT NULL DEFAULT 0,
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
	for _, ddl := range []string{testProductsDDL, testCategoriesDDL} {
		if err := conn.Exec(ddl).Error; err != nil {
			t.Fatalf("failed to create test schema: %v", err)
		}
	}
	return conn
}

type testCategoryRepo struct {
	conn *gorm.DB
}

func (r *testCategoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var cat models.Category
	if err := r.conn.WithContext(ctx).First(&cat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *testCategoryRepo) ListByParent(ctx context.Context, parentID uuid.UUID) ([]models.Category, error) {
	var cats []models.Category
	if err := r.conn.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("display_order ASC").
		Order("created_at ASC").
		Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	conn := openTestDB(t)
	svc, err := NewService(NewRepository(conn), &testCategoryRepo{conn: conn})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc, conn
}

func mustCreateTestCategory(t *testing.T, conn *gorm.DB, name string, parentID *uuid.UUID) *models.Category {
	t.Helper()

	cat := &models.Category{
		ID:       uuid.New(),
		Name:     name,
		Slug:     fmt.Sprintf("%s-%s", name, uuid.NewString()),
		ParentID: parentID,
		IsActive: true,
	}
	if err := conn.Create(cat).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return cat
}

// seedProduct inserts a product with an explicit UTC creation time so cursor
// ordering in tests is deterministic.
func seedProduct(t *testing.T, conn *gorm.DB, name string, categoryID *uuid.UUID, priceCents int64, createdAt time.Time) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:         uuid.New(),
		SKU:        fmt.Sprintf("SKU-%s", uuid.NewString()),
		Name:       name,
		Slug:       fmt.Sprintf("%s-%s", name, uuid.NewString()),
		CategoryID: categoryID,
		PriceCents: priceCents,
		IsActive:   true,
		CreatedAt:  createdAt.UTC(),
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
