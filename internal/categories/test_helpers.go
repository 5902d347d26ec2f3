package categories

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db"
	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
)

// The model tags carry postgres column types, so the sqlite test schema is
// created with explicit DDL instead of AutoMigrate.
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
	for _, ddl := range []string{testCategoriesDDL, testProductsDDL} {
		if err := conn.Exec(ddl).Error; err != nil {
			t.Fatalf("failed to create test schema: %v", err)
		}
	}
	return conn
}

func newTestService(t *testing.T) (Service, *Repository, *gorm.DB) {
	t.Helper()

	conn := openTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, db.NewWithConn(conn))
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc, repo, conn
}

func mustCreateCategory(t *testing.T, svc Service, name string, parentID *uuid.UUID) *CategoryDTO {
	t.Helper()

	cat, err := svc.CreateCategory(context.Background(), CreateCategoryInput{
		Name:     name,
		ParentID: parentID,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return cat
}

func mustCreateTestProduct(t *testing.T, conn *gorm.DB, categoryID uuid.UUID, active bool) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:         uuid.New(),
		SKU:        fmt.Sprintf("SKU-%s", uuid.NewString()),
		Name:       "Test Product",
		Slug:       fmt.Sprintf("test-product-%s", uuid.NewString()),
		CategoryID: &categoryID,
		PriceCents: 1000,
		IsActive:   active,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
