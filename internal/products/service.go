package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
	"github.com/aquaticpose/aquaticpose-backend/pkg/pagination"
	"github.com/aquaticpose/aquaticpose-backend/pkg/slug"
)

const (
	maxSlugAttempts  = 50
	maxCategoryDepth = 32
)

// Service exposes catalog product management operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	GetProductBySlug(ctx context.Context, productSlug string) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU                 string
	Name                string
	Description         *string
	CategoryID          *uuid.UUID
	PriceCents          int64
	CompareAtPriceCents *int64
	ImageURLs           []string
	IsActive            bool
	IsFeatured          bool
}

// UpdateProductInput holds optional mutation values for a product. The slug
// is fixed at creation.
type UpdateProductInput struct {
	SKU                 *string
	Name                *string
	Description         *string
	CategoryID          *uuid.UUID
	ClearCategory       bool
	PriceCents          *int64
	CompareAtPriceCents *int64
	ImageURLs           *[]string
	IsActive            *bool
	IsFeatured          *bool
}

type categoryTreeReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListByParent(ctx context.Context, parentID uuid.UUID) ([]models.Category, error)
}

// service implements the product service.
type service struct {
	repo         *Repository
	categoryRepo categoryTreeReader
}

// NewService constructs a product service instance.
func NewService(repo *Repository, categoryRepo categoryTreeReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if categoryRepo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{repo: repo, categoryRepo: categoryRepo}, nil
}

// CreateProduct creates a catalog listing. The slug derives from the name and
// is suffixed until unique, same as categories.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	sku := strings.TrimSpace(input.SKU)
	name := strings.TrimSpace(input.Name)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_cents must be positive")
	}
	if input.CompareAtPriceCents != nil && *input.CompareAtPriceCents <= input.PriceCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "compare_at_price_cents must exceed price_cents")
	}

	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load category")
		}
	}

	taken, err := s.repo.SKUExists(ctx, sku, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check product sku")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
	}

	base := slug.Make(name)
	if base == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must contain at least one letter or digit")
	}

	product := &models.Product{
		ID:                  uuid.New(),
		SKU:                 sku,
		Name:                name,
		Description:         input.Description,
		CategoryID:          input.CategoryID,
		PriceCents:          input.PriceCents,
		CompareAtPriceCents: input.CompareAtPriceCents,
		ImageURLs:           input.ImageURLs,
		IsActive:            input.IsActive,
		IsFeatured:          input.IsFeatured,
	}

	created, err := s.createWithUniqueSlug(ctx, product, base)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(created), nil
}

func (s *service) createWithUniqueSlug(ctx context.Context, product *models.Product, base string) (*models.Product, error) {
	suffix := 0
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate := base
		if suffix > 0 {
			candidate = fmt.Sprintf("%s-%d", base, suffix)
		}

		taken, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check product slug")
		}
		if taken {
			suffix++
			continue
		}

		product.Slug = candidate
		created, err := s.repo.Create(ctx, product)
		if err == nil {
			return created, nil
		}
		if pkgerrors.IsUniqueViolation(err) {
			suffix++
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create product")
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique slug for product")
}

// UpdateProduct applies a partial update to a product.
func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load product")
	}

	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku cannot be empty")
		}
		if sku != product.SKU {
			taken, err := s.repo.SKUExists(ctx, sku, &productID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check product sku")
			}
			if taken {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
			}
			product.SKU = sku
		}
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	switch {
	case input.ClearCategory:
		product.CategoryID = nil
	case input.CategoryID != nil:
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load category")
		}
		product.CategoryID = input.CategoryID
	}
	if input.PriceCents != nil {
		if *input.PriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_cents must be positive")
		}
		product.PriceCents = *input.PriceCents
	}
	if input.CompareAtPriceCents != nil {
		product.CompareAtPriceCents = input.CompareAtPriceCents
	}
	if product.CompareAtPriceCents != nil && *product.CompareAtPriceCents <= product.PriceCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "compare_at_price_cents must exceed price_cents")
	}
	if input.ImageURLs != nil {
		product.ImageURLs = *input.ImageURLs
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update product")
	}
	return NewProductDTO(updated), nil
}

// DeleteProduct removes a product.
func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if err := s.repo.Delete(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to delete product")
	}
	return nil
}

// GetProduct loads one product by id.
func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load product")
	}
	return NewProductDTO(product), nil
}

// GetProductBySlug loads one product by its slug.
func (s *service) GetProductBySlug(ctx context.Context, productSlug string) (*ProductDTO, error) {
	product, err := s.repo.FindBySlug(ctx, productSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load product")
	}
	return NewProductDTO(product), nil
}

// ListProducts returns one filtered page of the catalog. A category filter
// covers the category's whole subtree.
func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	var categoryIDs []uuid.UUID
	if input.Filters.CategoryID != nil {
		categoryIDs, err = s.expandCategorySubtree(ctx, *input.Filters.CategoryID)
		if err != nil {
			return nil, err
		}
	}

	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	rows, err := s.repo.List(ctx, input.Filters, categoryIDs, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list products")
	}

	result := &ProductListResult{Items: make([]ProductDTO, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		result.Items = append(result.Items, *NewProductDTO(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &next
	}
	return result, nil
}

// expandCategorySubtree returns the category and every descendant id.
func (s *service) expandCategorySubtree(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error) {
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load category")
	}

	ids := []uuid.UUID{categoryID}
	var walk func(id uuid.UUID, depth int) error
	walk = func(id uuid.UUID, depth int) error {
		if depth > maxCategoryDepth {
			return pkgerrors.New(pkgerrors.CodeConflict, "category hierarchy exceeds maximum depth")
		}
		children, err := s.categoryRepo.ListByParent(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list category children")
		}
		for _, child := range children {
			ids = append(ids, child.ID)
			if err := walk(child.ID, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(categoryID, 0); err != nil {
		return nil, err
	}
	return ids, nil
}
