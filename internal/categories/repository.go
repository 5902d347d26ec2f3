package categories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
)

// Repository wires together category persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads one category.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var cat models.Category
	if err := r.db.WithContext(ctx).First(&cat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

// FindBySlug loads one category by its slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var cat models.Category
	if err := r.db.WithContext(ctx).First(&cat, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

// ListAll returns every category ordered for sibling display.
func (r *Repository) ListAll(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := r.db.WithContext(ctx).
		Order("display_order ASC").
		Order("created_at ASC").
		Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

// ListByParent returns the direct children of the given parent.
func (r *Repository) ListByParent(ctx context.Context, parentID uuid.UUID) ([]models.Category, error) {
	var cats []models.Category
	if err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("display_order ASC").
		Order("created_at ASC").
		Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

// SlugExists reports whether any category already uses the slug.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// NameExists reports whether any other category already uses the name.
func (r *Repository) NameExists(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Category{}).Where("name = ?", name)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the category.
func (r *Repository) Create(ctx context.Context, cat *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(cat).Error; err != nil {
		return nil, err
	}
	return cat, nil
}

// Update saves the full category row.
func (r *Repository) Update(ctx context.Context, cat *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Save(cat).Error; err != nil {
		return nil, err
	}
	return cat, nil
}

// UpdateLevel rewrites only the derived level column.
func (r *Repository) UpdateLevel(ctx context.Context, id uuid.UUID, level int) error {
	return r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", id).
		Update("level", level).Error
}

// UpdateProductCount rewrites only the cached product count.
func (r *Repository) UpdateProductCount(ctx context.Context, id uuid.UUID, count int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", id).
		Update("product_count", count).Error
}

// HasChildren reports whether any category points at this one as parent.
func (r *Repository) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("parent_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountActiveProducts counts active products referencing the category.
func (r *Repository) CountActiveProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category_id = ? AND is_active = ?", id, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes the category row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
