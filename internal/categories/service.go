package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db"
	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
	"github.com/aquaticpose/aquaticpose-backend/pkg/slug"
)

const maxSlugAttempts = 50

// Service exposes category catalog operations.
type Service interface {
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, categoryID uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, categoryID uuid.UUID) error
	GetCategory(ctx context.Context, categoryID uuid.UUID) (*CategoryDTO, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*CategoryDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	GetTree(ctx context.Context, rootID *uuid.UUID) ([]CategoryTreeDTO, error)
	GetAncestors(ctx context.Context, categoryID uuid.UUID) ([]CategoryDTO, error)
	GetDescendants(ctx context.Context, categoryID uuid.UUID) ([]CategoryDTO, error)
	RecomputeProductCount(ctx context.Context, categoryID uuid.UUID) (*CategoryDTO, error)
}

// CreateCategoryInput holds the validated payload to create a category.
type CreateCategoryInput struct {
	Name         string
	Description  *string
	Icon         *string
	ParentID     *uuid.UUID
	DisplayOrder int
	IsActive     bool
}

// UpdateCategoryInput holds optional mutation values for a category. The slug
// is deliberately absent: once assigned it never changes.
type UpdateCategoryInput struct {
	Name         *string
	Description  *string
	Icon         *string
	ParentID     *uuid.UUID
	ClearParent  bool
	DisplayOrder *int
	IsActive     *bool
}

// service implements the category service.
type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs a category service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

// CreateCategory creates a category under an optional parent. The slug is
// derived from the name and suffixed until unique; the level is derived from
// the parent chain.
func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	taken, err := s.repo.NameExists(ctx, name, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check category name")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already in use")
	}

	level := 0
	if input.ParentID != nil {
		parent, err := s.repo.FindByID(ctx, *input.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "parent category does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load parent category")
		}
		if parent.Level+1 > maxTreeDepth {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category hierarchy exceeds maximum depth")
		}
		level = parent.Level + 1
	}

	base := slug.Make(name)
	if base == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must contain at least one letter or digit")
	}

	cat := &models.Category{
		ID:           uuid.New(),
		Name:         name,
		Description:  input.Description,
		Icon:         input.Icon,
		ParentID:     input.ParentID,
		Level:        level,
		DisplayOrder: input.DisplayOrder,
		IsActive:     input.IsActive,
	}

	created, err := s.createWithUniqueSlug(ctx, cat, base)
	if err != nil {
		return nil, err
	}
	return NewCategoryDTO(created), nil
}

// createWithUniqueSlug walks base, base-1, base-2, ... until an insert
// succeeds. Concurrent inserts of the same name race past the existence
// check; the unique index catches them and the loop moves to the next
// candidate.
func (s *service) createWithUniqueSlug(ctx context.Context, cat *models.Category, base string) (*models.Category, error) {
	suffix := 0
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate := base
		if suffix > 0 {
			candidate = fmt.Sprintf("%s-%d", base, suffix)
		}

		taken, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check category slug")
		}
		if taken {
			suffix++
			continue
		}

		cat.Slug = candidate
		created, err := s.repo.Create(ctx, cat)
		if err == nil {
			return created, nil
		}
		if pkgerrors.IsUniqueViolation(err) {
			suffix++
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create category")
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique slug for category")
}

// UpdateCategory applies a partial update. Re-parenting re-derives the level
// for the category and all of its descendants in one transaction, and rejects
// moves that would place a category under itself.
func (s *service) UpdateCategory(ctx context.Context, categoryID uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error) {
	cat, err := s.repo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load category")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		if name != cat.Name {
			taken, err := s.repo.NameExists(ctx, name, &categoryID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check category name")
			}
			if taken {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already in use")
			}
			cat.Name = name
		}
	}
	if input.Description != nil {
		cat.Description = input.Description
	}
	if input.Icon != nil {
		cat.Icon = input.Icon
	}
	if input.DisplayOrder != nil {
		cat.DisplayOrder = *input.DisplayOrder
	}
	if input.IsActive != nil {
		cat.IsActive = *input.IsActive
	}

	reparented := false
	newLevel := cat.Level
	switch {
	case input.ClearParent:
		if cat.ParentID != nil {
			cat.ParentID = nil
			newLevel = 0
			reparented = true
		}
	case input.ParentID != nil:
		if *input.ParentID == categoryID {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category cannot be its own parent")
		}
		if cat.ParentID == nil || *cat.ParentID != *input.ParentID {
			parent, err := s.repo.FindByID(ctx, *input.ParentID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, pkgerrors.New(pkgerrors.CodeValidation, "parent category does not exist")
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load parent category")
			}
			under, err := s.isDescendantOf(ctx, parent.ID, categoryID)
			if err != nil {
				return nil, err
			}
			if under {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "category cannot be moved under its own descendant")
			}
			if parent.Level+1 > maxTreeDepth {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "category hierarchy exceeds maximum depth")
			}
			cat.ParentID = input.ParentID
			newLevel = parent.Level + 1
			reparented = true
		}
	}

	if !reparented {
		updated, err := s.repo.Update(ctx, cat)
		if err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already in use")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update category")
		}
		return NewCategoryDTO(updated), nil
	}

	delta := newLevel - cat.Level
	cat.Level = newLevel
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.Update(ctx, cat); err != nil {
			return err
		}
		if delta == 0 {
			return nil
		}
		return shiftDescendantLevels(ctx, txRepo, cat.ID, delta, 0)
	})
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already in use")
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to move category")
	}
	return NewCategoryDTO(cat), nil
}

// shiftDescendantLevels walks the subtree breadth-first applying the level
// delta so the level invariant holds after a move.
func shiftDescendantLevels(ctx context.Context, repo *Repository, parentID uuid.UUID, delta, depth int) error {
	if depth > maxTreeDepth {
		return pkgerrors.New(pkgerrors.CodeConflict, "category hierarchy exceeds maximum depth")
	}
	children, err := repo.ListByParent(ctx, parentID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := repo.UpdateLevel(ctx, child.ID, child.Level+delta); err != nil {
			return err
		}
		if err := shiftDescendantLevels(ctx, repo, child.ID, delta, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// isDescendantOf reports whether candidate sits in the subtree rooted at
// ancestorID, by walking up candidate's parent chain.
func (s *service) isDescendantOf(ctx context.Context, candidate, ancestorID uuid.UUID) (bool, error) {
	current := candidate
	for depth := 0; depth <= maxTreeDepth; depth++ {
		if current == ancestorID {
			return true, nil
		}
		cat, err := s.repo.FindByID(ctx, current)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to walk category ancestry")
		}
		if cat.ParentID == nil {
			return false, nil
		}
		current = *cat.ParentID
	}
	return false, pkgerrors.New(pkgerrors.CodeConflict, "category hierarchy exceeds maximum depth")
}

// DeleteCategory removes a category. Deletion is refused while the category
// still has children or active products, so the hierarchy and the storefront
// never lose a node out from under them.
func (s *service) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load category")
	}

	hasChildren, err := s.repo.HasChildren(ctx, categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check category children")
	}
	if hasChildren {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has child categories")
	}

	activeProducts, err := s.repo.CountActiveProducts(ctx, categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to count category products")
	}
	if activeProducts > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has active products")
	}

	if err := s.repo.Delete(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to delete category")
	}
	return nil
}

// GetCategory loads one category by id.
func (s *service) GetCategory(ctx context.Context, categoryID uuid.UUID) (*CategoryDTO, error) {
	cat, err := s.repo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load category")
	}
	return NewCategoryDTO(cat), nil
}

// GetCategoryBySlug loads one category by its slug.
func (s *service) GetCategoryBySlug(ctx context.Context, slug string) (*CategoryDTO, error) {
	cat, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load category")
	}
	return NewCategoryDTO(cat), nil
}

// ListCategories returns the flat category list in sibling display order.
func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	flat, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list categories")
	}
	out := make([]CategoryDTO, 0, len(flat))
	for i := range flat {
		out = append(out, *NewCategoryDTO(&flat[i]))
	}
	return out, nil
}

// GetTree returns the nested category forest, or the subtree rooted at rootID.
func (s *service) GetTree(ctx context.Context, rootID *uuid.UUID) ([]CategoryTreeDTO, error) {
	flat, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list categories")
	}
	forest, err := BuildTree(flat, rootID)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryTreeDTO, 0, len(forest))
	for _, node := range forest {
		out = append(out, NewCategoryTreeDTO(node))
	}
	return out, nil
}

// GetAncestors returns the chain from the root down to the category's direct
// parent. A dangling parent reference truncates the chain rather than failing
// the whole request.
func (s *service) GetAncestors(ctx context.Context, categoryID uuid.UUID) ([]CategoryDTO, error) {
	cat, err := s.repo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load category")
	}

	var chain []CategoryDTO
	seen := map[uuid.UUID]bool{cat.ID: true}
	parentID := cat.ParentID
	for depth := 0; parentID != nil && depth <= maxTreeDepth; depth++ {
		if seen[*parentID] {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category hierarchy contains a cycle")
		}
		parent, err := s.repo.FindByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to walk category ancestry")
		}
		seen[parent.ID] = true
		chain = append(chain, *NewCategoryDTO(parent))
		parentID = parent.ParentID
	}

	// Walked parent-to-root; callers want root-to-parent.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	if chain == nil {
		chain = []CategoryDTO{}
	}
	return chain, nil
}

// GetDescendants returns every category below the given one, depth-first in
// sibling display order. The category itself is not included.
func (s *service) GetDescendants(ctx context.Context, categoryID uuid.UUID) ([]CategoryDTO, error) {
	if _, err := s.repo.FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load category")
	}

	out := []CategoryDTO{}
	var walk func(id uuid.UUID, depth int) error
	walk = func(id uuid.UUID, depth int) error {
		if depth > maxTreeDepth {
			return pkgerrors.New(pkgerrors.CodeConflict, "category hierarchy exceeds maximum depth")
		}
		children, err := s.repo.ListByParent(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list category children")
		}
		for _, child := range children {
			out = append(out, *NewCategoryDTO(&child))
			if err := walk(child.ID, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(categoryID, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// RecomputeProductCount refreshes the cached active-product count from the
// products table.
func (s *service) RecomputeProductCount(ctx context.Context, categoryID uuid.UUID) (*CategoryDTO, error) {
	cat, err := s.repo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load category")
	}

	count, err := s.repo.CountActiveProducts(ctx, categoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to count category products")
	}
	if err := s.repo.UpdateProductCount(ctx, categoryID, count); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update category product count")
	}
	cat.ProductCount = count
	return NewCategoryDTO(cat), nil
}
