package categories

import (
	"time"

	"github.com/google/uuid"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
)

// CategoryDTO is the category payload returned to clients.
type CategoryDTO struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	Description  *string    `json:"description,omitempty"`
	Icon         *string    `json:"icon,omitempty"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty"`
	Level        int        `json:"level"`
	DisplayOrder int        `json:"display_order"`
	IsActive     bool       `json:"is_active"`
	ProductCount int64      `json:"product_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CategoryTreeDTO is a category with its nested children.
type CategoryTreeDTO struct {
	CategoryDTO
	Children []CategoryTreeDTO `json:"children"`
}

// NewCategoryDTO builds a DTO from the persisted model.
func NewCategoryDTO(cat *models.Category) *CategoryDTO {
	return &CategoryDTO{
		ID:           cat.ID,
		Name:         cat.Name,
		Slug:         cat.Slug,
		Description:  cat.Description,
		Icon:         cat.Icon,
		ParentID:     cat.ParentID,
		Level:        cat.Level,
		DisplayOrder: cat.DisplayOrder,
		IsActive:     cat.IsActive,
		ProductCount: cat.ProductCount,
		CreatedAt:    cat.CreatedAt,
		UpdatedAt:    cat.UpdatedAt,
	}
}

// NewCategoryTreeDTO converts a built tree node into the nested payload.
func NewCategoryTreeDTO(node *TreeNode) CategoryTreeDTO {
	dto := CategoryTreeDTO{
		CategoryDTO: *NewCategoryDTO(&node.Category),
		Children:    make([]CategoryTreeDTO, 0, len(node.Children)),
	}
	for _, child := range node.Children {
		dto.Children = append(dto.Children, NewCategoryTreeDTO(child))
	}
	return dto
}
