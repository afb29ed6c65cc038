package catalog

import (
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Category represents a product category
type Category struct {
	shared.BaseEntity
	Name      string     `json:"name"`
	Slug      string     `gorm:"uniqueIndex" json:"slug"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	SortOrder int        `json:"sort_order"`
	IsActive  bool       `json:"is_active"`
}

// NewCategory creates a new active category
func NewCategory(name string) (*Category, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	return &Category{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Slug:       Slugify(name),
		IsActive:   true,
	}, nil
}
