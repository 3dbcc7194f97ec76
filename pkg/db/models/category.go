package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups menu items on the public catalog.
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex:ux_categories_slug"`
	Description *string   `gorm:"column:description"`
	SortOrder   int       `gorm:"column:sort_order;not null;default:0"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
