package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a menu item. DiscountPrice, when set, replaces Price as the
// effective unit price. A nil BranchID means the item is served at every
// branch.
type Product struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID    uuid.UUID        `gorm:"column:category_id;type:uuid;not null;index"`
	BranchID      *uuid.UUID       `gorm:"column:branch_id;type:uuid;index"`
	Name          string           `gorm:"column:name;not null"`
	Slug          string           `gorm:"column:slug;not null;uniqueIndex:ux_products_slug"`
	Description   *string          `gorm:"column:description"`
	Price         decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	DiscountPrice *decimal.Decimal `gorm:"column:discount_price;type:numeric(10,2)"`
	ImageURL      *string          `gorm:"column:image_url"`
	IsAvailable   bool             `gorm:"column:is_available;not null;default:true"`
	IsFeatured    bool             `gorm:"column:is_featured;not null;default:false"`
	Category      *Category        `gorm:"foreignKey:CategoryID"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
