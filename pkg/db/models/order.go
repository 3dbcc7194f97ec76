package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shinwarieats/restaurant-backend/pkg/enums"
)

// Order is a placed order with immutable price snapshots. Subtotal, fees and
// the redemption discount are fixed at checkout time and never recomputed.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	BranchID        *uuid.UUID        `gorm:"column:branch_id;type:uuid;index"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:pending"`
	Subtotal        decimal.Decimal   `gorm:"column:subtotal;type:numeric(10,2);not null"`
	DeliveryFee     decimal.Decimal   `gorm:"column:delivery_fee;type:numeric(10,2);not null"`
	LoyaltyDiscount decimal.Decimal   `gorm:"column:loyalty_discount;type:numeric(10,2);not null"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(10,2);not null"`
	PointsRedeemed  int               `gorm:"column:points_redeemed;not null;default:0"`
	PointsEarned    int               `gorm:"column:points_earned;not null;default:0"`
	CustomerName    string            `gorm:"column:customer_name;not null"`
	Phone           string            `gorm:"column:phone;not null"`
	Address         string            `gorm:"column:address;not null"`
	Notes           *string           `gorm:"column:notes"`
	PaymentRef      *string           `gorm:"column:payment_ref"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots a cart line at checkout: product name and effective
// unit price are copied so later catalog edits never change order history.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:numeric(10,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
