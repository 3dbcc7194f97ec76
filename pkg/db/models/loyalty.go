package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shinwarieats/restaurant-backend/pkg/enums"
)

// LoyaltyProfile holds the cached points balance for one user. The balance is
// always mutated together with an appended PointsTransaction inside one
// transaction, so it stays equal to the transaction sum.
type LoyaltyProfile struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_loyalty_profiles_user"`
	Balance   int       `gorm:"column:balance;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// PointsTransaction is an immutable ledger entry. Points is positive for both
// kinds; the kind determines the sign applied to the balance. Amount is the
// monetary value behind the row: the total paid on EARN, the discount granted
// on REDEEM. At most one EARN row may exist per order (enforced by a partial
// unique index).
type PointsTransaction struct {
	ID        uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	ProfileID uuid.UUID                   `gorm:"column:profile_id;type:uuid;not null;index"`
	OrderID   *uuid.UUID                  `gorm:"column:order_id;type:uuid"`
	Kind      enums.PointsTransactionKind `gorm:"column:kind;not null"`
	Points    int                         `gorm:"column:points;not null"`
	Amount    decimal.Decimal             `gorm:"column:amount;type:numeric(10,2);not null;default:0"`
	Note      *string                     `gorm:"column:note"`
	CreatedAt time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
