package loyalty

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/enums"
)

// Repository manages persistence for loyalty profiles and their ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.LoyaltyProfile, error)
	GetProfileByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.LoyaltyProfile, error)
	CreateProfile(ctx context.Context, profile *models.LoyaltyProfile) error
	UpdateBalance(ctx context.Context, profileID uuid.UUID, balance int) error
	CreateTransaction(ctx context.Context, tx *models.PointsTransaction) error
	ListTransactions(ctx context.Context, profileID uuid.UUID, limit int) ([]models.PointsTransaction, error)
	HasEarnForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a loyalty repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.LoyaltyProfile, error) {
	var profile models.LoyaltyProfile
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfileByUserIDForUpdate acquires a row lock so concurrent redemptions
// and awards serialize on the profile.
func (r *repository) GetProfileByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.LoyaltyProfile, error) {
	var profile models.LoyaltyProfile
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) CreateProfile(ctx context.Context, profile *models.LoyaltyProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *repository) UpdateBalance(ctx context.Context, profileID uuid.UUID, balance int) error {
	return r.db.WithContext(ctx).
		Model(&models.LoyaltyProfile{}).
		Where("id = ?", profileID).
		Update("balance", balance).Error
}

func (r *repository) CreateTransaction(ctx context.Context, tx *models.PointsTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *repository) ListTransactions(ctx context.Context, profileID uuid.UUID, limit int) ([]models.PointsTransaction, error) {
	var rows []models.PointsTransaction
	query := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) HasEarnForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PointsTransaction{}).
		Where("order_id = ? AND kind = ?", orderID, enums.PointsTransactionKindEarn).
		Count(&count).Error
	return count > 0, err
}
