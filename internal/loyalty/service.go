package loyalty

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shinwarieats/restaurant-backend/internal/pricing"
	"github.com/shinwarieats/restaurant-backend/pkg/config"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/enums"
	"github.com/shinwarieats/restaurant-backend/pkg/errors"
)

// Service defines the loyalty points operations.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.LoyaltyProfile, error)
	EnsureProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.LoyaltyProfile, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]models.PointsTransaction, error)
	ApplyRedemption(ctx context.Context, tx *gorm.DB, userID uuid.UUID, requestedPoints int, orderTotal decimal.Decimal, orderID uuid.UUID) (int, decimal.Decimal, error)
	RedeemPoints(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points int, note string) (*models.LoyaltyProfile, decimal.Decimal, error)
	AwardPointsForOrder(ctx context.Context, tx *gorm.DB, userID uuid.UUID, orderID uuid.UUID, amountPaid decimal.Decimal) (int, error)
}

type service struct {
	repo       Repository
	earnRate   int
	redeemRate decimal.Decimal
}

// NewService wires a loyalty service with the provided repository and rates.
func NewService(repo Repository, cfg config.LoyaltyConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loyalty repository required")
	}
	redeemRate, err := cfg.RedeemValue()
	if err != nil {
		return nil, err
	}
	if redeemRate.Sign() <= 0 {
		return nil, fmt.Errorf("loyalty redeem rate must be positive")
	}
	if cfg.EarnRate < 0 {
		return nil, fmt.Errorf("loyalty earn rate must be non-negative")
	}
	return &service{
		repo:       repo,
		earnRate:   cfg.EarnRate,
		redeemRate: redeemRate,
	}, nil
}

// GetProfile returns the user's loyalty profile, creating an empty one on
// first access.
func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.LoyaltyProfile, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}

	profile, err := s.repo.GetProfileByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &models.LoyaltyProfile{
		ID:     uuid.New(),
		UserID: userID,
	}
	if err := s.repo.CreateProfile(ctx, created); err != nil {
		// lost a create race; the winner's row is authoritative
		if existing, getErr := s.repo.GetProfileByUserID(ctx, userID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return created, nil
}

// EnsureProfile creates the profile inside the caller's transaction when the
// user doesn't have one yet. Registration uses this so accounts start in the
// program immediately.
func (s *service) EnsureProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.LoyaltyProfile, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}

	repo := s.repo.WithTx(tx)
	profile, err := repo.GetProfileByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	created := &models.LoyaltyProfile{ID: uuid.New(), UserID: userID}
	if err := repo.CreateProfile(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.PointsTransaction, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, profile.ID, limit)
}

// ClampRedemption computes how many points a redemption request can actually
// apply: never more than requested, never more than the balance, and never
// worth more than the order total. The returned discount is points times the
// redeem rate, rounded at the monetary scale.
func ClampRedemption(requested, balance int, orderTotal, redeemRate decimal.Decimal) (int, decimal.Decimal) {
	if requested <= 0 || balance <= 0 || orderTotal.Sign() <= 0 {
		return 0, decimal.Zero
	}

	points := requested
	if points > balance {
		points = balance
	}

	// cap so the discount never exceeds the order total
	maxByTotal := int(orderTotal.Div(redeemRate).IntPart())
	if points > maxByTotal {
		points = maxByTotal
	}
	if points <= 0 {
		return 0, decimal.Zero
	}

	discount := pricing.Round(decimal.NewFromInt(int64(points)).Mul(redeemRate))
	return points, discount
}

// ApplyRedemption clamps and applies a redemption inside the caller's
// transaction. A clamp down to zero is a silent no-op.
func (s *service) ApplyRedemption(ctx context.Context, tx *gorm.DB, userID uuid.UUID, requestedPoints int, orderTotal decimal.Decimal, orderID uuid.UUID) (int, decimal.Decimal, error) {
	if tx == nil {
		return 0, decimal.Zero, fmt.Errorf("transaction required")
	}
	if requestedPoints < 0 {
		return 0, decimal.Zero, errors.New(errors.CodeInvalidRedemption, "redemption points cannot be negative")
	}
	if requestedPoints == 0 {
		return 0, decimal.Zero, nil
	}

	repo := s.repo.WithTx(tx)
	profile, err := s.lockedProfile(ctx, repo, userID)
	if err != nil {
		return 0, decimal.Zero, err
	}

	points, discount := ClampRedemption(requestedPoints, profile.Balance, orderTotal, s.redeemRate)
	if points == 0 {
		return 0, decimal.Zero, nil
	}

	row := &models.PointsTransaction{
		ID:        uuid.New(),
		ProfileID: profile.ID,
		OrderID:   &orderID,
		Kind:      enums.PointsTransactionKindRedeem,
		Points:    points,
		Amount:    discount,
	}
	if err := repo.CreateTransaction(ctx, row); err != nil {
		return 0, decimal.Zero, err
	}
	if err := repo.UpdateBalance(ctx, profile.ID, profile.Balance-points); err != nil {
		return 0, decimal.Zero, err
	}

	return points, discount, nil
}

// RedeemPoints deducts an exact amount of points, failing when the balance
// cannot cover it. It returns the updated profile and the monetary discount
// the points converted into at the configured redeem rate.
func (s *service) RedeemPoints(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points int, note string) (*models.LoyaltyProfile, decimal.Decimal, error) {
	if tx == nil {
		return nil, decimal.Zero, fmt.Errorf("transaction required")
	}
	if points <= 0 {
		return nil, decimal.Zero, errors.New(errors.CodeInvalidRedemption, "redemption points must be positive")
	}

	repo := s.repo.WithTx(tx)
	profile, err := s.lockedProfile(ctx, repo, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	if profile.Balance < points {
		return nil, decimal.Zero, errors.New(errors.CodeInsufficientPoints,
			fmt.Sprintf("balance %d cannot cover %d points", profile.Balance, points))
	}

	discount := pricing.Round(decimal.NewFromInt(int64(points)).Mul(s.redeemRate))
	row := &models.PointsTransaction{
		ID:        uuid.New(),
		ProfileID: profile.ID,
		Kind:      enums.PointsTransactionKindRedeem,
		Points:    points,
		Amount:    discount,
	}
	if note != "" {
		row.Note = &note
	}
	if err := repo.CreateTransaction(ctx, row); err != nil {
		return nil, decimal.Zero, err
	}

	profile.Balance -= points
	if err := repo.UpdateBalance(ctx, profile.ID, profile.Balance); err != nil {
		return nil, decimal.Zero, err
	}
	return profile, discount, nil
}

// AwardPointsForOrder grants whole points for the amount actually paid. A zero
// or negative amount is a no-op, as is an order that already earned points.
func (s *service) AwardPointsForOrder(ctx context.Context, tx *gorm.DB, userID uuid.UUID, orderID uuid.UUID, amountPaid decimal.Decimal) (int, error) {
	if tx == nil {
		return 0, fmt.Errorf("transaction required")
	}
	if orderID == uuid.Nil {
		return 0, fmt.Errorf("order id is required")
	}

	points := int(amountPaid.IntPart()) * s.earnRate
	if points <= 0 {
		return 0, nil
	}

	repo := s.repo.WithTx(tx)

	earned, err := repo.HasEarnForOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if earned {
		return 0, nil
	}

	profile, err := s.lockedProfile(ctx, repo, userID)
	if err != nil {
		return 0, err
	}

	row := &models.PointsTransaction{
		ID:        uuid.New(),
		ProfileID: profile.ID,
		OrderID:   &orderID,
		Kind:      enums.PointsTransactionKindEarn,
		Points:    points,
		Amount:    pricing.Round(amountPaid),
	}
	// duplicate awards are stopped by the HasEarnForOrder check above; the
	// partial unique index backstops races, aborting the whole transaction
	if err := repo.CreateTransaction(ctx, row); err != nil {
		return 0, err
	}
	if err := repo.UpdateBalance(ctx, profile.ID, profile.Balance+points); err != nil {
		return 0, err
	}
	return points, nil
}

// lockedProfile loads the profile under a row lock, creating it first when
// the user has never touched the program.
func (s *service) lockedProfile(ctx context.Context, repo Repository, userID uuid.UUID) (*models.LoyaltyProfile, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}
	profile, err := repo.GetProfileByUserIDForUpdate(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	created := &models.LoyaltyProfile{ID: uuid.New(), UserID: userID}
	if err := repo.CreateProfile(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}
