package loyalty

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shinwarieats/restaurant-backend/pkg/config"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/enums"
	"github.com/shinwarieats/restaurant-backend/pkg/errors"
)

type fakeRepository struct {
	profiles     map[uuid.UUID]*models.LoyaltyProfile // keyed by user ID
	transactions []models.PointsTransaction

	getProfileErr error
	createTxErr   error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{profiles: map[uuid.UUID]*models.LoyaltyProfile{}}
}

func (f *fakeRepository) seedProfile(userID uuid.UUID, balance int) *models.LoyaltyProfile {
	profile := &models.LoyaltyProfile{ID: uuid.New(), UserID: userID, Balance: balance}
	f.profiles[userID] = profile
	return profile
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.LoyaltyProfile, error) {
	if f.getProfileErr != nil {
		return nil, f.getProfileErr
	}
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *profile
	return &copied, nil
}

func (f *fakeRepository) GetProfileByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.LoyaltyProfile, error) {
	return f.GetProfileByUserID(ctx, userID)
}

func (f *fakeRepository) CreateProfile(ctx context.Context, profile *models.LoyaltyProfile) error {
	f.profiles[profile.UserID] = profile
	return nil
}

func (f *fakeRepository) UpdateBalance(ctx context.Context, profileID uuid.UUID, balance int) error {
	for _, profile := range f.profiles {
		if profile.ID == profileID {
			profile.Balance = balance
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreateTransaction(ctx context.Context, tx *models.PointsTransaction) error {
	if f.createTxErr != nil {
		return f.createTxErr
	}
	f.transactions = append(f.transactions, *tx)
	return nil
}

func (f *fakeRepository) ListTransactions(ctx context.Context, profileID uuid.UUID, limit int) ([]models.PointsTransaction, error) {
	var rows []models.PointsTransaction
	for _, row := range f.transactions {
		if row.ProfileID == profileID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (f *fakeRepository) HasEarnForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	for _, row := range f.transactions {
		if row.Kind == enums.PointsTransactionKindEarn && row.OrderID != nil && *row.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func testService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, config.LoyaltyConfig{EarnRate: 1, RedeemRate: "1.00"})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func TestService_GetProfileCreatesOnFirstAccess(t *testing.T) {
	repo := newFakeRepository()
	svc := testService(t, repo)
	userID := uuid.New()

	profile, err := svc.GetProfile(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetProfile error: %v", err)
	}
	if profile.UserID != userID || profile.Balance != 0 {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	again, err := svc.GetProfile(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetProfile second call error: %v", err)
	}
	if again.ID != profile.ID {
		t.Fatalf("expected the same profile, got %s and %s", profile.ID, again.ID)
	}
}

func TestClampRedemption(t *testing.T) {
	rate := dec(t, "1.00")

	// more requested than the order is worth: clamp to the total
	points, discount := ClampRedemption(150, 100, dec(t, "80.00"), rate)
	if points != 80 {
		t.Fatalf("expected 80 points, got %d", points)
	}
	if discount.StringFixed(2) != "80.00" {
		t.Fatalf("expected discount 80.00, got %s", discount.StringFixed(2))
	}

	// balance is the binding cap
	points, discount = ClampRedemption(150, 100, dec(t, "500.00"), rate)
	if points != 100 || discount.StringFixed(2) != "100.00" {
		t.Fatalf("expected 100/100.00, got %d/%s", points, discount.StringFixed(2))
	}

	// requested is the binding cap
	points, _ = ClampRedemption(30, 100, dec(t, "500.00"), rate)
	if points != 30 {
		t.Fatalf("expected 30 points, got %d", points)
	}

	// nothing to clamp against
	points, discount = ClampRedemption(50, 0, dec(t, "500.00"), rate)
	if points != 0 || !discount.IsZero() {
		t.Fatalf("expected no-op on zero balance, got %d/%s", points, discount)
	}
	points, _ = ClampRedemption(50, 100, decimal.Zero, rate)
	if points != 0 {
		t.Fatalf("expected no-op on zero total, got %d", points)
	}
}

func TestService_ApplyRedemptionClampsAndDebits(t *testing.T) {
	repo := newFakeRepository()
	svc := testService(t, repo)
	userID := uuid.New()
	orderID := uuid.New()
	repo.seedProfile(userID, 100)

	points, discount, err := svc.ApplyRedemption(context.Background(), &gorm.DB{}, userID, 150, dec(t, "80.00"), orderID)
	if err != nil {
		t.Fatalf("ApplyRedemption error: %v", err)
	}
	if points != 80 {
		t.Fatalf("expected 80 points applied, got %d", points)
	}
	if discount.StringFixed(2) != "80.00" {
		t.Fatalf("expected discount 80.00, got %s", discount.StringFixed(2))
	}
	if balance := repo.profiles[userID].Balance; balance != 20 {
		t.Fatalf("expected balance 20, got %d", balance)
	}
	if len(repo.transactions) != 1 {
		t.Fatalf("expected one ledger row, got %d", len(repo.transactions))
	}
	row := repo.transactions[0]
	if row.Kind != enums.PointsTransactionKindRedeem || row.Points != 80 {
		t.Fatalf("unexpected ledger row: %+v", row)
	}
	if row.OrderID == nil || *row.OrderID != orderID {
		t.Fatalf("ledger row missing order reference: %+v", row)
	}
	if row.Amount.StringFixed(2) != "80.00" {
		t.Fatalf("expected ledger amount 80.00, got %s", row.Amount.StringFixed(2))
	}
}

func TestService_ApplyRedemptionZeroRequestedIsNoop(t *testing.T) {
	repo := newFakeRepository()
	svc := testService(t, repo)
	userID := uuid.New()
	repo.seedProfile(userID, 100)

	points, discount, err := svc.ApplyRedemption(context.Background(), &gorm.DB{}, userID, 0, dec(t, "80.00"), uuid.New())
	if err != nil {
		t.Fatalf("ApplyRedemption error: %v", err)
	}
	if points != 0 || !discount.IsZero() || len(repo.transactions) != 0 {
		t.Fatalf("expected no-op, got points=%d discount=%s rows=%d", points, discount, len(repo.transactions))
	}
}

func TestService_ApplyRedemptionNegativeRequested(t *testing.T) {
	repo := newFakeRepository()
	svc := testService(t, repo)

	_, _, err := svc.ApplyRedemption(context.Background(), &gorm.DB{}, uuid.New(), -5, dec(t, "80.00"), uuid.New())
	if !errors.HasCode(err, errors.CodeInvalidRedemption) {
		t.Fatalf("expected invalid redemption error, got %v", err)
	}
}

func TestService_RedeemPointsStrict(t *testing.T) {
	repo := newFakeRepository()
	svc := testService(t, repo)
	userID := uuid.New()
	repo.seedProfile(userID, 50)

	profile, discount, err := svc.RedeemPoints(context.Background(), &gorm.DB{}, userID, 30, "counter redemption")
	if err != nil {
		t.Fatalf("RedeemPoints error: %v", err)
	}
	if profile.Balance != 20 {
		t.Fatalf("expected balance 20, got %d", profile.Balance)
	}
	if discount.StringFixed(2) != "30.00" {
		t.Fatalf("expected discount 30.00 at rate 1.00, got %s", discount.StringFixed(2))
	}
	if len(repo.transactions) != 1 || repo.transactions[0].Amount.StringFixed(2) != "30.00" {
		t.Fatalf("expected one ledger row with amount 30.00, got %+v", repo.transactions)
	}

	_, _, err = svc.RedeemPoints(context.Background(), &gorm.DB{}, userID, 30, "")
	if !errors.HasCode(err, errors.CodeInsufficientPoints) {
		t.Fatalf("expected insufficient points error, got %v", err)
	}

	_, _, err = svc.RedeemPoints(context.Background(), &gorm.DB{}, userID, 0, "")
	if !errors.HasCode(err, errors.CodeInvalidRedemption) {
		t.Fatalf("expected invalid redemption error, got %v", err)
	}
}

func TestService_RedeemPointsConvertsAtRate(t *testing.T) {
	repo := newFakeRepository()
	svc, err := NewService(repo, config.LoyaltyConfig{EarnRate: 1, RedeemRate: "0.25"})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	userID := uuid.New()
	repo.seedProfile(userID, 100)

	_, discount, err := svc.RedeemPoints(context.Background(), &gorm.DB{}, userID, 10, "")
	if err != nil {
		t.Fatalf("RedeemPoints error: %v", err)
	}
	if discount.StringFixed(2) != "2.50" {
		t.Fatalf("expected discount 2.50 for 10 points at 0.25, got %s", discount.StringFixed(2))
	}
}

func TestService_AwardPointsForOrder(t *testing.T) {
	repo := newFakeRepository()
	svc := testService(t, repo)
	userID := uuid.New()
	orderID := uuid.New()
	repo.seedProfile(userID, 10)

	points, err := svc.AwardPointsForOrder(context.Background(), &gorm.DB{}, userID, orderID, dec(t, "1570.00"))
	if err != nil {
		t.Fatalf("AwardPointsForOrder error: %v", err)
	}
	if points != 1570 {
		t.Fatalf("expected 1570 points, got %d", points)
	}
	if balance := repo.profiles[userID].Balance; balance != 1580 {
		t.Fatalf("expected balance 1580, got %d", balance)
	}
	if len(repo.transactions) != 1 || repo.transactions[0].Amount.StringFixed(2) != "1570.00" {
		t.Fatalf("expected earn row recording 1570.00 paid, got %+v", repo.transactions)
	}

	// awarding the same order again is a silent no-op
	points, err = svc.AwardPointsForOrder(context.Background(), &gorm.DB{}, userID, orderID, dec(t, "1570.00"))
	if err != nil {
		t.Fatalf("second award error: %v", err)
	}
	if points != 0 {
		t.Fatalf("expected duplicate award no-op, got %d", points)
	}
	if balance := repo.profiles[userID].Balance; balance != 1580 {
		t.Fatalf("balance changed on duplicate award: %d", balance)
	}
}

func TestService_AwardPointsForOrderZeroTotal(t *testing.T) {
	repo := newFakeRepository()
	svc := testService(t, repo)
	userID := uuid.New()
	repo.seedProfile(userID, 10)

	points, err := svc.AwardPointsForOrder(context.Background(), &gorm.DB{}, userID, uuid.New(), decimal.Zero)
	if err != nil {
		t.Fatalf("AwardPointsForOrder error: %v", err)
	}
	if points != 0 || len(repo.transactions) != 0 {
		t.Fatalf("expected zero-total no-op, got points=%d rows=%d", points, len(repo.transactions))
	}
}

func TestService_AwardPointsFractionalTotalFloors(t *testing.T) {
	repo := newFakeRepository()
	svc := testService(t, repo)
	userID := uuid.New()
	repo.seedProfile(userID, 0)

	points, err := svc.AwardPointsForOrder(context.Background(), &gorm.DB{}, userID, uuid.New(), dec(t, "99.99"))
	if err != nil {
		t.Fatalf("AwardPointsForOrder error: %v", err)
	}
	if points != 99 {
		t.Fatalf("expected 99 points from 99.99, got %d", points)
	}
}
