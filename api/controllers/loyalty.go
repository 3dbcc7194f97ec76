package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shinwarieats/restaurant-backend/api/responses"
	"github.com/shinwarieats/restaurant-backend/api/validators"
	"github.com/shinwarieats/restaurant-backend/internal/loyalty"
	"github.com/shinwarieats/restaurant-backend/internal/pricing"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	pkgerrors "github.com/shinwarieats/restaurant-backend/pkg/errors"
	"github.com/shinwarieats/restaurant-backend/pkg/logger"
)

// LoyaltyTxRunner runs a function inside a database transaction. Redemption
// outside checkout mutates the balance and ledger together, so the handler
// needs its own transaction scope.
type LoyaltyTxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type loyaltyProfileView struct {
	Balance   int       `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

type pointsTransactionView struct {
	ID        uuid.UUID  `json:"id"`
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
	Kind      string     `json:"kind"`
	Points    int        `json:"points"`
	Amount    string     `json:"amount"`
	Note      *string    `json:"note,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func newPointsTransactionViews(rows []models.PointsTransaction) []pointsTransactionView {
	out := make([]pointsTransactionView, 0, len(rows))
	for _, row := range rows {
		out = append(out, pointsTransactionView{
			ID:        row.ID,
			OrderID:   row.OrderID,
			Kind:      string(row.Kind),
			Points:    row.Points,
			Amount:    row.Amount.StringFixed(pricing.Scale),
			Note:      row.Note,
			CreatedAt: row.CreatedAt,
		})
	}
	return out
}

// LoyaltyProfile returns the caller's points balance.
func LoyaltyProfile(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.GetProfile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loyaltyProfileView{Balance: profile.Balance, UpdatedAt: profile.UpdatedAt})
	}
}

// LoyaltyHistory returns the caller's points ledger, newest first.
func LoyaltyHistory(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.History(r.Context(), userID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPointsTransactionViews(rows))
	}
}

type redeemPointsRequest struct {
	Points int    `json:"points" validate:"required,min=1"`
	Note   string `json:"note" validate:"omitempty,max=200"`
}

type redeemResultView struct {
	Balance        int       `json:"balance"`
	PointsRedeemed int       `json:"points_redeemed"`
	DiscountValue  string    `json:"discount_value"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LoyaltyRedeem burns points from the caller's balance outside checkout and
// reports the monetary value they converted into.
func LoyaltyRedeem(svc loyalty.Service, runner LoyaltyTxRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || runner == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body redeemPointsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var (
			profile  *models.LoyaltyProfile
			discount decimal.Decimal
		)
		err = runner.WithTx(r.Context(), func(tx *gorm.DB) error {
			var txErr error
			profile, discount, txErr = svc.RedeemPoints(r.Context(), tx, userID, body.Points, body.Note)
			return txErr
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, redeemResultView{
			Balance:        profile.Balance,
			PointsRedeemed: body.Points,
			DiscountValue:  discount.StringFixed(pricing.Scale),
			UpdatedAt:      profile.UpdatedAt,
		})
	}
}
