package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shinwarieats/restaurant-backend/api/middleware"
	"github.com/shinwarieats/restaurant-backend/api/responses"
	"github.com/shinwarieats/restaurant-backend/api/validators"
	"github.com/shinwarieats/restaurant-backend/internal/branches"
	"github.com/shinwarieats/restaurant-backend/internal/checkout"
	"github.com/shinwarieats/restaurant-backend/internal/pricing"
	"github.com/shinwarieats/restaurant-backend/pkg/enums"
	pkgerrors "github.com/shinwarieats/restaurant-backend/pkg/errors"
	"github.com/shinwarieats/restaurant-backend/pkg/logger"
)

type placeOrderRequest struct {
	CustomerName string     `json:"customer_name" validate:"required,min=2,max=120"`
	Phone        string     `json:"phone" validate:"required,max=32"`
	Address      string     `json:"address" validate:"required"`
	Notes        *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
	BranchID     *uuid.UUID `json:"branch_id,omitempty"`
	RedeemPoints int        `json:"redeem_points"`
}

type placeOrderResponse struct {
	Order          orderView `json:"order"`
	PointsRedeemed int       `json:"points_redeemed"`
	Discount       string    `json:"discount"`
	PointsEarned   int       `json:"points_earned"`
}

// CheckoutPlaceOrder turns the caller's cart into an order. When the request
// names no branch, the customer's stored branch choice is used.
func CheckoutPlaceOrder(svc checkout.Service, selections branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body placeOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if body.BranchID == nil && selections != nil {
			if branch, err := selections.Selected(r.Context(), userID); err == nil && branch != nil {
				body.BranchID = &branch.ID
			}
		}

		result, err := svc.PlaceOrder(r.Context(), userID, checkout.Input{
			CustomerName: body.CustomerName,
			Phone:        body.Phone,
			Address:      body.Address,
			Notes:        body.Notes,
			BranchID:     body.BranchID,
			RedeemPoints: body.RedeemPoints,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, placeOrderResponse{
			Order:          newOrderView(*result.Order),
			PointsRedeemed: result.PointsRedeemed,
			Discount:       result.Discount.StringFixed(pricing.Scale),
			PointsEarned:   result.PointsEarned,
		})
	}
}

type paymentSessionView struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CheckoutPaymentSession creates a hosted payment session for an order.
func CheckoutPaymentSession(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		staff := enums.UserRole(middleware.RoleFromContext(r.Context())).IsStaff()
		session, err := svc.CreatePaymentSession(r.Context(), userID, staff, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, paymentSessionView{SessionID: session.ID, URL: session.URL})
	}
}
