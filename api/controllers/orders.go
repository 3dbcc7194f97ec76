package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shinwarieats/restaurant-backend/api/responses"
	"github.com/shinwarieats/restaurant-backend/api/validators"
	"github.com/shinwarieats/restaurant-backend/internal/orders"
	"github.com/shinwarieats/restaurant-backend/internal/pricing"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	pkgerrors "github.com/shinwarieats/restaurant-backend/pkg/errors"
	"github.com/shinwarieats/restaurant-backend/pkg/logger"
)

type orderItemView struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	UnitPrice   string    `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	LineTotal   string    `json:"line_total"`
}

type orderView struct {
	ID              uuid.UUID       `json:"id"`
	Status          string          `json:"status"`
	Subtotal        string          `json:"subtotal"`
	DeliveryFee     string          `json:"delivery_fee"`
	LoyaltyDiscount string          `json:"loyalty_discount"`
	Total           string          `json:"total"`
	PointsRedeemed  int             `json:"points_redeemed"`
	PointsEarned    int             `json:"points_earned"`
	CustomerName    string          `json:"customer_name"`
	Phone           string          `json:"phone"`
	Address         string          `json:"address"`
	Notes           *string         `json:"notes,omitempty"`
	BranchID        *uuid.UUID      `json:"branch_id,omitempty"`
	PaymentRef      *string         `json:"payment_ref,omitempty"`
	Items           []orderItemView `json:"items,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func newOrderView(order models.Order) orderView {
	view := orderView{
		ID:              order.ID,
		Status:          string(order.Status),
		Subtotal:        order.Subtotal.StringFixed(pricing.Scale),
		DeliveryFee:     order.DeliveryFee.StringFixed(pricing.Scale),
		LoyaltyDiscount: order.LoyaltyDiscount.StringFixed(pricing.Scale),
		Total:           order.Total.StringFixed(pricing.Scale),
		PointsRedeemed:  order.PointsRedeemed,
		PointsEarned:    order.PointsEarned,
		CustomerName:    order.CustomerName,
		Phone:           order.Phone,
		Address:         order.Address,
		Notes:           order.Notes,
		BranchID:        order.BranchID,
		PaymentRef:      order.PaymentRef,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, orderItemView{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice.StringFixed(pricing.Scale),
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal.StringFixed(pricing.Scale),
		})
	}
	return view
}

func newOrderViews(rows []models.Order) []orderView {
	out := make([]orderView, 0, len(rows))
	for _, row := range rows {
		out = append(out, newOrderView(row))
	}
	return out
}

// OrderList returns the caller's orders, newest first.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.ListForUser(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMeta(w, newOrderViews(rows), map[string]any{"next_cursor": next})
	}
}

// OrderGet returns one of the caller's orders with its line items.
func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
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

		order, err := svc.GetForUser(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(*order))
	}
}

// OrderCancel cancels one of the caller's pending orders.
func OrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
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

		order, err := svc.Cancel(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(*order))
	}
}
