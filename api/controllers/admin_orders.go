package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shinwarieats/restaurant-backend/api/responses"
	"github.com/shinwarieats/restaurant-backend/api/validators"
	"github.com/shinwarieats/restaurant-backend/internal/orders"
	"github.com/shinwarieats/restaurant-backend/internal/pricing"
	"github.com/shinwarieats/restaurant-backend/pkg/enums"
	pkgerrors "github.com/shinwarieats/restaurant-backend/pkg/errors"
	"github.com/shinwarieats/restaurant-backend/pkg/logger"
)

// AdminOrderList returns all orders, optionally filtered by status or branch.
func AdminOrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filter orders.ListFilter
		if raw := r.URL.Query().Get("status"); raw != "" {
			status := enums.OrderStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
				return
			}
			filter.Status = status
		}
		if raw := r.URL.Query().Get("branch_id"); raw != "" {
			branchID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "branch_id must be a UUID"))
				return
			}
			filter.BranchID = &branchID
		}

		rows, next, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMeta(w, newOrderViews(rows), map[string]any{"next_cursor": next})
	}
}

// AdminOrderGet returns any order by id with its line items.
func AdminOrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(*order))
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminOrderUpdateStatus advances an order through its lifecycle.
func AdminOrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orderID, enums.OrderStatus(body.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(*order))
	}
}

type dashboardView struct {
	TotalOrders      int64            `json:"total_orders"`
	CountsByStatus   map[string]int64 `json:"counts_by_status"`
	DeliveredRevenue string           `json:"delivered_revenue"`
	CustomerCount    int64            `json:"customer_count"`
}

// AdminDashboard returns order totals, counts per status, delivered revenue,
// and the registered customer count.
func AdminDashboard(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		stats, err := svc.Dashboard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view := dashboardView{
			TotalOrders:      stats.TotalOrders,
			CountsByStatus:   make(map[string]int64, len(stats.CountsByStatus)),
			DeliveredRevenue: stats.DeliveredRevenue.StringFixed(pricing.Scale),
			CustomerCount:    stats.CustomerCount,
		}
		for status, count := range stats.CountsByStatus {
			view.CountsByStatus[string(status)] = count
		}
		responses.WriteSuccess(w, view)
	}
}
