package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/shinwarieats/restaurant-backend/api/responses"
	"github.com/shinwarieats/restaurant-backend/api/validators"
	"github.com/shinwarieats/restaurant-backend/internal/branches"
	pkgerrors "github.com/shinwarieats/restaurant-backend/pkg/errors"
	"github.com/shinwarieats/restaurant-backend/pkg/logger"
)

type selectBranchRequest struct {
	BranchID uuid.UUID `json:"branch_id" validate:"required"`
}

// BranchSelect stores the customer's chosen branch server-side.
func BranchSelect(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "branch service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body selectBranchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := svc.Select(r.Context(), userID, body.BranchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBranchView(*branch))
	}
}

// BranchSelected returns the customer's stored branch choice, if any.
func BranchSelected(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "branch service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := svc.Selected(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if branch == nil {
			responses.WriteSuccess(w, nil)
			return
		}
		responses.WriteSuccess(w, newBranchView(*branch))
	}
}

// BranchClearSelection forgets the customer's stored branch choice.
func BranchClearSelection(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "branch service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ClearSelection(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
