package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/shinwarieats/restaurant-backend/api/middleware"
	pkgerrors "github.com/shinwarieats/restaurant-backend/pkg/errors"
)

// authedUserID reads the authenticated user identifier seeded by the auth
// middleware.
func authedUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}
