package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shinwarieats/restaurant-backend/api/middleware"
	"github.com/shinwarieats/restaurant-backend/api/responses"
	"github.com/shinwarieats/restaurant-backend/api/validators"
	"github.com/shinwarieats/restaurant-backend/internal/engagement"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	pkgerrors "github.com/shinwarieats/restaurant-backend/pkg/errors"
	"github.com/shinwarieats/restaurant-backend/pkg/logger"
)

type contactRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"omitempty,max=200"`
	Message string `json:"message" validate:"required,max=4000"`
}

// ContactSubmit accepts a public contact-form message.
func ContactSubmit(svc engagement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "engagement service unavailable"))
			return
		}

		var body contactRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		message, err := svc.SubmitContact(r.Context(), engagement.ContactInput{
			Name:    body.Name,
			Email:   body.Email,
			Subject: body.Subject,
			Message: body.Message,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"id": message.ID})
	}
}

type subscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// NewsletterSubscribe opts an email address into the newsletter. Repeat
// submissions succeed without creating duplicates.
func NewsletterSubscribe(svc engagement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "engagement service unavailable"))
			return
		}

		var body subscribeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subscriber, created, err := svc.Subscribe(r.Context(), body.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, map[string]any{"email": subscriber.Email, "subscribed": true})
	}
}

type feedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Message string `json:"message" validate:"required,max=4000"`
}

// FeedbackSubmit accepts site feedback. Signed-in callers are attributed.
func FeedbackSubmit(svc engagement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "engagement service unavailable"))
			return
		}

		var body feedbackRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := engagement.FeedbackInput{Rating: body.Rating, Message: body.Message}
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			if userID, err := uuid.Parse(raw); err == nil {
				input.UserID = &userID
			}
		}

		feedback, err := svc.SubmitFeedback(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"id": feedback.ID})
	}
}

type contactMessageView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminContactMessages lists recent contact-form messages for staff.
func AdminContactMessages(svc engagement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "engagement service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 100, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListContactMessages(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]contactMessageView, 0, len(rows))
		for _, row := range rows {
			views = append(views, contactMessageView{
				ID:        row.ID,
				Name:      row.Name,
				Email:     row.Email,
				Subject:   row.Subject,
				Message:   row.Message,
				CreatedAt: row.CreatedAt,
			})
		}
		responses.WriteSuccess(w, views)
	}
}

type feedbackView struct {
	ID        uuid.UUID  `json:"id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Rating    int        `json:"rating"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
}

func newFeedbackViews(rows []models.Feedback) []feedbackView {
	out := make([]feedbackView, 0, len(rows))
	for _, row := range rows {
		out = append(out, feedbackView{
			ID:        row.ID,
			UserID:    row.UserID,
			Rating:    row.Rating,
			Message:   row.Message,
			CreatedAt: row.CreatedAt,
		})
	}
	return out
}

// AdminFeedbackList lists recent site feedback for staff.
func AdminFeedbackList(svc engagement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "engagement service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 100, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListFeedback(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newFeedbackViews(rows))
	}
}
