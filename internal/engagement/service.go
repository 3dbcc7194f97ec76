package engagement

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shinwarieats/restaurant-backend/internal/users"
	dbpkg "github.com/shinwarieats/restaurant-backend/pkg/db"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/enums"
	"github.com/shinwarieats/restaurant-backend/pkg/errors"
	"github.com/shinwarieats/restaurant-backend/pkg/outbox"
)

const defaultListLimit = 100

// ContactInput carries a public contact form submission.
type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// FeedbackInput carries site feedback, optionally from a signed-in user.
type FeedbackInput struct {
	UserID  *uuid.UUID
	Rating  int
	Message string
}

// Service defines contact, newsletter, and feedback operations.
type Service interface {
	SubmitContact(ctx context.Context, input ContactInput) (*models.ContactMessage, error)
	Subscribe(ctx context.Context, email string) (*models.NewsletterSubscriber, bool, error)
	SubmitFeedback(ctx context.Context, input FeedbackInput) (*models.Feedback, error)
	ListContactMessages(ctx context.Context, limit int) ([]models.ContactMessage, error)
	ListFeedback(ctx context.Context, limit int) ([]models.Feedback, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     Repository
	txRunner txRunner
	outbox   *outbox.Service
}

// NewService wires the engagement service and validates its dependencies.
func NewService(repo Repository, runner txRunner, outboxSvc *outbox.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("engagement repository required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, txRunner: runner, outbox: outboxSvc}, nil
}

// SubmitContact stores the message and queues a notification for the mail
// worker in the same transaction.
func (s *service) SubmitContact(ctx context.Context, input ContactInput) (*models.ContactMessage, error) {
	msg := &models.ContactMessage{
		ID:      uuid.New(),
		Name:    strings.TrimSpace(input.Name),
		Email:   users.NormalizeEmail(input.Email),
		Subject: strings.TrimSpace(input.Subject),
		Message: strings.TrimSpace(input.Message),
	}
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return nil, errors.New(errors.CodeValidation, "name, email, and message are required")
	}
	if msg.Subject == "" {
		msg.Subject = "Website contact"
	}

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateContactMessage(ctx, msg); err != nil {
			return err
		}
		if s.outbox == nil {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventContactReceived,
			AggregateType: enums.AggregateContact,
			AggregateID:   msg.ID,
			Data: map[string]string{
				"name":    msg.Name,
				"email":   msg.Email,
				"subject": msg.Subject,
				"message": msg.Message,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// Subscribe adds the email to the newsletter list. Subscribing an address that
// is already on the list succeeds without creating a duplicate; the boolean
// reports whether a new subscription was created.
func (s *service) Subscribe(ctx context.Context, email string) (*models.NewsletterSubscriber, bool, error) {
	normalized := users.NormalizeEmail(email)
	if normalized == "" || !strings.Contains(normalized, "@") {
		return nil, false, errors.New(errors.CodeValidation, "a valid email is required")
	}

	existing, err := s.repo.GetSubscriberByEmail(ctx, normalized)
	if err == nil {
		return existing, false, nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	sub := &models.NewsletterSubscriber{ID: uuid.New(), Email: normalized}
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateSubscriber(ctx, sub); err != nil {
			return err
		}
		if s.outbox == nil {
			return nil
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNewsletterSubscribed,
			AggregateType: enums.AggregateSubscriber,
			AggregateID:   sub.ID,
			Data:          map[string]string{"email": sub.Email},
			Version:       1,
		})
	})
	if err != nil {
		// lost the race with a concurrent subscribe for the same address
		if dbpkg.IsUniqueViolation(err, "ux_newsletter_email") {
			existing, getErr := s.repo.GetSubscriberByEmail(ctx, normalized)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return sub, true, nil
}

func (s *service) SubmitFeedback(ctx context.Context, input FeedbackInput) (*models.Feedback, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, errors.New(errors.CodeValidation, "rating must be between 1 and 5")
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, errors.New(errors.CodeValidation, "message is required")
	}

	feedback := &models.Feedback{
		ID:      uuid.New(),
		UserID:  input.UserID,
		Rating:  input.Rating,
		Message: message,
	}
	if err := s.repo.CreateFeedback(ctx, feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

func (s *service) ListContactMessages(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.repo.ListContactMessages(ctx, limit)
}

func (s *service) ListFeedback(ctx context.Context, limit int) ([]models.Feedback, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.repo.ListFeedback(ctx, limit)
}
