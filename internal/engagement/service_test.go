package engagement

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/errors"
)

type stubRunner struct{}

func (stubRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeRepository struct {
	contacts    []*models.ContactMessage
	subscribers map[string]*models.NewsletterSubscriber
	feedback    []*models.Feedback
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{subscribers: map[string]*models.NewsletterSubscriber{}}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	f.contacts = append(f.contacts, msg)
	return nil
}

func (f *fakeRepository) CreateSubscriber(ctx context.Context, sub *models.NewsletterSubscriber) error {
	if _, ok := f.subscribers[sub.Email]; ok {
		return gorm.ErrDuplicatedKey
	}
	f.subscribers[sub.Email] = sub
	return nil
}

func (f *fakeRepository) GetSubscriberByEmail(ctx context.Context, email string) (*models.NewsletterSubscriber, error) {
	sub, ok := f.subscribers[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return sub, nil
}

func (f *fakeRepository) CreateFeedback(ctx context.Context, feedback *models.Feedback) error {
	f.feedback = append(f.feedback, feedback)
	return nil
}

func (f *fakeRepository) ListContactMessages(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	var rows []models.ContactMessage
	for _, msg := range f.contacts {
		rows = append(rows, *msg)
	}
	return rows, nil
}

func (f *fakeRepository) ListFeedback(ctx context.Context, limit int) ([]models.Feedback, error) {
	var rows []models.Feedback
	for _, fb := range f.feedback {
		rows = append(rows, *fb)
	}
	return rows, nil
}

func newTestService(t *testing.T) (Service, *fakeRepository) {
	t.Helper()
	repo := newFakeRepository()
	svc, err := NewService(repo, stubRunner{}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo
}

func TestSubmitContact(t *testing.T) {
	svc, repo := newTestService(t)

	msg, err := svc.SubmitContact(context.Background(), ContactInput{
		Name:    "  Sara  ",
		Email:   "Sara@Example.COM",
		Message: "Do you cater events?",
	})
	if err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if msg.Name != "Sara" || msg.Email != "sara@example.com" {
		t.Fatalf("message not normalized: %+v", msg)
	}
	if msg.Subject != "Website contact" {
		t.Fatalf("default subject = %q", msg.Subject)
	}
	if len(repo.contacts) != 1 {
		t.Fatalf("contacts stored = %d", len(repo.contacts))
	}

	if _, err := svc.SubmitContact(context.Background(), ContactInput{Email: "x@y.com"}); !errors.HasCode(err, errors.CodeValidation) {
		t.Fatalf("missing fields: err = %v, want VALIDATION_ERROR", err)
	}
}

func TestSubscribeIsIdempotent(t *testing.T) {
	svc, repo := newTestService(t)

	sub, created, err := svc.Subscribe(context.Background(), "Foodie@Example.com")
	if err != nil {
		t.Fatalf("first subscribe: %v", err)
	}
	if !created || sub.Email != "foodie@example.com" {
		t.Fatalf("first subscribe: created = %v sub = %+v", created, sub)
	}

	again, created, err := svc.Subscribe(context.Background(), "foodie@example.com")
	if err != nil {
		t.Fatalf("second subscribe: %v", err)
	}
	if created {
		t.Fatalf("second subscribe reported a new subscription")
	}
	if again.ID != sub.ID {
		t.Fatalf("second subscribe returned a different row")
	}
	if len(repo.subscribers) != 1 {
		t.Fatalf("subscribers stored = %d", len(repo.subscribers))
	}

	if _, _, err := svc.Subscribe(context.Background(), "not-an-email"); !errors.HasCode(err, errors.CodeValidation) {
		t.Fatalf("bad email: err = %v, want VALIDATION_ERROR", err)
	}
}

func TestSubmitFeedback(t *testing.T) {
	svc, repo := newTestService(t)
	userID := uuid.New()

	fb, err := svc.SubmitFeedback(context.Background(), FeedbackInput{
		UserID:  &userID,
		Rating:  4,
		Message: "Fast delivery",
	})
	if err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	if fb.UserID == nil || *fb.UserID != userID {
		t.Fatalf("feedback user not kept: %+v", fb)
	}
	if len(repo.feedback) != 1 {
		t.Fatalf("feedback stored = %d", len(repo.feedback))
	}

	if _, err := svc.SubmitFeedback(context.Background(), FeedbackInput{Rating: 9, Message: "x"}); !errors.HasCode(err, errors.CodeValidation) {
		t.Fatalf("bad rating: err = %v, want VALIDATION_ERROR", err)
	}
	if _, err := svc.SubmitFeedback(context.Background(), FeedbackInput{Rating: 3, Message: "  "}); !errors.HasCode(err, errors.CodeValidation) {
		t.Fatalf("empty message: err = %v, want VALIDATION_ERROR", err)
	}
}
