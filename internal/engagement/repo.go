package engagement

import (
	"context"

	"gorm.io/gorm"

	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
)

// Repository manages persistence for contact messages, newsletter
// subscriptions, and feedback.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error
	CreateSubscriber(ctx context.Context, sub *models.NewsletterSubscriber) error
	GetSubscriberByEmail(ctx context.Context, email string) (*models.NewsletterSubscriber, error)
	CreateFeedback(ctx context.Context, feedback *models.Feedback) error
	ListContactMessages(ctx context.Context, limit int) ([]models.ContactMessage, error)
	ListFeedback(ctx context.Context, limit int) ([]models.Feedback, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an engagement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *repository) CreateSubscriber(ctx context.Context, sub *models.NewsletterSubscriber) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repository) GetSubscriberByEmail(ctx context.Context, email string) (*models.NewsletterSubscriber, error) {
	var sub models.NewsletterSubscriber
	if err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) CreateFeedback(ctx context.Context, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *repository) ListContactMessages(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	var rows []models.ContactMessage
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListFeedback(ctx context.Context, limit int) ([]models.Feedback, error) {
	var rows []models.Feedback
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
