package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactMessage is a message submitted through the public contact form.
type ContactMessage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;not null"`
	Subject   string    `gorm:"column:subject;not null"`
	Message   string    `gorm:"column:message;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// NewsletterSubscriber records an opted-in email address.
type NewsletterSubscriber struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;not null;uniqueIndex:ux_newsletter_email"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Feedback is free-form site feedback, optionally tied to an account.
type Feedback struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID    *uuid.UUID `gorm:"column:user_id;type:uuid"`
	Rating    int        `gorm:"column:rating;not null"`
	Message   string     `gorm:"column:message;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
