package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/shinwarieats/restaurant-backend/pkg/config"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/enums"
	"github.com/shinwarieats/restaurant-backend/pkg/logger"
	"github.com/shinwarieats/restaurant-backend/pkg/metrics"
	"github.com/shinwarieats/restaurant-backend/pkg/outbox"
)

const jobName = "mail_send"

// Mail is one outgoing message.
type Mail struct {
	To      string
	Subject string
	Body    string
}

type sender interface {
	Send(ctx context.Context, mail Mail) error
}

type smtpSender struct {
	cfg config.SMTPConfig
}

func (s smtpSender) Send(ctx context.Context, mail Mail) error {
	if s.cfg.Host == "" {
		return errors.New("smtp host not configured")
	}
	addr := s.cfg.Host + ":" + s.cfg.Port
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	msg := strings.Join([]string{
		"From: " + s.cfg.DefaultFrom,
		"To: " + mail.To,
		"Subject: " + mail.Subject,
		"",
		mail.Body,
	}, "\r\n")
	return smtp.SendMail(addr, auth, s.cfg.DefaultFrom, []string{mail.To}, []byte(msg))
}

type userDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Consumer turns domain events from the mail subscription into emails.
type Consumer struct {
	subscription *pubsub.Subscriber
	users        userDirectory
	sender       sender
	inbox        string
	jobs         *metrics.JobMetrics
	logg         *logger.Logger
}

// NewConsumer wires a mail consumer. inbox is where contact-form
// notifications are delivered.
func NewConsumer(subscription *pubsub.Subscriber, users userDirectory, sender sender, inbox string, jobs *metrics.JobMetrics, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, errors.New("mail subscription is required")
	}
	if users == nil {
		return nil, errors.New("user directory is required")
	}
	if sender == nil {
		return nil, errors.New("mail sender is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		subscription: subscription,
		users:        users,
		sender:       sender,
		inbox:        inbox,
		jobs:         jobs,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg.Attributes["event_type"], msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process returns true when the message should be acked. Malformed payloads
// are acked; redelivery cannot fix them.
func (c *Consumer) process(ctx context.Context, eventType string, data []byte) bool {
	logCtx := c.logg.WithField(ctx, "event_type", eventType)

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode event envelope", err)
		return true
	}

	mail, err := c.buildMail(ctx, enums.OutboxEventType(eventType), envelope.Data)
	if err != nil {
		if errors.Is(err, errSkipEvent) {
			return true
		}
		if errors.Is(err, errBadPayload) {
			c.logg.Error(logCtx, "malformed event payload", err)
			return true
		}
		c.logg.Error(logCtx, "failed to build mail", err)
		return false
	}
	if mail == nil {
		return true
	}

	started := time.Now()
	err = c.sender.Send(ctx, *mail)
	c.jobs.ObserveDuration(jobName, time.Since(started))
	if err != nil {
		c.jobs.IncFailure(jobName)
		c.logg.Error(logCtx, "failed to send mail", err)
		return false
	}
	c.jobs.IncSuccess(jobName)
	c.logg.Info(c.logg.WithField(logCtx, "to", mail.To), "mail sent")
	return true
}

var (
	errSkipEvent  = errors.New("event not handled by mailer")
	errBadPayload = errors.New("malformed event payload")
)

func decode(data json.RawMessage, target any) error {
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return nil
}

func (c *Consumer) buildMail(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage) (*Mail, error) {
	switch eventType {
	case enums.EventUserRegistered:
		var payload struct {
			Email    string `json:"email"`
			FullName string `json:"full_name"`
		}
		if err := decode(data, &payload); err != nil {
			return nil, err
		}
		return &Mail{
			To:      payload.Email,
			Subject: "Welcome to Shinwari Eats",
			Body:    fmt.Sprintf("Hi %s,\n\nYour account is ready. Order your first meal and start earning loyalty points.", payload.FullName),
		}, nil

	case enums.EventOrderPlaced:
		var payload struct {
			OrderID      string `json:"order_id"`
			UserID       string `json:"user_id"`
			Total        string `json:"total"`
			CustomerName string `json:"customer_name"`
		}
		if err := decode(data, &payload); err != nil {
			return nil, err
		}
		email, err := c.lookupEmail(ctx, payload.UserID)
		if err != nil {
			return nil, err
		}
		return &Mail{
			To:      email,
			Subject: "Order confirmation",
			Body:    fmt.Sprintf("Hi %s,\n\nWe received your order %s for %s. We'll let you know when it's on the way.", payload.CustomerName, payload.OrderID, payload.Total),
		}, nil

	case enums.EventOrderStatusChanged:
		var payload struct {
			OrderID string `json:"order_id"`
			UserID  string `json:"user_id"`
			To      string `json:"to"`
		}
		if err := decode(data, &payload); err != nil {
			return nil, err
		}
		email, err := c.lookupEmail(ctx, payload.UserID)
		if err != nil {
			return nil, err
		}
		return &Mail{
			To:      email,
			Subject: "Order update",
			Body:    fmt.Sprintf("Your order %s is now %s.", payload.OrderID, payload.To),
		}, nil

	case enums.EventNewsletterSubscribed:
		var payload struct {
			Email string `json:"email"`
		}
		if err := decode(data, &payload); err != nil {
			return nil, err
		}
		return &Mail{
			To:      payload.Email,
			Subject: "You're on the list",
			Body:    "Thanks for subscribing to the Shinwari Eats newsletter. Specials and new menu items land here first.",
		}, nil

	case enums.EventContactReceived:
		if c.inbox == "" {
			return nil, errSkipEvent
		}
		var payload struct {
			Name    string `json:"name"`
			Email   string `json:"email"`
			Subject string `json:"subject"`
			Message string `json:"message"`
		}
		if err := decode(data, &payload); err != nil {
			return nil, err
		}
		return &Mail{
			To:      c.inbox,
			Subject: "Contact form: " + payload.Subject,
			Body:    fmt.Sprintf("From: %s <%s>\n\n%s", payload.Name, payload.Email, payload.Message),
		}, nil

	default:
		return nil, errSkipEvent
	}
}

func (c *Consumer) lookupEmail(ctx context.Context, rawUserID string) (string, error) {
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return "", fmt.Errorf("parsing user id: %w", err)
	}
	user, err := c.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("looking up user %s: %w", userID, err)
	}
	return user.Email, nil
}
