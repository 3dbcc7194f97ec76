package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/enums"
	"github.com/shinwarieats/restaurant-backend/pkg/logger"
	"github.com/shinwarieats/restaurant-backend/pkg/outbox"
)

type fakeSender struct {
	sent    []Mail
	sendErr error
}

func (s *fakeSender) Send(ctx context.Context, mail Mail) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, mail)
	return nil
}

type fakeUsers struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newTestConsumer(t *testing.T, users *fakeUsers, sender *fakeSender, inbox string) *Consumer {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "mailer-test", Output: io.Discard})
	// The subscription is only touched by Run, not by process.
	consumer, err := NewConsumer(&pubsub.Subscriber{}, users, sender, inbox, nil, logg)
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	return consumer
}

func envelopeJSON(t *testing.T, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       raw,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

func TestProcessSendsWelcomeMail(t *testing.T) {
	sender := &fakeSender{}
	consumer := newTestConsumer(t, &fakeUsers{}, sender, "")

	payload := envelopeJSON(t, map[string]string{"email": "amina@example.com", "full_name": "Amina"})
	if !consumer.process(context.Background(), string(enums.EventUserRegistered), payload) {
		t.Fatalf("expected ack")
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one mail got %d", len(sender.sent))
	}
	if sender.sent[0].To != "amina@example.com" {
		t.Fatalf("mail sent to wrong address: %q", sender.sent[0].To)
	}
}

func TestProcessResolvesOrderRecipient(t *testing.T) {
	userID := uuid.New()
	users := &fakeUsers{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Email: "karim@example.com"},
	}}
	sender := &fakeSender{}
	consumer := newTestConsumer(t, users, sender, "")

	payload := envelopeJSON(t, map[string]string{
		"order_id": uuid.NewString(),
		"user_id":  userID.String(),
		"to":       "delivered",
	})
	if !consumer.process(context.Background(), string(enums.EventOrderStatusChanged), payload) {
		t.Fatalf("expected ack")
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "karim@example.com" {
		t.Fatalf("status mail not delivered to order owner: %+v", sender.sent)
	}
}

func TestProcessNacksOnSendFailure(t *testing.T) {
	sender := &fakeSender{sendErr: errors.New("smtp down")}
	consumer := newTestConsumer(t, &fakeUsers{}, sender, "")

	payload := envelopeJSON(t, map[string]string{"email": "amina@example.com", "full_name": "Amina"})
	if consumer.process(context.Background(), string(enums.EventUserRegistered), payload) {
		t.Fatalf("expected nack for transient send failure")
	}
}

func TestProcessAcksUnknownAndMalformedEvents(t *testing.T) {
	sender := &fakeSender{}
	consumer := newTestConsumer(t, &fakeUsers{}, sender, "")

	if !consumer.process(context.Background(), "some.other.event", envelopeJSON(t, map[string]string{})) {
		t.Fatalf("expected ack for unhandled event type")
	}
	if !consumer.process(context.Background(), string(enums.EventUserRegistered), []byte("not-json")) {
		t.Fatalf("expected ack for malformed envelope")
	}
	if len(sender.sent) != 0 {
		t.Fatalf("no mail should be sent, got %d", len(sender.sent))
	}
}

func TestProcessRoutesContactToInbox(t *testing.T) {
	sender := &fakeSender{}
	consumer := newTestConsumer(t, &fakeUsers{}, sender, "owners@shinwarieats.example")

	payload := envelopeJSON(t, map[string]string{
		"name":    "Guest",
		"email":   "guest@example.com",
		"subject": "Catering",
		"message": "Do you cater events?",
	})
	if !consumer.process(context.Background(), string(enums.EventContactReceived), payload) {
		t.Fatalf("expected ack")
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "owners@shinwarieats.example" {
		t.Fatalf("contact mail not routed to inbox: %+v", sender.sent)
	}
}
