package model

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventType identifies a provider webhook event kind. Reconciliation
// dispatches exhaustively on the handled set; anything else is acknowledged
// without state changes.
type EventType string

const (
	EventCheckoutSessionCompleted EventType = "checkout.session.completed"
	EventSubscriptionCreated      EventType = "customer.subscription.created"
	EventSubscriptionUpdated      EventType = "customer.subscription.updated"
	EventSubscriptionDeleted      EventType = "customer.subscription.deleted"
	EventInvoicePaymentSucceeded  EventType = "invoice.payment_succeeded"
	EventInvoicePaymentFailed     EventType = "invoice.payment_failed"
)

// WebhookEvent is the audit record of one provider delivery. EventID is
// externally unique (enforced by a unique index); replaying the same event id
// is a no-op once Processed is set. Events are never deleted.
type WebhookEvent struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	EventID     string             `bson:"event_id" json:"event_id"`
	EventType   EventType          `bson:"event_type" json:"event_type"`
	Data        json.RawMessage    `bson:"event_data" json:"event_data"`
	Processed   bool               `bson:"processed" json:"processed"`
	ProcessedAt *time.Time         `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
	Error       string             `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// NewWebhookEvent records a freshly received provider event. The raw payload
// is stored verbatim for audit and replay.
func NewWebhookEvent(eventID string, eventType EventType, data json.RawMessage) (*WebhookEvent, error) {
	if eventID == "" {
		return nil, fmt.Errorf("%w: webhook event requires event_id", ErrValidation)
	}
	if eventType == "" {
		return nil, fmt.Errorf("%w: webhook event requires event_type", ErrValidation)
	}
	return &WebhookEvent{
		ID:        primitive.NewObjectID(),
		EventID:   eventID,
		EventType: eventType,
		Data:      data,
		Processed: false,
		CreatedAt: time.Now().UTC(),
	}, nil
}
