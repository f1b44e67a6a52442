package model

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus mirrors the provider's terminal payment states.
type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCanceled  PaymentStatus = "canceled"
)

// PaymentType classifies what a payment was for.
type PaymentType string

const (
	PaymentTypeSubscription PaymentType = "subscription"
	PaymentTypeAddon        PaymentType = "addon"
	PaymentTypeOneTime      PaymentType = "one_time"
)

// Payment is an immutable record of one provider transaction event. Amount is
// in major currency units; provider APIs speak minor units (cents), so callers
// convert before construction.
type Payment struct {
	ID                    primitive.ObjectID `bson:"_id" json:"id"`
	UserID                string             `bson:"user_id" json:"user_id"`
	UserEmail             string             `bson:"user_email" json:"user_email"`
	StripeCustomerID      string             `bson:"stripe_customer_id" json:"stripe_customer_id"`
	StripePaymentIntentID string             `bson:"stripe_payment_intent_id,omitempty" json:"stripe_payment_intent_id,omitempty"`
	StripeSubscriptionID  string             `bson:"stripe_subscription_id,omitempty" json:"stripe_subscription_id,omitempty"`
	Amount                float64            `bson:"amount" json:"amount"`
	Currency              string             `bson:"currency" json:"currency"`
	Status                PaymentStatus      `bson:"status" json:"status"`
	PaymentType           PaymentType        `bson:"payment_type" json:"payment_type"`
	ProductKey            string             `bson:"product_key,omitempty" json:"product_key,omitempty"`
	Description           string             `bson:"description,omitempty" json:"description,omitempty"`
	Metadata              map[string]string  `bson:"metadata" json:"metadata"`
	CreatedAt             time.Time          `bson:"created_at" json:"created_at"`
}

// NewPayment builds a payment record. Amount must already be in major units.
func NewPayment(stripeCustomerID string, amount float64, currency string, status PaymentStatus, paymentType PaymentType) (*Payment, error) {
	if stripeCustomerID == "" {
		return nil, fmt.Errorf("%w: payment requires stripe_customer_id", ErrValidation)
	}
	if amount < 0 {
		return nil, fmt.Errorf("%w: payment amount must not be negative", ErrValidation)
	}
	if currency == "" {
		currency = "usd"
	}
	return &Payment{
		ID:               primitive.NewObjectID(),
		StripeCustomerID: stripeCustomerID,
		Amount:           amount,
		Currency:         currency,
		Status:           status,
		PaymentType:      paymentType,
		Metadata:         map[string]string{},
		CreatedAt:        time.Now().UTC(),
	}, nil
}

// AmountFromMinorUnits converts a provider amount in minor currency units
// (cents) to the major-unit representation stored on Payment.
func AmountFromMinorUnits(minor int64) float64 {
	return float64(minor) / 100
}
