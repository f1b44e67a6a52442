package model

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusFree     SubscriptionStatus = "free"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
)

// Plan identifies a subscription tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanStarter Plan = "starter"
	PlanPro     Plan = "pro"
	PlanProPlus Plan = "pro-plus"
)

// BillingCycle is the renewal interval of a paid plan.
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

// Subscription is the per-user billing record. A user has exactly one
// subscription document; cancellation is a status change, never a delete.
type Subscription struct {
	ID                   primitive.ObjectID `bson:"_id" json:"id"`
	UserID               string             `bson:"user_id" json:"user_id"`
	UserEmail            string             `bson:"user_email" json:"user_email"`
	StripeCustomerID     string             `bson:"stripe_customer_id" json:"stripe_customer_id"`
	StripeSubscriptionID string             `bson:"stripe_subscription_id,omitempty" json:"stripe_subscription_id,omitempty"`
	Status               SubscriptionStatus `bson:"subscription_status" json:"subscription_status"`
	Plan                 Plan               `bson:"subscription_plan" json:"subscription_plan"`
	BillingCycle         BillingCycle       `bson:"billing_cycle" json:"billing_cycle"`
	Addons               []string           `bson:"addons" json:"addons"`
	StartDate            *time.Time         `bson:"subscription_start_date,omitempty" json:"subscription_start_date,omitempty"`
	EndDate              *time.Time         `bson:"subscription_end_date,omitempty" json:"subscription_end_date,omitempty"`
	TrialEndDate         *time.Time         `bson:"trial_end_date,omitempty" json:"trial_end_date,omitempty"`
	LastPaymentDate      *time.Time         `bson:"last_payment_date,omitempty" json:"last_payment_date,omitempty"`
	Metadata             map[string]string  `bson:"metadata" json:"metadata"`
	CreatedAt            time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time          `bson:"updated_at" json:"updated_at"`
}

// NewSubscription builds a free-tier subscription for a user. The identity is
// generated locally so the entity is complete before any persistence call.
func NewSubscription(userID, userEmail, stripeCustomerID string) (*Subscription, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: subscription requires user_id", ErrValidation)
	}
	if userEmail == "" {
		return nil, fmt.Errorf("%w: subscription requires user_email", ErrValidation)
	}
	now := time.Now().UTC()
	return &Subscription{
		ID:               primitive.NewObjectID(),
		UserID:           userID,
		UserEmail:        userEmail,
		StripeCustomerID: stripeCustomerID,
		Status:           SubscriptionStatusFree,
		Plan:             PlanFree,
		BillingCycle:     BillingCycleMonthly,
		Addons:           []string{},
		Metadata:         map[string]string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// NewSubscriptionShell builds a minimal subscription for a provider reference
// the system has no record of yet. Webhook deliveries can race ahead of
// signup, so reconciliation must be able to persist what it knows.
func NewSubscriptionShell(stripeCustomerID, stripeSubscriptionID string, status SubscriptionStatus) (*Subscription, error) {
	if stripeCustomerID == "" && stripeSubscriptionID == "" {
		return nil, fmt.Errorf("%w: subscription shell requires a stripe reference", ErrValidation)
	}
	now := time.Now().UTC()
	return &Subscription{
		ID:                   primitive.NewObjectID(),
		StripeCustomerID:     stripeCustomerID,
		StripeSubscriptionID: stripeSubscriptionID,
		Status:               status,
		Plan:                 PlanFree,
		BillingCycle:         BillingCycleMonthly,
		Addons:               []string{},
		Metadata:             map[string]string{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// HasAddon reports whether the addon key is attached to the subscription.
func (s *Subscription) HasAddon(key string) bool {
	for _, a := range s.Addons {
		if a == key {
			return true
		}
	}
	return false
}
