package dto

import "time"

// SubscriptionCheckoutRequest is used for incoming plan checkout requests
type SubscriptionCheckoutRequest struct {
	Plan         string `json:"plan" validate:"required,oneof=starter pro pro-plus"`
	BillingCycle string `json:"billing_cycle" validate:"required,oneof=monthly yearly"`
}

// AddonCheckoutRequest is used for incoming add-on checkout requests
type AddonCheckoutRequest struct {
	ProductKey string `json:"product_key" validate:"required"`
}

// SubscriptionResponseDTO is returned in API responses for subscriptions
type SubscriptionResponseDTO struct {
	ID              string     `json:"id"`
	Status          string     `json:"subscription_status"`
	Plan            string     `json:"subscription_plan"`
	BillingCycle    string     `json:"billing_cycle,omitempty"`
	Addons          []string   `json:"addons"`
	StartDate       *time.Time `json:"subscription_start_date,omitempty"`
	EndDate         *time.Time `json:"subscription_end_date,omitempty"`
	TrialEndDate    *time.Time `json:"trial_end_date,omitempty"`
	LastPaymentDate *time.Time `json:"last_payment_date,omitempty"`
}
