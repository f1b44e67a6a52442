package dto

import "time"

// PaymentResponseDTO is returned in API responses for payment history
type PaymentResponseDTO struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	PaymentType string    `json:"payment_type"`
	ProductKey  string    `json:"product_key,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
