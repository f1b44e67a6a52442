package model

import (
	"fmt"
	"net/mail"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user account. The users collection is owned by the
// account-management surface; billing and reporting only read it and set the
// Stripe customer reference.
type User struct {
	ID               primitive.ObjectID `bson:"_id" json:"id"`
	Email            string             `bson:"email" json:"email"`
	FullName         string             `bson:"full_name,omitempty" json:"full_name,omitempty"`
	StripeCustomerID string             `bson:"stripe_customer_id,omitempty" json:"stripe_customer_id,omitempty"`
	AutoApplyEnabled bool               `bson:"auto_apply_enabled" json:"auto_apply_enabled"`
	Metadata         map[string]string  `bson:"metadata" json:"metadata"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// NewUser builds a user account with a locally generated identity.
func NewUser(email, fullName string) (*User, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: user requires email", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email %q", ErrValidation, email)
	}
	now := time.Now().UTC()
	return &User{
		ID:        primitive.NewObjectID(),
		Email:     email,
		FullName:  fullName,
		Metadata:  map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
