package dto

import "time"

// UserSignupDTO is used for incoming signup requests
type UserSignupDTO struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name"`
}

// CredentialStoreDTO is used for storing an auto-apply integration credential
type CredentialStoreDTO struct {
	Integration string `json:"integration" validate:"required,alphanum"`
	Secret      string `json:"secret" validate:"required"`
}

// UserResponseDTO is returned in API responses
type UserResponseDTO struct {
	UserID           string    `json:"user_id"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	AutoApplyEnabled bool      `json:"auto_apply_enabled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
