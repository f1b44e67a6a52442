package dto

import "time"

// ApplicationCreateDTO is used for incoming application intake requests
type ApplicationCreateDTO struct {
	JobID    string `json:"job_id" validate:"required"`
	JobTitle string `json:"job_title"`
	Company  string `json:"company"`
}

// ApplicationResponseDTO is returned in API responses for applications
type ApplicationResponseDTO struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	JobTitle  string    `json:"job_title,omitempty"`
	Company   string    `json:"company,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
