package model

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApplicationStatus tracks a job application through its pipeline.
type ApplicationStatus string

const (
	ApplicationStatusMatching  ApplicationStatus = "matching"
	ApplicationStatusMatched   ApplicationStatus = "matched"
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusApproved  ApplicationStatus = "approved"
	ApplicationStatusApplied   ApplicationStatus = "applied"
	ApplicationStatusCompleted ApplicationStatus = "completed"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
)

// Application is one job application belonging to a user. The collection
// pre-exists this service; reporting aggregates over it and the intake
// endpoint appends to it.
type Application struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	UserID     string             `bson:"user_id" json:"user_id"`
	JobID      string             `bson:"job_id" json:"job_id"`
	JobTitle   string             `bson:"job_title,omitempty" json:"job_title,omitempty"`
	Company    string             `bson:"company,omitempty" json:"company,omitempty"`
	Status     ApplicationStatus  `bson:"status" json:"status"`
	Metadata   map[string]string  `bson:"metadata" json:"metadata"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// NewApplication builds an application in the matching state.
func NewApplication(userID, jobID, jobTitle, company string) (*Application, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: application requires user_id", ErrValidation)
	}
	if jobID == "" {
		return nil, fmt.Errorf("%w: application requires job_id", ErrValidation)
	}
	now := time.Now().UTC()
	return &Application{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		JobID:     jobID,
		JobTitle:  jobTitle,
		Company:   company,
		Status:    ApplicationStatusMatching,
		Metadata:  map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
