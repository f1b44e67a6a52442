package service

import (
	"context"
	"encoding/json"
	"fmt"

	"jobhire/internal/model"
	"jobhire/internal/pubsub"
	"jobhire/internal/repository"

	"github.com/rs/zerolog"
)

// AutoApplyTask is the message published to the auto-apply queue when a new
// application is taken in. The queue workers themselves live outside this
// service.
type AutoApplyTask struct {
	ApplicationID string `json:"application_id"`
	UserID        string `json:"user_id"`
	JobID         string `json:"job_id"`
}

// ApplicationService handles job-application intake and listing.
type ApplicationService interface {
	Create(ctx context.Context, userID, jobID, jobTitle, company string) (*model.Application, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]model.Application, error)
}

type applicationService struct {
	appRepo   repository.ApplicationRepository
	publisher pubsub.Publisher
	topic     string
	logger    zerolog.Logger
}

// NewApplicationService creates a new ApplicationService with a scoped logger.
func NewApplicationService(appRepo repository.ApplicationRepository, publisher pubsub.Publisher, topic string, logger zerolog.Logger) ApplicationService {
	return &applicationService{
		appRepo:   appRepo,
		publisher: publisher,
		topic:     topic,
		logger:    logger.With().Str("service", "ApplicationService").Logger(),
	}
}

// Create persists the application and enqueues an auto-apply task. A publish
// failure does not undo the write; the application stays in matching state
// and can be re-enqueued.
func (s *applicationService) Create(ctx context.Context, userID, jobID, jobTitle, company string) (*model.Application, error) {
	app, err := model.NewApplication(userID, jobID, jobTitle, company)
	if err != nil {
		return nil, err
	}
	if err := s.appRepo.Create(ctx, app); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("job_id", jobID).Msg("Failed to create application")
		return nil, fmt.Errorf("create application: %w", err)
	}

	task := AutoApplyTask{ApplicationID: app.ID.Hex(), UserID: userID, JobID: jobID}
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("marshal auto-apply task: %w", err)
	}
	if _, err := s.publisher.Publish(ctx, s.topic, payload); err != nil {
		s.logger.Error().Err(err).Str("application_id", app.ID.Hex()).Msg("Failed to enqueue auto-apply task")
	}
	return app, nil
}

// ListByUser returns the user's applications, newest first.
func (s *applicationService) ListByUser(ctx context.Context, userID string, limit int64) ([]model.Application, error) {
	apps, err := s.appRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list applications")
		return nil, err
	}
	return apps, nil
}
