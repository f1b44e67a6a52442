package service

import (
	"context"
	"fmt"

	"jobhire/internal/repository"

	"github.com/rs/zerolog"
)

// UserReport summarizes one user's applications for the activity report.
type UserReport struct {
	UserID   string
	Email    string
	Total    int64
	ByStatus []repository.GroupCount
}

// ActivityReport is a snapshot of application activity across the store.
type ActivityReport struct {
	TotalApplications int64
	Users             []UserReport
}

// ReportService builds application activity reports for operator tooling.
type ReportService interface {
	ActivityReport(ctx context.Context, topUsers int) (*ActivityReport, error)
}

type reportService struct {
	appRepo  repository.ApplicationRepository
	userRepo repository.UserRepository
	logger   zerolog.Logger
}

// NewReportService creates a new ReportService with a scoped logger.
func NewReportService(appRepo repository.ApplicationRepository, userRepo repository.UserRepository, logger zerolog.Logger) ReportService {
	return &reportService{
		appRepo:  appRepo,
		userRepo: userRepo,
		logger:   logger.With().Str("service", "ReportService").Logger(),
	}
}

// ActivityReport computes the total application count and, for the top
// topUsers users by application count, a per-status breakdown. topUsers <= 0
// means all users.
func (s *reportService) ActivityReport(ctx context.Context, topUsers int) (*ActivityReport, error) {
	total, err := s.appRepo.TotalCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("total application count: %w", err)
	}
	report := &ActivityReport{TotalApplications: total}

	for gc, err := range s.appRepo.CountByUser(ctx) {
		if err != nil {
			return nil, fmt.Errorf("count applications by user: %w", err)
		}
		if topUsers > 0 && len(report.Users) >= topUsers {
			break
		}
		ur := UserReport{UserID: gc.Key, Total: gc.Count}
		if user, err := s.userRepo.FindByID(ctx, gc.Key); err != nil {
			s.logger.Warn().Err(err).Str("user_id", gc.Key).Msg("Failed to resolve user for report")
		} else if user != nil {
			ur.Email = user.Email
		}
		for sc, err := range s.appRepo.CountByStatus(ctx, gc.Key) {
			if err != nil {
				return nil, fmt.Errorf("count applications by status for user %s: %w", gc.Key, err)
			}
			ur.ByStatus = append(ur.ByStatus, sc)
		}
		report.Users = append(report.Users, ur)
	}
	return report, nil
}
