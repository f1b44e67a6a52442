package service

import (
	"context"
	"errors"
	"fmt"

	"jobhire/internal/model"
	"jobhire/internal/repository"

	"github.com/rs/zerolog"
)

// SubscriptionService defines business logic methods for subscriptions.
type SubscriptionService interface {
	GetSubscription(ctx context.Context, userID string) (*model.Subscription, error)
	// EnsureFreeSubscription creates the implicit free-tier subscription a
	// user gets at signup, if none exists yet.
	EnsureFreeSubscription(ctx context.Context, user *model.User) (*model.Subscription, error)
	ListPayments(ctx context.Context, userID string, limit int64) ([]model.Payment, error)
}

type subscriptionService struct {
	subRepo     repository.SubscriptionRepository
	paymentRepo repository.PaymentRepository
	logger      zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionService with a scoped logger.
func NewSubscriptionService(subRepo repository.SubscriptionRepository, paymentRepo repository.PaymentRepository, logger zerolog.Logger) SubscriptionService {
	return &subscriptionService{
		subRepo:     subRepo,
		paymentRepo: paymentRepo,
		logger:      logger.With().Str("service", "SubscriptionService").Logger(),
	}
}

// GetSubscription returns the user's subscription regardless of status, or
// nil when the user has none yet.
func (s *subscriptionService) GetSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	sub, err := s.subRepo.FindByUserID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch subscription")
		return nil, err
	}
	return sub, nil
}

// EnsureFreeSubscription creates the free-tier subscription if the user has
// none. Safe under concurrent signup paths: the unique user_id index turns a
// double create into a refetch.
func (s *subscriptionService) EnsureFreeSubscription(ctx context.Context, user *model.User) (*model.Subscription, error) {
	existing, err := s.subRepo.FindByUserID(ctx, user.ID.Hex())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	sub, err := model.NewSubscription(user.ID.Hex(), user.Email, user.StripeCustomerID)
	if err != nil {
		return nil, err
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return s.subRepo.FindByUserID(ctx, user.ID.Hex())
		}
		s.logger.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Failed to create free subscription")
		return nil, fmt.Errorf("create free subscription: %w", err)
	}
	return sub, nil
}

// ListPayments returns the user's payment history, newest first.
func (s *subscriptionService) ListPayments(ctx context.Context, userID string, limit int64) ([]model.Payment, error) {
	payments, err := s.paymentRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list payments")
		return nil, err
	}
	return payments, nil
}
