package service

import (
	"context"
	"errors"
	"fmt"

	"jobhire/internal/model"
	"jobhire/internal/repository"

	"github.com/rs/zerolog"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
)

// UserService defines business logic methods for user accounts. Signup is
// the moment a user gains a Stripe customer and an implicit free
// subscription.
type UserService interface {
	Signup(ctx context.Context, email, fullName string) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type userService struct {
	userRepo  repository.UserRepository
	subSvc    SubscriptionService
	stripeSvc *StripeService
	logger    zerolog.Logger
}

// NewUserService creates a new UserService with a scoped logger.
func NewUserService(userRepo repository.UserRepository, subSvc SubscriptionService, stripeSvc *StripeService, logger zerolog.Logger) UserService {
	return &userService{
		userRepo:  userRepo,
		subSvc:    subSvc,
		stripeSvc: stripeSvc,
		logger:    logger.With().Str("service", "UserService").Logger(),
	}
}

// Signup creates the user account, its Stripe customer, and the free-tier
// subscription. Customer creation failures do not fail signup; the customer
// is created lazily at first checkout instead.
func (s *userService) Signup(ctx context.Context, email, fullName string) (*model.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}

	user, err := model.NewUser(email, fullName)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if customerID, cerr := s.stripeSvc.CreateCustomer(ctx, user); cerr != nil {
		s.logger.Warn().Err(cerr).Str("user_id", user.ID.Hex()).Msg("Stripe customer creation failed at signup, deferring")
	} else {
		user.StripeCustomerID = customerID
	}

	if _, err := s.subSvc.EnsureFreeSubscription(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Failed to create free subscription at signup")
		return nil, err
	}
	return user, nil
}

// Get returns the user by id.
func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// GetByEmail returns the user by email.
func (s *userService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}
