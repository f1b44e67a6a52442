package service

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"jobhire/internal/config"
	"jobhire/internal/model"
	"jobhire/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	billingsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	customerpkg "github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeService manages the outbound Stripe integration and the inbound
// webhook endpoint. All reconciliation state changes go through
// BillingService; this service only talks to the provider.
type StripeService struct {
	cfg        *config.Config
	userRepo   repository.UserRepository
	billingSvc BillingService
	catalog    *PriceCatalog
	logger     zerolog.Logger
}

// NewStripeService initializes the Stripe key and returns the service with a
// scoped logger.
func NewStripeService(cfg *config.Config, userRepo repository.UserRepository, billingSvc BillingService, catalog *PriceCatalog, logger zerolog.Logger) *StripeService {
	stripe.Key = cfg.StripeSecretKey
	lg := logger.With().Str("service", "StripeService").Logger()
	return &StripeService{cfg: cfg, userRepo: userRepo, billingSvc: billingSvc, catalog: catalog, logger: lg}
}

// GetOrCreateCustomer ensures a Stripe customer exists for a user. Customers
// are created at signup, so this mostly covers legacy accounts.
func (s *StripeService) GetOrCreateCustomer(ctx context.Context, user *model.User) (string, error) {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}
	s.logger.Warn().Str("user_id", user.ID.Hex()).Msg("No Stripe customer ID found, creating customer as fallback")
	return s.CreateCustomer(ctx, user)
}

// CreateCustomer creates a new Stripe customer for a user and stores the
// reference.
func (s *StripeService) CreateCustomer(ctx context.Context, user *model.User) (string, error) {
	params := &stripe.CustomerParams{
		Email:    stripe.String(user.Email),
		Name:     stripe.String(user.FullName),
		Metadata: map[string]string{"user_id": user.ID.Hex()},
	}
	cust, err := customerpkg.New(params)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Failed to create Stripe customer")
		return "", fmt.Errorf("create stripe customer: %w: %v", ErrExternalService, err)
	}
	if err := s.userRepo.SetStripeCustomerID(ctx, user.ID.Hex(), cust.ID); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Failed to store stripe customer id")
		return "", fmt.Errorf("store stripe customer id: %w", err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession creates a subscription-mode Checkout session for a
// paid plan and billing cycle.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, userID string, plan model.Plan, cycle model.BillingCycle) (string, error) {
	priceID, ok := s.catalog.PriceFor(plan, cycle)
	if !ok {
		return "", fmt.Errorf("%w: no price configured for plan %s/%s", model.ErrValidation, plan, cycle)
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user for checkout session")
		return "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return "", fmt.Errorf("user not found: %s", userID)
	}
	customerID, err := s.GetOrCreateCustomer(ctx, user)
	if err != nil {
		return "", err
	}
	sessParams := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          []*stripe.CheckoutSessionLineItemParams{{Price: stripe.String(priceID), Quantity: stripe.Int64(1)}},
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:         stripe.String(s.cfg.StripePortalReturnURL + "?status=success"),
		CancelURL:          stripe.String(s.cfg.StripePortalReturnURL + "?status=cancel"),
		Metadata: map[string]string{
			"user_id":       userID,
			"plan":          string(plan),
			"billing_cycle": string(cycle),
		},
	}
	sess, err := checkoutsession.New(sessParams)
	if err != nil {
		s.logger.Error().Err(err).Str("plan", string(plan)).Msg("Failed to create Stripe checkout session")
		return "", fmt.Errorf("create checkout session: %w: %v", ErrExternalService, err)
	}
	return sess.URL, nil
}

// CreateAddonCheckoutSession creates a payment-mode Checkout session for a
// one-time addon purchase.
func (s *StripeService) CreateAddonCheckoutSession(ctx context.Context, userID, productKey string) (string, error) {
	priceID, ok := s.catalog.AddonPrice(productKey)
	if !ok {
		return "", fmt.Errorf("%w: no price configured for addon %s", model.ErrValidation, productKey)
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return "", fmt.Errorf("user not found: %s", userID)
	}
	customerID, err := s.GetOrCreateCustomer(ctx, user)
	if err != nil {
		return "", err
	}
	sessParams := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          []*stripe.CheckoutSessionLineItemParams{{Price: stripe.String(priceID), Quantity: stripe.Int64(1)}},
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(s.cfg.StripePortalReturnURL + "?status=success"),
		CancelURL:          stripe.String(s.cfg.StripePortalReturnURL + "?status=cancel"),
		Metadata: map[string]string{
			"user_id":     userID,
			"product_key": productKey,
		},
	}
	sess, err := checkoutsession.New(sessParams)
	if err != nil {
		s.logger.Error().Err(err).Str("product_key", productKey).Msg("Failed to create addon checkout session")
		return "", fmt.Errorf("create addon checkout session: %w: %v", ErrExternalService, err)
	}
	return sess.URL, nil
}

// CreatePortalSession creates a Stripe Customer Portal session.
func (s *StripeService) CreatePortalSession(ctx context.Context, userID string) (string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user for portal session")
		return "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil || user.StripeCustomerID == "" {
		return "", fmt.Errorf("no stripe customer for user: %s", userID)
	}
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(user.StripeCustomerID),
		ReturnURL: stripe.String(s.cfg.StripePortalReturnURL),
	}
	sess, err := billingsession.New(params)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create Stripe billing portal session")
		return "", fmt.Errorf("create billing portal session: %w: %v", ErrExternalService, err)
	}
	return sess.URL, nil
}

// HandleWebhook verifies the Stripe signature and hands the event to the
// reconciliation workflow. A handler failure returns 500 so Stripe
// redelivers; the event record keeps the error for inspection.
func (s *StripeService) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read Stripe webhook payload")
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}
	sig := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sig, s.cfg.StripeWebhookSecret)
	if err != nil {
		s.logger.Error().Err(err).Msg("Signature verification failed for Stripe webhook")
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}
	s.logger.Info().Str("event_id", event.ID).Str("event_type", string(event.Type)).Msg("Stripe webhook received")

	evt := ProviderEvent{
		ID:   event.ID,
		Type: model.EventType(event.Type),
		Raw:  event.Data.Raw,
	}
	if err := s.billingSvc.ProcessEvent(r.Context(), evt); err != nil {
		http.Error(w, "webhook processing failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
