package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobhire/internal/model"
	"jobhire/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
)

// ProviderEvent is the shape the reconciliation workflow consumes: the
// provider's event id, its type, and the raw object payload verbatim.
type ProviderEvent struct {
	ID   string
	Type model.EventType
	Raw  json.RawMessage
}

// BillingService reconciles provider webhook events into durable state,
// exactly once per distinct event id.
type BillingService interface {
	ProcessEvent(ctx context.Context, evt ProviderEvent) error
}

type billingService struct {
	webhookRepo repository.WebhookEventRepository
	subRepo     repository.SubscriptionRepository
	paymentRepo repository.PaymentRepository
	userRepo    repository.UserRepository
	catalog     *PriceCatalog
	logger      zerolog.Logger
}

// NewBillingService creates a BillingService with a scoped logger.
func NewBillingService(
	webhookRepo repository.WebhookEventRepository,
	subRepo repository.SubscriptionRepository,
	paymentRepo repository.PaymentRepository,
	userRepo repository.UserRepository,
	catalog *PriceCatalog,
	logger zerolog.Logger,
) BillingService {
	return &billingService{
		webhookRepo: webhookRepo,
		subRepo:     subRepo,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		catalog:     catalog,
		logger:      logger.With().Str("service", "BillingService").Logger(),
	}
}

// ProcessEvent applies one provider event. Replays of an already-processed
// event id are a no-op. A handler failure is recorded on the event record
// and returned, leaving the event unprocessed so provider redelivery (or a
// manual replay) retries it; the event itself is never discarded.
func (s *billingService) ProcessEvent(ctx context.Context, evt ProviderEvent) error {
	rec, err := s.webhookRepo.FindByEventID(ctx, evt.ID)
	if err != nil {
		return fmt.Errorf("lookup webhook event %s: %w", evt.ID, err)
	}
	if rec != nil && rec.Processed {
		s.logger.Info().Str("event_id", evt.ID).Msg("Webhook event already processed, skipping")
		return nil
	}

	if rec == nil {
		rec, err = model.NewWebhookEvent(evt.ID, evt.Type, evt.Raw)
		if err != nil {
			return err
		}
		if err := s.webhookRepo.Create(ctx, rec); err != nil {
			if !errors.Is(err, repository.ErrDuplicateKey) {
				return fmt.Errorf("record webhook event %s: %w", evt.ID, err)
			}
			// Concurrent delivery won the insert under the unique
			// event_id index; defer to the winner.
			rec, err = s.webhookRepo.FindByEventID(ctx, evt.ID)
			if err != nil {
				return fmt.Errorf("lookup webhook event %s after duplicate insert: %w", evt.ID, err)
			}
			if rec == nil || rec.Processed {
				s.logger.Info().Str("event_id", evt.ID).Msg("Concurrent delivery already handled event")
				return nil
			}
		}
	}

	if err := s.dispatch(ctx, evt); err != nil {
		s.logger.Error().Err(err).Str("event_id", evt.ID).Str("event_type", string(evt.Type)).Msg("Webhook handler failed")
		if markErr := s.webhookRepo.MarkFailed(ctx, rec.ID, err.Error()); markErr != nil {
			s.logger.Error().Err(markErr).Str("event_id", evt.ID).Msg("Failed to record webhook handler error")
		}
		return err
	}

	if err := s.webhookRepo.MarkProcessed(ctx, rec.ID); err != nil {
		return fmt.Errorf("mark webhook event %s processed: %w", evt.ID, err)
	}
	s.logger.Info().Str("event_id", evt.ID).Str("event_type", string(evt.Type)).Msg("Webhook event processed")
	return nil
}

// dispatch routes the event to its handler. The handled set is closed; any
// other event type is acknowledged without state changes.
func (s *billingService) dispatch(ctx context.Context, evt ProviderEvent) error {
	switch evt.Type {
	case model.EventCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(ctx, evt.Raw)
	case model.EventSubscriptionCreated, model.EventSubscriptionUpdated:
		return s.handleSubscriptionChanged(ctx, evt.Raw)
	case model.EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, evt.Raw)
	case model.EventInvoicePaymentSucceeded:
		return s.handleInvoice(ctx, evt.Raw, true)
	case model.EventInvoicePaymentFailed:
		return s.handleInvoice(ctx, evt.Raw, false)
	default:
		s.logger.Debug().Str("event_type", string(evt.Type)).Msg("Ignoring unhandled webhook event type")
		return nil
	}
}

// subscriptionStatus maps the provider's subscription state onto the closed
// status set. A subscription scheduled to cancel at period end is already
// treated as canceled.
func subscriptionStatus(ss *stripe.Subscription) model.SubscriptionStatus {
	if ss.CancelAtPeriodEnd || ss.Status == stripe.SubscriptionStatusCanceled {
		return model.SubscriptionStatusCanceled
	}
	switch ss.Status {
	case stripe.SubscriptionStatusActive:
		return model.SubscriptionStatusActive
	case stripe.SubscriptionStatusTrialing:
		return model.SubscriptionStatusTrialing
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid,
		stripe.SubscriptionStatusIncomplete, stripe.SubscriptionStatusIncompleteExpired:
		return model.SubscriptionStatusPastDue
	default:
		return model.SubscriptionStatusActive
	}
}

func (s *billingService) handleSubscriptionChanged(ctx context.Context, raw json.RawMessage) error {
	var ss stripe.Subscription
	if err := json.Unmarshal(raw, &ss); err != nil {
		return fmt.Errorf("unmarshal subscription payload: %w", err)
	}
	if ss.ID == "" {
		return fmt.Errorf("subscription payload has no id")
	}

	customerID := ""
	if ss.Customer != nil {
		customerID = ss.Customer.ID
	}

	sub, err := s.resolveSubscription(ctx, ss.ID, customerID)
	if err != nil {
		return err
	}
	if sub == nil {
		// Provider events can race ahead of signup; persist what we know.
		sub, err = model.NewSubscriptionShell(customerID, ss.ID, subscriptionStatus(&ss))
		if err != nil {
			return err
		}
		s.attachUser(ctx, sub, customerID)
		s.applyProviderState(sub, &ss)
		if err := s.subRepo.Create(ctx, sub); err != nil {
			return fmt.Errorf("create subscription shell for %s: %w", ss.ID, err)
		}
		s.logger.Warn().Str("stripe_subscription_id", ss.ID).Msg("Created subscription shell for unknown provider reference")
		return nil
	}

	s.applyProviderState(sub, &ss)
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("update subscription %s: %w", ss.ID, err)
	}
	return nil
}

func (s *billingService) handleSubscriptionDeleted(ctx context.Context, raw json.RawMessage) error {
	var ss stripe.Subscription
	if err := json.Unmarshal(raw, &ss); err != nil {
		return fmt.Errorf("unmarshal subscription payload: %w", err)
	}
	if ss.ID == "" {
		return fmt.Errorf("subscription payload has no id")
	}

	customerID := ""
	if ss.Customer != nil {
		customerID = ss.Customer.ID
	}
	now := time.Now().UTC()

	sub, err := s.resolveSubscription(ctx, ss.ID, customerID)
	if err != nil {
		return err
	}
	if sub == nil {
		sub, err = model.NewSubscriptionShell(customerID, ss.ID, model.SubscriptionStatusCanceled)
		if err != nil {
			return err
		}
		sub.EndDate = &now
		s.attachUser(ctx, sub, customerID)
		if err := s.subRepo.Create(ctx, sub); err != nil {
			return fmt.Errorf("create canceled subscription shell for %s: %w", ss.ID, err)
		}
		return nil
	}

	sub.Status = model.SubscriptionStatusCanceled
	sub.EndDate = &now
	sub.UpdatedAt = now
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("cancel subscription %s: %w", ss.ID, err)
	}
	return nil
}

func (s *billingService) handleInvoice(ctx context.Context, raw json.RawMessage, succeeded bool) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(raw, &invoice); err != nil {
		return fmt.Errorf("unmarshal invoice payload: %w", err)
	}

	customerID := ""
	if invoice.Customer != nil {
		customerID = invoice.Customer.ID
	}
	if customerID == "" {
		return fmt.Errorf("invoice %s has no customer reference", invoice.ID)
	}

	var subID string
	if invoice.Lines != nil {
		for _, line := range invoice.Lines.Data {
			if line.Subscription != nil && line.Subscription.ID != "" {
				subID = line.Subscription.ID
				break
			}
		}
	}

	// Amounts arrive in minor units; Payment stores major units.
	minor := invoice.AmountPaid
	status := model.PaymentStatusSucceeded
	if !succeeded {
		minor = invoice.AmountDue
		status = model.PaymentStatusFailed
	}

	paymentType := model.PaymentTypeOneTime
	if subID != "" {
		paymentType = model.PaymentTypeSubscription
	}
	productKey := invoice.Metadata["product_key"]
	if productKey != "" {
		paymentType = model.PaymentTypeAddon
	}

	payment, err := model.NewPayment(customerID, model.AmountFromMinorUnits(minor), string(invoice.Currency), status, paymentType)
	if err != nil {
		return err
	}
	payment.StripeSubscriptionID = subID
	payment.ProductKey = productKey
	payment.Description = fmt.Sprintf("invoice %s", invoice.ID)
	if user, uerr := s.userRepo.FindByStripeCustomerID(ctx, customerID); uerr == nil && user != nil {
		payment.UserID = user.ID.Hex()
		payment.UserEmail = user.Email
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return fmt.Errorf("record payment for invoice %s: %w", invoice.ID, err)
	}

	if subID == "" {
		// One-time invoice; nothing to reconcile against a subscription.
		return nil
	}

	subStatus := model.SubscriptionStatusActive
	if !succeeded {
		subStatus = model.SubscriptionStatusPastDue
	}
	now := time.Now().UTC()

	sub, err := s.resolveSubscription(ctx, subID, customerID)
	if err != nil {
		return err
	}
	if sub == nil {
		sub, err = model.NewSubscriptionShell(customerID, subID, subStatus)
		if err != nil {
			return err
		}
		if succeeded {
			sub.LastPaymentDate = &now
		}
		s.attachUser(ctx, sub, customerID)
		if err := s.subRepo.Create(ctx, sub); err != nil {
			return fmt.Errorf("create subscription shell for %s: %w", subID, err)
		}
		s.logger.Warn().Str("stripe_subscription_id", subID).Msg("Created subscription shell from invoice event")
		return nil
	}

	sub.Status = subStatus
	sub.StripeSubscriptionID = subID
	if succeeded {
		sub.LastPaymentDate = &now
	}
	if invoice.PeriodEnd > 0 {
		end := time.Unix(invoice.PeriodEnd, 0).UTC()
		sub.EndDate = &end
	}
	sub.UpdatedAt = now
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("update subscription %s from invoice: %w", subID, err)
	}
	return nil
}

func (s *billingService) handleCheckoutCompleted(ctx context.Context, raw json.RawMessage) error {
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(raw, &cs); err != nil {
		return fmt.Errorf("unmarshal checkout session payload: %w", err)
	}

	customerID := ""
	if cs.Customer != nil {
		customerID = cs.Customer.ID
	}
	userID := cs.Metadata["user_id"]
	if userID == "" && customerID != "" {
		if user, err := s.userRepo.FindByStripeCustomerID(ctx, customerID); err == nil && user != nil {
			userID = user.ID.Hex()
		}
	}

	if cs.Mode == stripe.CheckoutSessionModePayment {
		return s.handleAddonCheckout(ctx, &cs, userID, customerID)
	}

	subID := ""
	if cs.Subscription != nil {
		subID = cs.Subscription.ID
	}
	if subID == "" {
		return fmt.Errorf("checkout session %s has no subscription reference", cs.ID)
	}

	now := time.Now().UTC()
	sub, err := s.resolveSubscription(ctx, subID, customerID)
	if err != nil {
		return err
	}
	if sub == nil && userID != "" {
		sub, err = s.subRepo.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}
	}
	if sub == nil {
		sub, err = model.NewSubscriptionShell(customerID, subID, model.SubscriptionStatusActive)
		if err != nil {
			return err
		}
		s.attachUser(ctx, sub, customerID)
		s.applyCheckoutMetadata(sub, cs.Metadata)
		sub.StartDate = &now
		if err := s.subRepo.Create(ctx, sub); err != nil {
			return fmt.Errorf("create subscription from checkout %s: %w", cs.ID, err)
		}
		return nil
	}

	sub.Status = model.SubscriptionStatusActive
	sub.StripeSubscriptionID = subID
	if customerID != "" {
		sub.StripeCustomerID = customerID
	}
	s.applyCheckoutMetadata(sub, cs.Metadata)
	if sub.StartDate == nil {
		sub.StartDate = &now
	}
	sub.UpdatedAt = now
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("update subscription from checkout %s: %w", cs.ID, err)
	}
	return nil
}

// handleAddonCheckout records a one-time addon purchase and attaches the
// addon key to the user's subscription.
func (s *billingService) handleAddonCheckout(ctx context.Context, cs *stripe.CheckoutSession, userID, customerID string) error {
	productKey := cs.Metadata["product_key"]
	if productKey == "" {
		s.logger.Info().Str("checkout_session_id", cs.ID).Msg("Payment-mode checkout without product_key, skipping")
		return nil
	}
	if customerID == "" {
		return fmt.Errorf("checkout session %s has no customer reference", cs.ID)
	}

	payment, err := model.NewPayment(customerID, model.AmountFromMinorUnits(cs.AmountTotal), string(cs.Currency), model.PaymentStatusSucceeded, model.PaymentTypeAddon)
	if err != nil {
		return err
	}
	payment.ProductKey = productKey
	payment.Description = fmt.Sprintf("addon %s", productKey)
	if cs.PaymentIntent != nil {
		payment.StripePaymentIntentID = cs.PaymentIntent.ID
	}
	if user, uerr := s.userRepo.FindByStripeCustomerID(ctx, customerID); uerr == nil && user != nil {
		payment.UserID = user.ID.Hex()
		payment.UserEmail = user.Email
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return fmt.Errorf("record addon payment for %s: %w", cs.ID, err)
	}

	if userID == "" {
		s.logger.Warn().Str("checkout_session_id", cs.ID).Msg("Addon purchase without resolvable user, payment recorded only")
		return nil
	}
	if err := s.subRepo.AddAddon(ctx, userID, productKey); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("attach addon %s for user %s: %w", productKey, userID, err)
		}
		// No subscription yet; attach the addon to a fresh free-tier record.
		user, uerr := s.userRepo.FindByID(ctx, userID)
		if uerr != nil || user == nil {
			return fmt.Errorf("attach addon %s: user %s not found", productKey, userID)
		}
		sub, serr := model.NewSubscription(userID, user.Email, customerID)
		if serr != nil {
			return serr
		}
		sub.Addons = append(sub.Addons, productKey)
		if cerr := s.subRepo.Create(ctx, sub); cerr != nil {
			return fmt.Errorf("create subscription for addon purchase: %w", cerr)
		}
	}
	return nil
}

// resolveSubscription finds the subscription for a provider reference, first
// by subscription id, then by customer id, then via the user record.
func (s *billingService) resolveSubscription(ctx context.Context, stripeSubID, customerID string) (*model.Subscription, error) {
	sub, err := s.subRepo.FindByStripeSubscriptionID(ctx, stripeSubID)
	if err != nil || sub != nil {
		return sub, err
	}
	if customerID == "" {
		return nil, nil
	}
	sub, err = s.subRepo.FindByStripeCustomerID(ctx, customerID)
	if err != nil || sub != nil {
		return sub, err
	}
	user, err := s.userRepo.FindByStripeCustomerID(ctx, customerID)
	if err != nil || user == nil {
		return nil, err
	}
	return s.subRepo.FindByUserID(ctx, user.ID.Hex())
}

// attachUser fills user references on a subscription when the customer is
// known locally. Best effort; a shell without a user is still persisted.
func (s *billingService) attachUser(ctx context.Context, sub *model.Subscription, customerID string) {
	if customerID == "" {
		return
	}
	user, err := s.userRepo.FindByStripeCustomerID(ctx, customerID)
	if err != nil || user == nil {
		return
	}
	sub.UserID = user.ID.Hex()
	sub.UserEmail = user.Email
}

// applyProviderState copies status, plan, cycle and period dates from the
// provider subscription object.
func (s *billingService) applyProviderState(sub *model.Subscription, ss *stripe.Subscription) {
	now := time.Now().UTC()
	sub.Status = subscriptionStatus(ss)
	sub.StripeSubscriptionID = ss.ID
	if ss.Customer != nil && ss.Customer.ID != "" {
		sub.StripeCustomerID = ss.Customer.ID
	}
	if ss.Items != nil && len(ss.Items.Data) > 0 {
		item := ss.Items.Data[0]
		if item.Price != nil {
			if pp, ok := s.catalog.PlanForPrice(item.Price.ID); ok {
				sub.Plan = pp.Plan
				sub.BillingCycle = pp.Cycle
			}
		}
		if item.CurrentPeriodStart > 0 {
			start := time.Unix(item.CurrentPeriodStart, 0).UTC()
			sub.StartDate = &start
		}
		if item.CurrentPeriodEnd > 0 {
			end := time.Unix(item.CurrentPeriodEnd, 0).UTC()
			sub.EndDate = &end
		}
	}
	if ss.TrialEnd > 0 {
		trialEnd := time.Unix(ss.TrialEnd, 0).UTC()
		sub.TrialEndDate = &trialEnd
	}
	sub.UpdatedAt = now
}

// applyCheckoutMetadata reads the plan and cycle the checkout session was
// created with.
func (s *billingService) applyCheckoutMetadata(sub *model.Subscription, metadata map[string]string) {
	if plan := metadata["plan"]; plan != "" {
		sub.Plan = model.Plan(plan)
	}
	if cycle := metadata["billing_cycle"]; cycle != "" {
		sub.BillingCycle = model.BillingCycle(cycle)
	}
}
