package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"jobhire/internal/config"
	"jobhire/internal/model"
	"jobhire/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeWebhookRepo is an in-memory WebhookEventRepository enforcing the unique
// event_id constraint the real collection carries.
type fakeWebhookRepo struct {
	events []*model.WebhookEvent
}

func (f *fakeWebhookRepo) Create(_ context.Context, evt *model.WebhookEvent) error {
	for _, e := range f.events {
		if e.EventID == evt.EventID {
			return fmt.Errorf("insert webhook event: %w", repository.ErrDuplicateKey)
		}
	}
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeWebhookRepo) FindByEventID(_ context.Context, eventID string) (*model.WebhookEvent, error) {
	for _, e := range f.events {
		if e.EventID == eventID {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeWebhookRepo) MarkProcessed(_ context.Context, id primitive.ObjectID) error {
	for _, e := range f.events {
		if e.ID == id {
			e.Processed = true
			e.Error = ""
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeWebhookRepo) MarkFailed(_ context.Context, id primitive.ObjectID, errMsg string) error {
	for _, e := range f.events {
		if e.ID == id {
			e.Processed = false
			e.Error = errMsg
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeSubRepo struct {
	subs []*model.Subscription
}

func (f *fakeSubRepo) Create(_ context.Context, sub *model.Subscription) error {
	f.subs = append(f.subs, sub)
	return nil
}

func (f *fakeSubRepo) Update(_ context.Context, sub *model.Subscription) error {
	for i, s := range f.subs {
		if s.ID == sub.ID {
			f.subs[i] = sub
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeSubRepo) FindByID(_ context.Context, id primitive.ObjectID) (*model.Subscription, error) {
	for _, s := range f.subs {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSubRepo) FindByUserID(_ context.Context, userID string) (*model.Subscription, error) {
	for _, s := range f.subs {
		if s.UserID == userID {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSubRepo) FindByStripeSubscriptionID(_ context.Context, id string) (*model.Subscription, error) {
	if id == "" {
		return nil, nil
	}
	for _, s := range f.subs {
		if s.StripeSubscriptionID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSubRepo) FindByStripeCustomerID(_ context.Context, id string) (*model.Subscription, error) {
	if id == "" {
		return nil, nil
	}
	for _, s := range f.subs {
		if s.StripeCustomerID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSubRepo) AddAddon(_ context.Context, userID, addonKey string) error {
	for _, s := range f.subs {
		if s.UserID == userID {
			if !s.HasAddon(addonKey) {
				s.Addons = append(s.Addons, addonKey)
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakePaymentRepo struct {
	payments []*model.Payment
}

func (f *fakePaymentRepo) Create(_ context.Context, p *model.Payment) error {
	f.payments = append(f.payments, p)
	return nil
}

func (f *fakePaymentRepo) Update(_ context.Context, p *model.Payment) error { return nil }

func (f *fakePaymentRepo) FindByID(_ context.Context, id primitive.ObjectID) (*model.Payment, error) {
	return nil, nil
}

func (f *fakePaymentRepo) ListByUser(_ context.Context, userID string, limit int64) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range f.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users []*model.User
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	f.users = append(f.users, u)
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, userID string) (*model.User, error) {
	for _, u := range f.users {
		if u.ID.Hex() == userID {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByStripeCustomerID(_ context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, nil
	}
	for _, u := range f.users {
		if u.StripeCustomerID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) SetStripeCustomerID(_ context.Context, userID, customerID string) error {
	for _, u := range f.users {
		if u.ID.Hex() == userID {
			u.StripeCustomerID = customerID
			return nil
		}
	}
	return repository.ErrNotFound
}

type billingFixture struct {
	svc         BillingService
	webhookRepo *fakeWebhookRepo
	subRepo     *fakeSubRepo
	paymentRepo *fakePaymentRepo
	userRepo    *fakeUserRepo
}

func newBillingFixture() *billingFixture {
	catalog := NewPriceCatalog(&config.Config{
		StripePriceStarterMonthly: "price_starter_m",
		StripePriceStarterYearly:  "price_starter_y",
		StripePriceProMonthly:     "price_pro_m",
		StripePriceProYearly:      "price_pro_y",
		StripePriceProPlusMonthly: "price_proplus_m",
		StripePriceProPlusYearly:  "price_proplus_y",
		StripeAddonPrices:         map[string]string{"coverLetterAddon": "price_addon_cl"},
	})
	f := &billingFixture{
		webhookRepo: &fakeWebhookRepo{},
		subRepo:     &fakeSubRepo{},
		paymentRepo: &fakePaymentRepo{},
		userRepo:    &fakeUserRepo{},
	}
	f.svc = NewBillingService(f.webhookRepo, f.subRepo, f.paymentRepo, f.userRepo, catalog, zerolog.Nop())
	return f
}

func (f *billingFixture) addUser(t *testing.T, email, customerID string) *model.User {
	t.Helper()
	user, err := model.NewUser(email, "Test User")
	require.NoError(t, err)
	user.StripeCustomerID = customerID
	require.NoError(t, f.userRepo.Create(context.Background(), user))
	return user
}

func (f *billingFixture) addSubscription(t *testing.T, user *model.User) *model.Subscription {
	t.Helper()
	sub, err := model.NewSubscription(user.ID.Hex(), user.Email, user.StripeCustomerID)
	require.NoError(t, err)
	require.NoError(t, f.subRepo.Create(context.Background(), sub))
	return sub
}

func TestProcessEventInvoicePaymentSucceeded(t *testing.T) {
	f := newBillingFixture()
	user := f.addUser(t, "jane@example.com", "cus_1")
	sub := f.addSubscription(t, user)
	sub.StripeSubscriptionID = "sub_1"

	raw := json.RawMessage(`{
		"id": "in_1",
		"customer": "cus_1",
		"amount_paid": 2900,
		"currency": "usd",
		"period_end": 1767225600,
		"lines": {"data": [{"subscription": "sub_1"}]}
	}`)
	err := f.svc.ProcessEvent(context.Background(), ProviderEvent{
		ID:   "evt_1",
		Type: model.EventInvoicePaymentSucceeded,
		Raw:  raw,
	})
	require.NoError(t, err)

	require.Len(t, f.paymentRepo.payments, 1)
	p := f.paymentRepo.payments[0]
	assert.Equal(t, 29.00, p.Amount)
	assert.Equal(t, "usd", p.Currency)
	assert.Equal(t, model.PaymentStatusSucceeded, p.Status)
	assert.Equal(t, model.PaymentTypeSubscription, p.PaymentType)
	assert.Equal(t, user.ID.Hex(), p.UserID)

	assert.Equal(t, model.SubscriptionStatusActive, sub.Status)
	require.NotNil(t, sub.LastPaymentDate)
	require.NotNil(t, sub.EndDate)

	rec, err := f.webhookRepo.FindByEventID(context.Background(), "evt_1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Processed)
}

func TestProcessEventReplayIsNoOp(t *testing.T) {
	f := newBillingFixture()
	user := f.addUser(t, "jane@example.com", "cus_1")
	sub := f.addSubscription(t, user)
	sub.StripeSubscriptionID = "sub_1"

	evt := ProviderEvent{
		ID:   "evt_replay",
		Type: model.EventInvoicePaymentSucceeded,
		Raw: json.RawMessage(`{
			"id": "in_1",
			"customer": "cus_1",
			"amount_paid": 2900,
			"currency": "usd",
			"lines": {"data": [{"subscription": "sub_1"}]}
		}`),
	}
	require.NoError(t, f.svc.ProcessEvent(context.Background(), evt))
	require.NoError(t, f.svc.ProcessEvent(context.Background(), evt))

	assert.Len(t, f.paymentRepo.payments, 1)
	assert.Len(t, f.webhookRepo.events, 1)
}

func TestProcessEventPaymentFailedUnknownSubscription(t *testing.T) {
	f := newBillingFixture()

	err := f.svc.ProcessEvent(context.Background(), ProviderEvent{
		ID:   "evt_fail",
		Type: model.EventInvoicePaymentFailed,
		Raw: json.RawMessage(`{
			"id": "in_2",
			"customer": "cus_unknown",
			"amount_due": 4900,
			"currency": "usd",
			"lines": {"data": [{"subscription": "sub_unknown"}]}
		}`),
	})
	require.NoError(t, err)

	require.Len(t, f.paymentRepo.payments, 1)
	assert.Equal(t, model.PaymentStatusFailed, f.paymentRepo.payments[0].Status)
	assert.Equal(t, 49.00, f.paymentRepo.payments[0].Amount)

	require.Len(t, f.subRepo.subs, 1)
	shell := f.subRepo.subs[0]
	assert.Equal(t, model.SubscriptionStatusPastDue, shell.Status)
	assert.Equal(t, "sub_unknown", shell.StripeSubscriptionID)
	assert.Equal(t, "cus_unknown", shell.StripeCustomerID)
	assert.Empty(t, shell.UserID)
}

func TestProcessEventHandlerFailureLeavesEventUnprocessed(t *testing.T) {
	f := newBillingFixture()

	err := f.svc.ProcessEvent(context.Background(), ProviderEvent{
		ID:   "evt_bad",
		Type: model.EventSubscriptionUpdated,
		Raw:  json.RawMessage(`{"customer": "cus_1"}`),
	})
	require.Error(t, err)

	rec, ferr := f.webhookRepo.FindByEventID(context.Background(), "evt_bad")
	require.NoError(t, ferr)
	require.NotNil(t, rec)
	assert.False(t, rec.Processed)
	assert.NotEmpty(t, rec.Error)
}

func TestProcessEventUnhandledTypeIsAcknowledged(t *testing.T) {
	f := newBillingFixture()

	err := f.svc.ProcessEvent(context.Background(), ProviderEvent{
		ID:   "evt_other",
		Type: model.EventType("customer.created"),
		Raw:  json.RawMessage(`{"id": "cus_9"}`),
	})
	require.NoError(t, err)

	rec, ferr := f.webhookRepo.FindByEventID(context.Background(), "evt_other")
	require.NoError(t, ferr)
	require.NotNil(t, rec)
	assert.True(t, rec.Processed)
	assert.Empty(t, f.subRepo.subs)
	assert.Empty(t, f.paymentRepo.payments)
}

func TestProcessEventSubscriptionUpdatedMapsPlanFromPrice(t *testing.T) {
	f := newBillingFixture()
	user := f.addUser(t, "jane@example.com", "cus_1")
	sub := f.addSubscription(t, user)
	sub.StripeSubscriptionID = "sub_1"

	err := f.svc.ProcessEvent(context.Background(), ProviderEvent{
		ID:   "evt_sub_upd",
		Type: model.EventSubscriptionUpdated,
		Raw: json.RawMessage(`{
			"id": "sub_1",
			"customer": "cus_1",
			"status": "active",
			"items": {"data": [{
				"price": {"id": "price_pro_y"},
				"current_period_start": 1764547200,
				"current_period_end": 1796083200
			}]}
		}`),
	})
	require.NoError(t, err)

	assert.Equal(t, model.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, model.PlanPro, sub.Plan)
	assert.Equal(t, model.BillingCycleYearly, sub.BillingCycle)
	require.NotNil(t, sub.StartDate)
	require.NotNil(t, sub.EndDate)
	assert.True(t, sub.EndDate.After(*sub.StartDate))
}

func TestProcessEventSubscriptionCancelAtPeriodEnd(t *testing.T) {
	f := newBillingFixture()
	user := f.addUser(t, "jane@example.com", "cus_1")
	sub := f.addSubscription(t, user)
	sub.StripeSubscriptionID = "sub_1"

	err := f.svc.ProcessEvent(context.Background(), ProviderEvent{
		ID:   "evt_sub_cancel_flag",
		Type: model.EventSubscriptionUpdated,
		Raw: json.RawMessage(`{
			"id": "sub_1",
			"customer": "cus_1",
			"status": "active",
			"cancel_at_period_end": true
		}`),
	})
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusCanceled, sub.Status)
}

func TestProcessEventSubscriptionDeleted(t *testing.T) {
	f := newBillingFixture()
	user := f.addUser(t, "jane@example.com", "cus_1")
	sub := f.addSubscription(t, user)
	sub.StripeSubscriptionID = "sub_1"
	sub.Status = model.SubscriptionStatusActive

	err := f.svc.ProcessEvent(context.Background(), ProviderEvent{
		ID:   "evt_sub_del",
		Type: model.EventSubscriptionDeleted,
		Raw:  json.RawMessage(`{"id": "sub_1", "customer": "cus_1"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, model.SubscriptionStatusCanceled, sub.Status)
	require.NotNil(t, sub.EndDate)
	// Cancellation keeps the record; nothing is deleted.
	assert.Len(t, f.subRepo.subs, 1)
}

func TestProcessEventCheckoutCompletedSubscriptionMode(t *testing.T) {
	f := newBillingFixture()
	user := f.addUser(t, "jane@example.com", "cus_1")
	sub := f.addSubscription(t, user)

	err := f.svc.ProcessEvent(context.Background(), ProviderEvent{
		ID:   "evt_checkout",
		Type: model.EventCheckoutSessionCompleted,
		Raw: json.RawMessage(`{
			"id": "cs_1",
			"customer": "cus_1",
			"subscription": "sub_new",
			"mode": "subscription",
			"metadata": {"user_id": "` + user.ID.Hex() + `", "plan": "pro", "billing_cycle": "monthly"}
		}`),
	})
	require.NoError(t, err)

	assert.Equal(t, model.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, "sub_new", sub.StripeSubscriptionID)
	assert.Equal(t, model.PlanPro, sub.Plan)
	assert.Equal(t, model.BillingCycleMonthly, sub.BillingCycle)
	require.NotNil(t, sub.StartDate)
}

func TestProcessEventAddonCheckout(t *testing.T) {
	f := newBillingFixture()
	user := f.addUser(t, "jane@example.com", "cus_1")
	sub := f.addSubscription(t, user)

	err := f.svc.ProcessEvent(context.Background(), ProviderEvent{
		ID:   "evt_addon",
		Type: model.EventCheckoutSessionCompleted,
		Raw: json.RawMessage(`{
			"id": "cs_addon",
			"customer": "cus_1",
			"mode": "payment",
			"amount_total": 500,
			"currency": "usd",
			"payment_intent": "pi_1",
			"metadata": {"user_id": "` + user.ID.Hex() + `", "product_key": "coverLetterAddon"}
		}`),
	})
	require.NoError(t, err)

	require.Len(t, f.paymentRepo.payments, 1)
	p := f.paymentRepo.payments[0]
	assert.Equal(t, 5.00, p.Amount)
	assert.Equal(t, model.PaymentTypeAddon, p.PaymentType)
	assert.Equal(t, "coverLetterAddon", p.ProductKey)
	assert.Equal(t, "pi_1", p.StripePaymentIntentID)

	assert.True(t, sub.HasAddon("coverLetterAddon"))
}

func TestProcessEventConcurrentDuplicateInsert(t *testing.T) {
	f := newBillingFixture()

	// A concurrent delivery already inserted and processed the record.
	winner, err := model.NewWebhookEvent("evt_race", model.EventInvoicePaymentSucceeded, json.RawMessage(`{}`))
	require.NoError(t, err)
	winner.Processed = true

	raced := &racingWebhookRepo{fakeWebhookRepo: f.webhookRepo, winner: winner}
	svc := NewBillingService(raced, f.subRepo, f.paymentRepo, f.userRepo, NewPriceCatalog(&config.Config{}), zerolog.Nop())

	err = svc.ProcessEvent(context.Background(), ProviderEvent{
		ID:   "evt_race",
		Type: model.EventInvoicePaymentSucceeded,
		Raw:  json.RawMessage(`{"id": "in_r", "customer": "cus_r", "amount_paid": 100, "currency": "usd"}`),
	})
	require.NoError(t, err)
	assert.Empty(t, f.paymentRepo.payments)
}

// racingWebhookRepo simulates losing the insert race: the first Create fails
// with a duplicate key and the winner's record becomes visible.
type racingWebhookRepo struct {
	*fakeWebhookRepo
	winner *model.WebhookEvent
}

func (r *racingWebhookRepo) Create(_ context.Context, evt *model.WebhookEvent) error {
	r.events = append(r.events, r.winner)
	return fmt.Errorf("insert webhook event: %w", repository.ErrDuplicateKey)
}
