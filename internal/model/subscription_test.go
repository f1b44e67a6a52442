package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestNewSubscriptionDefaults(t *testing.T) {
	sub, err := NewSubscription("user_1", "jane@example.com", "cus_1")
	require.NoError(t, err)

	assert.False(t, sub.ID.IsZero())
	assert.Equal(t, SubscriptionStatusFree, sub.Status)
	assert.Equal(t, PlanFree, sub.Plan)
	assert.Equal(t, BillingCycleMonthly, sub.BillingCycle)
	assert.NotNil(t, sub.Addons)
	assert.Empty(t, sub.Addons)
	assert.Equal(t, sub.CreatedAt, sub.UpdatedAt)
	assert.Equal(t, time.UTC, sub.CreatedAt.Location())
}

func TestNewSubscriptionValidation(t *testing.T) {
	_, err := NewSubscription("", "jane@example.com", "cus_1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = NewSubscription("user_1", "", "cus_1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestNewSubscriptionShellRequiresStripeReference(t *testing.T) {
	_, err := NewSubscriptionShell("", "", SubscriptionStatusActive)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	shell, err := NewSubscriptionShell("", "sub_1", SubscriptionStatusPastDue)
	require.NoError(t, err)
	assert.Empty(t, shell.UserID)
	assert.Equal(t, SubscriptionStatusPastDue, shell.Status)
	assert.Equal(t, PlanFree, shell.Plan)
}

func TestSubscriptionHasAddon(t *testing.T) {
	sub, err := NewSubscription("user_1", "jane@example.com", "")
	require.NoError(t, err)

	assert.False(t, sub.HasAddon("coverLetterAddon"))
	sub.Addons = append(sub.Addons, "coverLetterAddon")
	assert.True(t, sub.HasAddon("coverLetterAddon"))
	assert.False(t, sub.HasAddon("resumeCustomizationAddon"))
}

func TestSubscriptionBSONFieldNames(t *testing.T) {
	sub, err := NewSubscription("user_1", "jane@example.com", "cus_1")
	require.NoError(t, err)
	sub.StripeSubscriptionID = "sub_1"

	raw, err := bson.Marshal(sub)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, sub.ID, doc["_id"])
	assert.Equal(t, "user_1", doc["user_id"])
	assert.Equal(t, "free", doc["subscription_status"])
	assert.Equal(t, "free", doc["subscription_plan"])
	assert.Equal(t, "monthly", doc["billing_cycle"])
	assert.Equal(t, "sub_1", doc["stripe_subscription_id"])
	assert.NotContains(t, doc, "subscription_end_date")

	var back Subscription
	require.NoError(t, bson.Unmarshal(raw, &back))
	assert.Equal(t, sub.ID, back.ID)
	assert.Equal(t, sub.Status, back.Status)
	assert.Equal(t, sub.Plan, back.Plan)
}

func TestNewPayment(t *testing.T) {
	p, err := NewPayment("cus_1", 29.00, "usd", PaymentStatusSucceeded, PaymentTypeSubscription)
	require.NoError(t, err)
	assert.False(t, p.ID.IsZero())
	assert.Equal(t, 29.00, p.Amount)
	assert.Equal(t, "usd", p.Currency)

	// Currency defaults when the provider omits it.
	p, err = NewPayment("cus_1", 5, "", PaymentStatusPending, PaymentTypeOneTime)
	require.NoError(t, err)
	assert.Equal(t, "usd", p.Currency)

	_, err = NewPayment("cus_1", -1, "usd", PaymentStatusSucceeded, PaymentTypeSubscription)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestAmountFromMinorUnits(t *testing.T) {
	assert.Equal(t, 29.00, AmountFromMinorUnits(2900))
	assert.Equal(t, 0.99, AmountFromMinorUnits(99))
	assert.Equal(t, 0.0, AmountFromMinorUnits(0))
}

func TestNewWebhookEvent(t *testing.T) {
	evt, err := NewWebhookEvent("evt_1", EventInvoicePaymentSucceeded, json.RawMessage(`{"id":"in_1"}`))
	require.NoError(t, err)
	assert.False(t, evt.Processed)
	assert.Nil(t, evt.ProcessedAt)
	assert.Equal(t, "evt_1", evt.EventID)

	_, err = NewWebhookEvent("", EventInvoicePaymentSucceeded, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = NewWebhookEvent("evt_2", "", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestNewApplicationDefaults(t *testing.T) {
	app, err := NewApplication("user_1", "job_1", "Engineer", "Acme")
	require.NoError(t, err)
	assert.Equal(t, ApplicationStatusMatching, app.Status)
	assert.False(t, app.ID.IsZero())

	_, err = NewApplication("", "job_1", "", "")
	require.Error(t, err)
	_, err = NewApplication("user_1", "", "", "")
	require.Error(t, err)
}

func TestNewUserValidatesEmail(t *testing.T) {
	user, err := NewUser("jane@example.com", "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.False(t, user.AutoApplyEnabled)

	_, err = NewUser("not-an-email", "Jane Doe")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = NewUser("", "Jane Doe")
	require.Error(t, err)
}
