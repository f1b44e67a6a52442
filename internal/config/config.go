package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	MongoURL      string `envconfig:"MONGODB_URL" required:"true"`
	MongoDatabase string `envconfig:"MONGODB_DATABASE" default:"jobhire"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:3001"`

	// Stripe settings
	StripeSecretKey       string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripeWebhookSecret   string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`
	StripePortalReturnURL string `envconfig:"STRIPE_PORTAL_RETURN_URL" default:"http://localhost:3000/settings/billing"`

	// Price catalog: one Stripe price per paid plan and billing cycle,
	// created by cmd/stripe-setup.
	StripePriceStarterMonthly string `envconfig:"STRIPE_STARTER_MONTHLY_PRICE_ID" required:"true"`
	StripePriceStarterYearly  string `envconfig:"STRIPE_STARTER_YEARLY_PRICE_ID" required:"true"`
	StripePriceProMonthly     string `envconfig:"STRIPE_PRO_MONTHLY_PRICE_ID" required:"true"`
	StripePriceProYearly      string `envconfig:"STRIPE_PRO_YEARLY_PRICE_ID" required:"true"`
	StripePriceProPlusMonthly string `envconfig:"STRIPE_PRO_PLUS_MONTHLY_PRICE_ID" required:"true"`
	StripePriceProPlusYearly  string `envconfig:"STRIPE_PRO_PLUS_YEARLY_PRICE_ID" required:"true"`

	// One-time add-on prices keyed by product key, e.g.
	// "coverLetterAddon:price_123,resumeCustomizationAddon:price_456".
	StripeAddonPrices map[string]string `envconfig:"STRIPE_ADDON_PRICE_IDS"`

	// GCP settings (Pub/Sub auto-apply queue, Secret Manager)
	GCPProjectID       string `envconfig:"GCP_PROJECT_ID"`
	AutoApplyTopic     string `envconfig:"AUTO_APPLY_TOPIC" default:"auto_apply_queue"`
	PubSubEmulatorHost string `envconfig:"PUBSUB_EMULATOR_HOST"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
