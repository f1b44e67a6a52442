package main

import (
	"fmt"
	"strings"

	"jobhire/internal/logger"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/price"
	"github.com/stripe/stripe-go/v82/product"
)

// planDef describes one paid tier to provision in Stripe. Yearly pricing is
// ten months for the price of twelve.
type planDef struct {
	key          string
	name         string
	monthlyCents int64
}

var plans = []planDef{
	{key: "starter", name: "Starter Plan", monthlyCents: 2900},
	{key: "pro", name: "Pro Plan", monthlyCents: 4900},
	{key: "pro-plus", name: "Pro Plus Plan", monthlyCents: 9900},
}

func main() {
	// Initialize logger
	logger := logger.New()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	// This tool runs before the price catalog exists, so it only needs the
	// API key rather than the full application config.
	var cfg struct {
		StripeSecretKey string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	}
	if err := envconfig.Process("", &cfg); err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}
	stripe.Key = cfg.StripeSecretKey

	fmt.Println("# Add these to your .env file:")
	for _, plan := range plans {
		prod, err := product.New(&stripe.ProductParams{
			Name:     stripe.String(plan.name),
			Metadata: map[string]string{"plan": plan.key},
		})
		if err != nil {
			logger.Fatal().Msgf("Failed to create product %s: %v", plan.key, err)
		}
		logger.Info().Str("product_id", prod.ID).Str("plan", plan.key).Msg("Product created")

		monthly, err := newRecurringPrice(prod.ID, plan.monthlyCents, "month")
		if err != nil {
			logger.Fatal().Msgf("Failed to create monthly price for %s: %v", plan.key, err)
		}
		yearly, err := newRecurringPrice(prod.ID, plan.monthlyCents*10, "year")
		if err != nil {
			logger.Fatal().Msgf("Failed to create yearly price for %s: %v", plan.key, err)
		}

		envKey := strings.ToUpper(strings.ReplaceAll(plan.key, "-", "_"))
		fmt.Printf("STRIPE_%s_MONTHLY_PRICE_ID=%s\n", envKey, monthly.ID)
		fmt.Printf("STRIPE_%s_YEARLY_PRICE_ID=%s\n", envKey, yearly.ID)
	}
}

func newRecurringPrice(productID string, cents int64, interval string) (*stripe.Price, error) {
	return price.New(&stripe.PriceParams{
		Product:    stripe.String(productID),
		UnitAmount: stripe.Int64(cents),
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(interval),
		},
	})
}
