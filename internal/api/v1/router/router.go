package router

import (
	"context"
	"net/http"
	"strings"

	"jobhire/internal/api/v1/handler"
	"jobhire/internal/config"
	"jobhire/internal/middleware"
	"jobhire/internal/pubsub"
	"jobhire/internal/repository"
	"jobhire/internal/service"
	"jobhire/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *storage.Store, error) {
	logger.Info().Msg("Router initialized")
	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")

	// 1. Connect to MongoDB and ensure indexes
	store, err := storage.Connect(context.Background(), cfg)
	if err != nil {
		logger.Fatal().Msgf("Failed to connect to MongoDB: %v", err)
		return nil, nil, err
	}
	logger.Info().Str("database", cfg.MongoDatabase).Msg("Database connection successful")

	// 2. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 3. Initialize Pub/Sub publisher
	pubSubPublisher, err := pubsub.NewPublisher(context.Background(), cfg)
	if err != nil {
		logger.Fatal().Msgf("Failed to create Pub/Sub publisher: %v", err)
		return nil, nil, err
	}

	// 4. Initialize repositories & services & handlers
	userRepo := repository.NewUserRepo(store)
	subRepo := repository.NewSubscriptionRepo(store)
	paymentRepo := repository.NewPaymentRepo(store)
	webhookRepo := repository.NewWebhookEventRepo(store)
	appRepo := repository.NewApplicationRepo(store)

	catalog := service.NewPriceCatalog(cfg)
	billingSvc := service.NewBillingService(webhookRepo, subRepo, paymentRepo, userRepo, catalog, logger)
	stripeSvc := service.NewStripeService(cfg, userRepo, billingSvc, catalog, logger)
	subSvc := service.NewSubscriptionService(subRepo, paymentRepo, logger)
	userSvc := service.NewUserService(userRepo, subSvc, stripeSvc, logger)
	appSvc := service.NewApplicationService(appRepo, pubSubPublisher, cfg.AutoApplyTopic, logger)

	secretSvc, err := service.NewSecretManagerService(context.Background(), cfg)
	if err != nil {
		logger.Warn().Msgf("Secret Manager unavailable, credential endpoints disabled: %v", err)
	}

	userHandler := handler.NewUserHandler(userSvc, secretSvc, validate)
	subHandler := handler.NewSubscriptionHandler(stripeSvc, subSvc, validate, logger)
	appHandler := handler.NewApplicationHandler(appSvc, validate, logger)

	// 5. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)

	// 6. Create ServeMux router
	mux := http.NewServeMux()

	// Create a subrouter for API v1 with the /v1 prefix
	apiV1Mux := http.NewServeMux()
	userHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	subHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	appHandler.RegisterRoutes(apiV1Mux, authMiddleware)

	// Stripe calls this endpoint directly; it authenticates via the webhook
	// signature, not a bearer token.
	apiV1Mux.HandleFunc("/webhooks/stripe", stripeSvc.HandleWebhook)

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// Redirect all other root-level requests to /v1/{path}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/v1"+r.URL.Path, http.StatusMovedPermanently)
	})

	// 7. Apply CORS middleware
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		Debug:            false,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), store, nil
}
