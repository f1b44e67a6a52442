package handler

import (
	"encoding/json"
	"net/http"

	"jobhire/internal/api/v1/dto"
	"jobhire/internal/middleware"
	"jobhire/internal/model"
	"jobhire/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// SubscriptionHandler handles subscription and billing endpoints.
type SubscriptionHandler struct {
	stripeSvc *service.StripeService
	subSvc    service.SubscriptionService
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(stripeSvc *service.StripeService, subSvc service.SubscriptionService, v *validator.Validate, logger zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{stripeSvc: stripeSvc, subSvc: subSvc, validate: v, logger: logger}
}

// RegisterRoutes registers the subscription endpoints.
func (h *SubscriptionHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("/subscriptions/me", authMiddleware(http.HandlerFunc(h.Get)))
	mux.Handle("/subscriptions/checkout", authMiddleware(http.HandlerFunc(h.Checkout)))
	mux.Handle("/subscriptions/addons/checkout", authMiddleware(http.HandlerFunc(h.AddonCheckout)))
	mux.Handle("/subscriptions/portal", authMiddleware(http.HandlerFunc(h.Portal)))
	mux.Handle("/subscriptions/payments", authMiddleware(http.HandlerFunc(h.Payments)))
}

// Get godoc
// @Summary Get the authenticated user's subscription
// @Tags subscriptions
// @Produce json
// @Success 200 {object} dto.SubscriptionResponseDTO
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "no subscription"
// @Router /subscriptions/me [get]
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	sub, err := h.subSvc.GetSubscription(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to get subscription")
		http.Error(w, "failed to get subscription", http.StatusInternalServerError)
		return
	}
	if sub == nil {
		http.Error(w, "no subscription", http.StatusNotFound)
		return
	}
	resp := dto.SubscriptionResponseDTO{
		ID:              sub.ID.Hex(),
		Status:          string(sub.Status),
		Plan:            string(sub.Plan),
		BillingCycle:    string(sub.BillingCycle),
		Addons:          sub.Addons,
		StartDate:       sub.StartDate,
		EndDate:         sub.EndDate,
		TrialEndDate:    sub.TrialEndDate,
		LastPaymentDate: sub.LastPaymentDate,
	}
	writeJSON(w, h.logger, resp)
}

// Checkout godoc
// @Summary Initiate a Stripe Checkout session for plan upgrade
// @Description Creates a Stripe Checkout session and returns its URL.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscription body dto.SubscriptionCheckoutRequest true "Subscription checkout request"
// @Success 200 {object} map[string]string "URL of the Stripe Checkout session"
// @Failure 400 {string} string "invalid request payload"
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "failed to create checkout session"
// @Router /subscriptions/checkout [post]
func (h *SubscriptionHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req dto.SubscriptionCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	url, err := h.stripeSvc.CreateCheckoutSession(r.Context(), userID, model.Plan(req.Plan), model.BillingCycle(req.BillingCycle))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create checkout session")
		http.Error(w, "failed to create checkout session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, map[string]string{"url": url})
}

// AddonCheckout godoc
// @Summary Initiate a Stripe Checkout session for a one-time add-on
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param addon body dto.AddonCheckoutRequest true "Add-on checkout request"
// @Success 200 {object} map[string]string "URL of the Stripe Checkout session"
// @Failure 400 {string} string "invalid request payload"
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "failed to create checkout session"
// @Router /subscriptions/addons/checkout [post]
func (h *SubscriptionHandler) AddonCheckout(w http.ResponseWriter, r *http.Request) {
	var req dto.AddonCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	url, err := h.stripeSvc.CreateAddonCheckoutSession(r.Context(), userID, req.ProductKey)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create addon checkout session")
		http.Error(w, "failed to create checkout session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, map[string]string{"url": url})
}

// Portal godoc
// @Summary Create a Stripe Customer Portal session
// @Description Generates a Stripe Customer Portal session URL for the authenticated user.
// @Tags subscriptions
// @Produce json
// @Success 200 {object} map[string]string "URL of the Customer Portal session"
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "failed to create portal session"
// @Router /subscriptions/portal [get]
func (h *SubscriptionHandler) Portal(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	url, err := h.stripeSvc.CreatePortalSession(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create portal session")
		http.Error(w, "failed to create portal session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, map[string]string{"url": url})
}

// Payments godoc
// @Summary List the authenticated user's payment history
// @Tags subscriptions
// @Produce json
// @Success 200 {array} dto.PaymentResponseDTO
// @Failure 401 {string} string "unauthorized"
// @Router /subscriptions/payments [get]
func (h *SubscriptionHandler) Payments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	payments, err := h.subSvc.ListPayments(r.Context(), userID, 50)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list payments")
		http.Error(w, "failed to list payments", http.StatusInternalServerError)
		return
	}
	resp := make([]dto.PaymentResponseDTO, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, dto.PaymentResponseDTO{
			ID:          p.ID.Hex(),
			Amount:      p.Amount,
			Currency:    p.Currency,
			Status:      string(p.Status),
			PaymentType: string(p.PaymentType),
			ProductKey:  p.ProductKey,
			Description: p.Description,
			CreatedAt:   p.CreatedAt,
		})
	}
	writeJSON(w, h.logger, resp)
}

func writeJSON(w http.ResponseWriter, logger zerolog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
