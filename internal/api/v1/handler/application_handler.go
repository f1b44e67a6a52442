package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"jobhire/internal/api/v1/dto"
	"jobhire/internal/middleware"
	"jobhire/internal/model"
	"jobhire/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ApplicationHandler handles job-application endpoints.
type ApplicationHandler struct {
	appSvc   service.ApplicationService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewApplicationHandler creates a new ApplicationHandler.
func NewApplicationHandler(appSvc service.ApplicationService, v *validator.Validate, logger zerolog.Logger) *ApplicationHandler {
	return &ApplicationHandler{appSvc: appSvc, validate: v, logger: logger}
}

// RegisterRoutes mounts v1 application routes
func (h *ApplicationHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/applications", authMw(http.HandlerFunc(h.handleApplications)))
}

func (h *ApplicationHandler) handleApplications(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createApplication(w, r)
	case http.MethodGet:
		h.listApplications(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ApplicationHandler) createApplication(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.ApplicationCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	app, err := h.appSvc.Create(r.Context(), userID, req.JobID, req.JobTitle, req.Company)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error().Err(err).Msg("failed to create application")
		http.Error(w, "Failed to create application", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toApplicationResponse(app))
}

func (h *ApplicationHandler) listApplications(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	limit := int64(50)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.ParseInt(limitStr, 10, 64); err == nil && l > 0 {
			limit = l
		}
	}

	apps, err := h.appSvc.ListByUser(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list applications")
		http.Error(w, "Failed to retrieve applications", http.StatusInternalServerError)
		return
	}

	resp := make([]dto.ApplicationResponseDTO, 0, len(apps))
	for _, app := range apps {
		resp = append(resp, toApplicationResponse(&app))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func toApplicationResponse(app *model.Application) dto.ApplicationResponseDTO {
	return dto.ApplicationResponseDTO{
		ID:        app.ID.Hex(),
		JobID:     app.JobID,
		JobTitle:  app.JobTitle,
		Company:   app.Company,
		Status:    string(app.Status),
		CreatedAt: app.CreatedAt,
		UpdatedAt: app.UpdatedAt,
	}
}
