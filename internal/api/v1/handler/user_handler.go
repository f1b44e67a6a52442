package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"jobhire/internal/api/v1/dto"
	"jobhire/internal/middleware"
	"jobhire/internal/model"
	"jobhire/internal/service"

	"github.com/go-playground/validator/v10"
)

type UserHandler struct {
	userService service.UserService
	secretSvc   service.SecretManagerService
	validate    *validator.Validate
}

func NewUserHandler(userService service.UserService, secretSvc service.SecretManagerService, v *validator.Validate) *UserHandler {
	return &UserHandler{userService: userService, secretSvc: secretSvc, validate: v}
}

// RegisterRoutes mounts v1 user routes
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.HandleFunc("/users/signup", h.signup)
	mux.Handle("/users/me", authMw(http.HandlerFunc(h.getUser)))
	mux.Handle("/users/me/credentials", authMw(http.HandlerFunc(h.handleCredentials)))
}

func (h *UserHandler) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.UserSignupDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.userService.Signup(r.Context(), req.Email, req.FullName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailAlreadyRegistered):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, model.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Failed to create user: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toUserResponse(user))
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(user))
}

func (h *UserHandler) handleCredentials(w http.ResponseWriter, r *http.Request) {
	if h.secretSvc == nil {
		http.Error(w, "credential storage is not configured", http.StatusServiceUnavailable)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodPost, http.MethodPut:
		var req dto.CredentialStoreDTO
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.validate.Struct(&req); err != nil {
			http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.secretSvc.StoreUserCredential(r.Context(), userID, req.Integration, req.Secret); err != nil {
			http.Error(w, "Failed to store credential", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		integration := r.URL.Query().Get("integration")
		if integration == "" {
			http.Error(w, "integration query parameter is required", http.StatusBadRequest)
			return
		}
		if err := h.secretSvc.DeleteUserCredential(r.Context(), userID, integration); err != nil {
			http.Error(w, "Failed to delete credential", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func toUserResponse(user *model.User) dto.UserResponseDTO {
	return dto.UserResponseDTO{
		UserID:           user.ID.Hex(),
		Email:            user.Email,
		FullName:         user.FullName,
		AutoApplyEnabled: user.AutoApplyEnabled,
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
	}
}
