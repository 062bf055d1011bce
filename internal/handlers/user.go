package handlers

import (
	"net/http"

	"spot-booking-backend/internal/services"
)

// UserHandler handles signup and login
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Signup handles POST /api/v1/users
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in services.SignupInput
	if err := decodeJSON(r, &in); err != nil {
		respondAppError(w, r, err, "signup")
		return
	}

	result, err := h.userService.Signup(r.Context(), in)
	if err != nil {
		respondAppError(w, r, err, "signup")
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

type loginRequest struct {
	Credential string `json:"credential"`
	Password   string `json:"password"`
}

// Login handles POST /api/v1/session
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err, "login")
		return
	}

	result, err := h.userService.Login(r.Context(), req.Credential, req.Password)
	if err != nil {
		respondAppError(w, r, err, "login")
		return
	}
	respondJSON(w, http.StatusOK, result)
}
