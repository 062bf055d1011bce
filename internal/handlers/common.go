package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"spot-booking-backend/internal/apperrors"

	"github.com/rs/zerolog/hlog"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors,omitempty"`
}

// MessageResponse acknowledges a delete
type MessageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondAppError maps an error to its status and body. Internal errors are
// logged and reported without detail.
func respondAppError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Kind == apperrors.KindInternal {
		hlog.FromRequest(r).Error().Err(err).Str("action", action).Msg("Request failed")
		respondError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, appErr.Status(), ErrorResponse{Error: appErr.Message, Errors: appErr.Fields})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.NewValidationError("Invalid request body", nil)
	}
	return nil
}

func deleted(w http.ResponseWriter) {
	respondJSON(w, http.StatusOK, MessageResponse{Message: "Successfully deleted"})
}
