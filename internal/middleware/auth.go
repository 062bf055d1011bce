package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"spot-booking-backend/internal/models"

	"github.com/rs/zerolog/hlog"
)

type contextKey string

const principalKey contextKey = "principal"

// TokenValidator resolves a bearer token to a user ID
type TokenValidator interface {
	ValidateJWT(token string) (string, error)
}

// AuthMiddleware creates a middleware for JWT authentication. Requests
// without a valid bearer token are rejected with 401.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			userID, err := validator.ValidateJWT(parts[1])
			if err != nil {
				hlog.FromRequest(r).Debug().Err(err).Msg("Rejected token")
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := WithPrincipal(r.Context(), models.Principal{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithPrincipal stores the principal on the context
func WithPrincipal(ctx context.Context, principal models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// GetPrincipal extracts the principal from context; it is anonymous when absent
func GetPrincipal(ctx context.Context) models.Principal {
	principal, ok := ctx.Value(principalKey).(models.Principal)
	if !ok {
		return models.Principal{}
	}
	return principal
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
