package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"nutrition-tracker-backend/internal/services"

	"github.com/rs/zerolog/log"
)

type contextKey string

const userIDKey contextKey = "user_id"

// TokenValidator resolves a bearer token to the ID of an existing user
type TokenValidator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

var _ TokenValidator = (*services.UserService)(nil)

// AuthMiddleware rejects requests without a valid bearer token and puts the
// user ID on the request context
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				respondError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" || strings.Contains(token, " ") {
				respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			userID, err := validator.Authenticate(r.Context(), token)
			switch {
			case errors.Is(err, services.ErrUnknownUser):
				respondError(w, "Unknown user", http.StatusUnauthorized)
				return
			case errors.Is(err, services.ErrInvalidToken):
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			case err != nil:
				log.Error().Err(err).Msg("Failed to verify user")
				respondError(w, "Failed to verify user", http.StatusServiceUnavailable)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a context carrying the authenticated user ID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ValidateWebSocketToken validates the token passed as a query parameter,
// since browsers cannot set headers on the upgrade request
func ValidateWebSocketToken(ctx context.Context, token string, validator TokenValidator) (string, error) {
	if token == "" {
		return "", errors.New("token required")
	}
	return validator.Authenticate(ctx, token)
}
