package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/google/uuid"

	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/logger"
	"habitsAPI/internal/metrics"
	"habitsAPI/internal/types/user"
)

type contextKey string

const UserIDKey contextKey = "userID"
const ClerkIDKey contextKey = "clerkID"

// verifyToken returns the Clerk user id of a valid session token.
var verifyToken = func(ctx context.Context, token string) (string, error) {
	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token})
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ClerkAuthMiddleware validates Clerk JWT tokens and stores the Clerk user id in the context.
func ClerkAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			reject(w, "missing_header", "Authorization header required")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader || token == "" {
			reject(w, "bad_format", "Invalid authorization format. Use 'Bearer <token>'")
			return
		}

		clerkID, err := verifyToken(r.Context(), token)
		if err != nil {
			logger.Debug("token verification failed", "err", err)
			reject(w, "invalid_token", "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClerkID(r.Context(), clerkID)))
	})
}

// UserLookup resolves a Clerk id to a provisioned user.
type UserLookup interface {
	GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error)
}

// UserResolver maps the authenticated Clerk id to the internal user id. It must run
// after ClerkAuthMiddleware.
func UserResolver(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clerkID, ok := GetClerkID(r.Context())
			if !ok {
				reject(w, "missing_identity", "User not authenticated")
				return
			}

			u, err := users.GetUserByClerkID(r.Context(), clerkID)
			if err != nil {
				if apperrors.Is(err, apperrors.ErrNotFound) {
					metrics.AuthRejections.WithLabelValues("unknown_user").Inc()
					respondWithError(w, http.StatusNotFound, "User not found")
					return
				}
				logger.Error("failed to resolve user", "clerk_id", clerkID, "err", err)
				respondWithError(w, http.StatusInternalServerError, "Failed to resolve user")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), u.ID)))
		})
	}
}

func WithClerkID(ctx context.Context, clerkID string) context.Context {
	return context.WithValue(ctx, ClerkIDKey, clerkID)
}

func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

// GetClerkID extracts Clerk user ID from context
func GetClerkID(ctx context.Context) (string, bool) {
	clerkID, ok := ctx.Value(ClerkIDKey).(string)
	return clerkID, ok && clerkID != ""
}

// GetUserID extracts internal user ID from context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

func reject(w http.ResponseWriter, reason, message string) {
	metrics.AuthRejections.WithLabelValues(reason).Inc()
	respondWithError(w, http.StatusUnauthorized, message)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
