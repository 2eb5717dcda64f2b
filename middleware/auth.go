package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2/jwt"

	"yumyumCoachAPI/internal/metrics"
)

type contextKey string

const ClerkIDKey contextKey = "clerkID"

// TokenVerifier checks a bearer token and returns the user id it was issued for.
type TokenVerifier func(ctx context.Context, token string) (string, error)

// ClerkVerifier verifies session tokens against the Clerk instance configured
// with clerk.SetKey.
func ClerkVerifier(ctx context.Context, token string) (string, error) {
	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{
		Token: token,
	})
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ClerkAuthMiddleware validates Clerk JWT tokens and puts the user id on the context.
func ClerkAuthMiddleware(next http.Handler) http.Handler {
	return AuthMiddleware(ClerkVerifier)(next)
}

func AuthMiddleware(verify TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				metrics.AuthRejections.WithLabelValues("missing_header").Inc()
				respondWithError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader || token == "" {
				metrics.AuthRejections.WithLabelValues("bad_format").Inc()
				respondWithError(w, http.StatusUnauthorized, "Invalid authorization format. Use 'Bearer <token>'")
				return
			}

			userID, err := verify(r.Context(), token)
			if err != nil || userID == "" {
				log.Printf("Token verification failed: %v", err)
				metrics.AuthRejections.WithLabelValues("invalid_token").Inc()
				respondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClerkID(r.Context(), userID)))
		})
	}
}

func WithClerkID(ctx context.Context, clerkID string) context.Context {
	return context.WithValue(ctx, ClerkIDKey, clerkID)
}

// GetClerkID extracts Clerk user ID from context
func GetClerkID(ctx context.Context) (string, bool) {
	clerkID, ok := ctx.Value(ClerkIDKey).(string)
	return clerkID, ok && clerkID != ""
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
