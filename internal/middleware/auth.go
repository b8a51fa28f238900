package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zlovtnik/gletter/internal/models"
	"github.com/zlovtnik/gletter/pkg/auth"
)

type contextKey string

const (
	contextKeyUser      contextKey = "user"
	contextKeyClaims    contextKey = "claims"
	contextKeyRequestID contextKey = "request_id"

	// HTTP header constants
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"

	errCodeUnauthorized = "UNAUTHORIZED"
	errCodeForbidden    = "FORBIDDEN"
)

// AuthMiddleware validates bearer tokens.
// This is a thin HTTP wrapper that delegates token validation to pkg/auth.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, errCodeUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeJSONError(w, http.StatusUnauthorized, errCodeUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := auth.ValidateToken(parts[1], jwtSecret)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, errCodeUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyUser, claims.User)
			ctx = context.WithValue(ctx, contextKeyClaims, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope rejects requests whose token does not grant scope. It must run
// inside AuthMiddleware.
func RequireScope(scope string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserClaims(r.Context())
		if claims == nil || !claims.Allows(scope) {
			writeJSONError(w, http.StatusForbidden, errCodeForbidden, "token does not allow "+scope)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUser retrieves the user from context
func GetUser(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyUser).(string); ok {
		return v
	}
	return ""
}

// GetUserClaims retrieves the full claims from context
func GetUserClaims(ctx context.Context) *auth.Claims {
	if v, ok := ctx.Value(contextKeyClaims).(*auth.Claims); ok {
		return v
	}
	return nil
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse(code, message, nil))
}
