package handlers

import (
	"net/http"

	"github.com/zlovtnik/gletter/internal/middleware"
	"github.com/zlovtnik/gletter/internal/models"
)

// AuthHandler exposes the identity carried by the caller's token
type AuthHandler struct{}

// NewAuthHandler creates a new auth handler
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "not authenticated")
		return
	}

	resp := map[string]any{
		"user":   claims.User,
		"issuer": claims.Issuer,
		"scope":  claims.Scope,
	}
	if claims.ExpiresAt != nil {
		resp["expires_at"] = claims.ExpiresAt.Time
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse(resp))
}
