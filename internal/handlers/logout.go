package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/avdeevko/cropguard/internal/logger"
	"github.com/avdeevko/cropguard/internal/middlewares"
)

// Logouter defines the interface that the logout service must implement.
type Logouter interface {
	Logout(ctx context.Context, sessionID uuid.UUID) error
}

// LogoutResponse represents a successful logout response
// swagger:model LogoutResponse
type LogoutResponse struct {
	// Success message
	// example: Logged out
	Message string `json:"message"`
}

// LogoutErrorResponse represents an error response for logout
// swagger:model LogoutErrorResponse
type LogoutErrorResponse struct {
	// Error message
	// example: Internal server error
	Error string `json:"error"`
}

// NewLogoutHandler returns an HTTP handler that revokes the current session.
// Logging out an already revoked session succeeds.
// @Summary Log out
// @Description Revokes the session carried by the request token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} handlers.LogoutResponse "Session revoked"
// @Failure 401 {object} handlers.LogoutErrorResponse "Unauthorized"
// @Router /logout [post]
func NewLogoutHandler(svc Logouter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		session := middlewares.SessionFromContext(r.Context())
		if session == nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(LogoutErrorResponse{Error: "Unauthorized"})
			return
		}

		if err := svc.Logout(r.Context(), session.SessionID); err != nil {
			logger.Log.Errorw("internal server error", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(LogoutErrorResponse{Error: "Internal server error"})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(LogoutResponse{Message: "Logged out"})
	}
}
