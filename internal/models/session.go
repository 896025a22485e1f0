package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a process-local record of an authenticated user.
// It is created on successful login, revoked on logout, and never persisted
// beyond the configured session store.
type Session struct {
	SessionID uuid.UUID `json:"session_id"` // Unique session identifier, carried inside the JWT
	Username  string    `json:"username"`   // Authenticated username
	CreatedAt time.Time `json:"created_at"` // Login time
	ExpiresAt time.Time `json:"expires_at"` // Hard expiry, matches the JWT exp claim
}
