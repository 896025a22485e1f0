package models

import (
	"time"

	"github.com/google/uuid"
)

// UserDB represents a user record in the database
type UserDB struct {
	UserID       uuid.UUID `json:"user_id" db:"user_id"`       // Primary key
	Username     string    `json:"username" db:"username"`     // Unique username, immutable after creation
	Email        string    `json:"email" db:"email"`           // Optional user email
	PasswordHash string    `json:"-" db:"password_hash"`       // Password digest, never the plaintext
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // Creation timestamp
}
