package models

import (
	"time"

	"github.com/google/uuid"
)

// Organizer is an account that authors templates and controls sessions.
type Organizer struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
