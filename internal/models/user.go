package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors the identity provider's subject: the provider uid is reused
// as the primary key and a row is created on first sign-in by the sync step.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
