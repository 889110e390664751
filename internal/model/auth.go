package model

import (
	"time"

	"github.com/google/uuid"
)

type TokenClaims struct {
	UserID uuid.UUID
	Email  string
	Role   UserRole
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}
