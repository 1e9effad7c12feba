package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Email    string `json:"email" validate:"omitempty,email"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RenewRequest struct {
	RenewalToken string `json:"renewal_token" validate:"required"`
}

type LogoutRequest struct {
	RenewalToken string `json:"renewal_token" validate:"required"`
}

// TokenPairResponse is returned by login and renew; both hand out a fresh
// identity token and a fresh single-use renewal secret.
type TokenPairResponse struct {
	AccessToken  string    `json:"access_token"`
	RenewalToken string    `json:"renewal_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type UserProfileResponse struct {
	Id        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ActiveSessionResponse struct {
	Id        uuid.UUID `json:"id"`
	IpAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
