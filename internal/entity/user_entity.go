package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

type User struct {
	Id           uuid.UUID
	Username     string
	Email        *string
	PasswordHash string
	IsAdmin      bool
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RenewalToken is the durable side of a renewal secret. Only the sha256 hash
// of the opaque secret is ever stored; the raw value exists in the single
// response that returned it.
type RenewalToken struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	IpAddress string
	UserAgent string
}
