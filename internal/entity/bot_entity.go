package entity

import (
	"time"

	"github.com/google/uuid"
)

type Workspace struct {
	Id          uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
}

type Bot struct {
	Id           uuid.UUID
	OwnerId      uuid.UUID
	WorkspaceId  uuid.UUID
	Name         string
	Description  *string
	SystemPrompt *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WidgetToken stores the hash of a signed widget token. OwnerId is
// denormalized from the bot so ownership checks skip a join.
type WidgetToken struct {
	Id         uuid.UUID
	BotId      uuid.UUID
	OwnerId    uuid.UUID
	TokenHash  string
	ExpiresAt  time.Time
	IsActive   bool
	LastUsedAt *time.Time
	CreatedAt  time.Time
}
