package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BotId             uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_sessions_bot_active"`
	SessionToken      string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	VisitorIdentifier *string   `gorm:"type:varchar(255)"`
	StartedAt         time.Time `gorm:"not null"`
	LastActivityAt    time.Time `gorm:"not null"`
	MessagesCount     int       `gorm:"default:0"`
	IsActive          bool      `gorm:"default:true;index:idx_chat_sessions_bot_active"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
