package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BySessionToken struct {
	Token string
}

func (s BySessionToken) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_token = ?", s.Token)
}

type ActiveSessions struct{}

func (s ActiveSessions) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = true")
}

// ForChatSession scopes messages to one widget session.
type ForChatSession struct {
	SessionID uuid.UUID
}

func (s ForChatSession) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.SessionID)
}
