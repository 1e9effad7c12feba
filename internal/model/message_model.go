package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Question      string     `gorm:"type:text;not null"`
	Answer        string     `gorm:"type:text;not null"`
	LatencyMs     int        `gorm:"default:0"`
	UserId        *uuid.UUID `gorm:"type:uuid;index"`
	ChatSessionId *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index"`
}

func (Message) TableName() string {
	return "messages"
}
