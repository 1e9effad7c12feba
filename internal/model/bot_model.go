package model

import (
	"time"

	"github.com/google/uuid"
)

type Workspace struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Workspace) TableName() string {
	return "workspaces"
}

type Bot struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerId      uuid.UUID `gorm:"type:uuid;not null;index"`
	WorkspaceId  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name         string    `gorm:"type:varchar(200);not null"`
	Description  *string   `gorm:"type:text"`
	SystemPrompt *string   `gorm:"type:text"`
	IsActive     bool      `gorm:"default:true"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (Bot) TableName() string {
	return "bots"
}

type WidgetToken struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BotId      uuid.UUID `gorm:"type:uuid;not null;index:idx_widget_tokens_bot_active"`
	OwnerId    uuid.UUID `gorm:"type:uuid;not null;index"`
	TokenHash  string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	ExpiresAt  time.Time `gorm:"not null;index"`
	IsActive   bool      `gorm:"default:true;index:idx_widget_tokens_bot_active"`
	LastUsedAt *time.Time
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (WidgetToken) TableName() string {
	return "widget_tokens"
}
