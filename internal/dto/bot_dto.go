package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateBotRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=100"`
	Description  string `json:"description" validate:"omitempty,max=500"`
	SystemPrompt string `json:"system_prompt" validate:"omitempty,max=4000"`
}

type UpdateBotRequest struct {
	Name         string `json:"name" validate:"omitempty,min=1,max=100"`
	Description  string `json:"description" validate:"omitempty,max=500"`
	SystemPrompt string `json:"system_prompt" validate:"omitempty,max=4000"`
}

type SetBotActiveRequest struct {
	IsActive bool `json:"is_active"`
}

type BotResponse struct {
	Id            uuid.UUID `json:"id"`
	WorkspaceId   uuid.UUID `json:"workspace_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	SystemPrompt  string    `json:"system_prompt,omitempty"`
	IsActive      bool      `json:"is_active"`
	TotalSessions int64     `json:"total_sessions"`
	ActiveTokens  int64     `json:"active_tokens"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type WorkspaceResponse struct {
	Id        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
