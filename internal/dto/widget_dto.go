package dto

import (
	"time"

	"github.com/google/uuid"
)

// GenerateWidgetTokenResponse carries the signed widget token plus the embed
// snippet the owner pastes into their site.
type GenerateWidgetTokenResponse struct {
	WidgetToken string    `json:"widget_token"`
	BotId       uuid.UUID `json:"bot_id"`
	BotName     string    `json:"bot_name"`
	ExpiresAt   time.Time `json:"expires_at"`
	EmbedCode   string    `json:"embed_code"`
}

type StartSessionRequest struct {
	VisitorIdentifier string `json:"visitor_identifier" validate:"omitempty,max=128"`
}

type StartSessionResponse struct {
	SessionToken   string    `json:"session_token"`
	BotName        string    `json:"bot_name"`
	WelcomeMessage string    `json:"welcome_message"`
	StartedAt      time.Time `json:"started_at"`
}

type WidgetChatRequest struct {
	SessionToken string `json:"session_token" validate:"required"`
	Message      string `json:"message" validate:"required,max=1000"`
}

type WidgetChatResponse struct {
	Answer    string    `json:"answer"`
	LatencyMs int       `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

type RefreshWidgetTokenRequest struct {
	WidgetToken string `json:"widget_token" validate:"required"`
}

type RefreshWidgetTokenResponse struct {
	WidgetToken string    `json:"widget_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type WidgetTokenInfoResponse struct {
	Id         uuid.UUID  `json:"id"`
	BotId      uuid.UUID  `json:"bot_id"`
	IsActive   bool       `json:"is_active"`
	ExpiresAt  time.Time  `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type SessionInfoResponse struct {
	Id                uuid.UUID `json:"id"`
	SessionToken      string    `json:"session_token"`
	VisitorIdentifier *string   `json:"visitor_identifier,omitempty"`
	StartedAt         time.Time `json:"started_at"`
	LastActivityAt    time.Time `json:"last_activity_at"`
	MessagesCount     int       `json:"messages_count"`
	IsActive          bool      `json:"is_active"`
}
