package unitofwork

import (
	"context"

	"aidly-widget-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	BotRepository() contract.BotRepository
	WidgetTokenRepository() contract.WidgetTokenRepository
	ChatSessionRepository() contract.ChatSessionRepository
	MessageRepository() contract.MessageRepository
	SystemLogRepository() contract.SystemLogRepository
}
