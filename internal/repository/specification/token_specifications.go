package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByTokenHash matches the one-way hash column; raw secrets never reach a query.
type ByTokenHash struct {
	Hash string
}

func (s ByTokenHash) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("token_hash = ?", s.Hash)
}

// ActiveRenewals matches renewal rows that have not been rotated or revoked.
type ActiveRenewals struct{}

func (s ActiveRenewals) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("revoked = false")
}

// ActiveWidgetTokens matches live widget token rows.
type ActiveWidgetTokens struct{}

func (s ActiveWidgetTokens) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = true")
}

// ForBot scopes widget tokens or chat sessions to one bot.
type ForBot struct {
	BotID uuid.UUID
}

func (s ForBot) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("bot_id = ?", s.BotID)
}

// ActiveBots filters on the bot soft-activation flag.
type ActiveBots struct{}

func (s ActiveBots) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

// OwnedByOwner uses the denormalized owner column on widget tokens and bots.
type OwnedByOwner struct {
	OwnerID uuid.UUID
}

func (s OwnedByOwner) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("owner_id = ?", s.OwnerID)
}
