package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession is one anonymous visitor conversation scoped to a single bot.
// SessionToken is the opaque handle handed to the widget; it carries no claims.
type ChatSession struct {
	Id                uuid.UUID
	BotId             uuid.UUID
	SessionToken      string
	VisitorIdentifier *string
	StartedAt         time.Time
	LastActivityAt    time.Time
	MessagesCount     int
	IsActive          bool
}
