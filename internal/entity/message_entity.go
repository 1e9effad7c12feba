package entity

import (
	"time"

	"github.com/google/uuid"
)

// Message records one question/answer exchange. UserId is set for platform
// users, ChatSessionId for widget visitors; the two are never both set, which
// is how shared storage distinguishes the trust domains.
type Message struct {
	Id            uuid.UUID
	Question      string
	Answer        string
	LatencyMs     int
	UserId        *uuid.UUID
	ChatSessionId *uuid.UUID
	CreatedAt     time.Time
}
