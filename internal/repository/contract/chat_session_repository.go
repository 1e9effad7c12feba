package contract

import (
	"context"
	"time"

	"aidly-widget-be/internal/entity"
	"aidly-widget-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// Touch bumps last_activity_at and the message counter. Best effort: the
	// counter is observability, not a correctness invariant.
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	DeactivateAllForBot(ctx context.Context, botId uuid.UUID) (int64, error)
	DeactivateIdleBefore(ctx context.Context, botId uuid.UUID, cutoff time.Time) (int64, error)
}
