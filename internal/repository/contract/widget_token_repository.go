package contract

import (
	"context"
	"time"

	"aidly-widget-be/internal/entity"
	"aidly-widget-be/internal/repository/specification"

	"github.com/google/uuid"
)

type WidgetTokenRepository interface {
	Create(ctx context.Context, t *entity.WidgetToken) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.WidgetToken, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.WidgetToken, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// Deactivate flips is_active on the row matching the hash only if it is
	// still active; reports whether this caller performed the flip.
	Deactivate(ctx context.Context, tokenHash string) (bool, error)
	DeactivateById(ctx context.Context, botId, tokenId uuid.UUID) (int64, error)
	DeactivateAllForBot(ctx context.Context, botId uuid.UUID) (int64, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error

	// Janitor support
	DeleteTokens(ctx context.Context, specs ...specification.Specification) (int64, error)
}
