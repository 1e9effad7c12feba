package contract

import (
	"context"

	"aidly-widget-be/internal/entity"
	"aidly-widget-be/internal/repository/specification"

	"github.com/google/uuid"
)

type BotRepository interface {
	Create(ctx context.Context, bot *entity.Bot) error
	Update(ctx context.Context, bot *entity.Bot) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Bot, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Bot, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	UpdateActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Workspaces (owned here: every bot lives in exactly one workspace)
	CreateWorkspace(ctx context.Context, ws *entity.Workspace) error
	FindWorkspace(ctx context.Context, specs ...specification.Specification) (*entity.Workspace, error)
}
