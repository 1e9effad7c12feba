package contract

import (
	"context"
	"time"

	"aidly-widget-be/internal/entity"
	"aidly-widget-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	// Renewal token management (kept here for cohesion with the owning user)
	CreateRenewalToken(ctx context.Context, t *entity.RenewalToken) error
	FindRenewalToken(ctx context.Context, specs ...specification.Specification) (*entity.RenewalToken, error)

	// RevokeRenewalToken flips revoked on the row matching the hash only if it
	// is still active, reporting whether this caller won the race. This is the
	// single-winner guarantee under concurrent rotation.
	RevokeRenewalToken(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllRenewalTokens(ctx context.Context, userId uuid.UUID) (int64, error)

	// Janitor support
	DeleteRenewalTokens(ctx context.Context, specs ...specification.Specification) (int64, error)
	FindRenewalTokens(ctx context.Context, specs ...specification.Specification) ([]*entity.RenewalToken, error)
	DeleteRenewalTokensOlderThanNth(ctx context.Context, userId uuid.UUID, keep int) (int64, error)
	ListUserIdsWithRenewalTokens(ctx context.Context) ([]uuid.UUID, error)
	DeleteInactiveRenewalTokens(ctx context.Context, before time.Time) (int64, error)
}
