package contract

import (
	"context"

	"aidly-widget-be/internal/model"
)

// SystemLogRepository persists audit rows emitted on the in-process event bus.
// It works on the model directly; audit rows have no domain behavior.
type SystemLogRepository interface {
	Create(ctx context.Context, log *model.SystemLog) error
}
