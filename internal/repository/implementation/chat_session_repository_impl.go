package implementation

import (
	"context"
	"errors"
	"time"

	"aidly-widget-be/internal/entity"
	"aidly-widget-be/internal/mapper"
	"aidly-widget-be/internal/model"
	"aidly-widget-be/internal/repository/contract"
	"aidly-widget-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatSessionRepository(db *gorm.DB) contract.ChatSessionRepository {
	return &ChatSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatSessionRepositoryImpl) Create(ctx context.Context, session *entity.ChatSession) error {
	m := r.mapper.ChatSessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ChatSessionToEntity(m)
	return nil
}

func (r *ChatSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	var m model.ChatSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatSessionToEntity(&m), nil
}

func (r *ChatSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	var ms []*model.ChatSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.mapper.ChatSessionsToEntities(ms), nil
}

func (r *ChatSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ChatSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChatSessionRepositoryImpl) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.ChatSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_activity_at": at,
			"messages_count":   gorm.Expr("messages_count + 1"),
		}).Error
}

func (r *ChatSessionRepositoryImpl) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.ChatSession{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

func (r *ChatSessionRepositoryImpl) DeactivateAllForBot(ctx context.Context, botId uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.ChatSession{}).
		Where("bot_id = ? AND is_active = true", botId).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// DeactivateIdleBefore expires sessions whose last activity predates the
// cutoff. Called under the per-bot start lock so capacity checks stay exact.
func (r *ChatSessionRepositoryImpl) DeactivateIdleBefore(ctx context.Context, botId uuid.UUID, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.ChatSession{}).
		Where("bot_id = ? AND is_active = true AND last_activity_at < ?", botId, cutoff).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}
