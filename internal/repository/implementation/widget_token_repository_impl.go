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

type WidgetTokenRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BotMapper
}

func NewWidgetTokenRepository(db *gorm.DB) contract.WidgetTokenRepository {
	return &WidgetTokenRepositoryImpl{
		db:     db,
		mapper: mapper.NewBotMapper(),
	}
}

func (r *WidgetTokenRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *WidgetTokenRepositoryImpl) Create(ctx context.Context, t *entity.WidgetToken) error {
	m := r.mapper.WidgetTokenToModel(t)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*t = *r.mapper.WidgetTokenToEntity(m)
	return nil
}

func (r *WidgetTokenRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.WidgetToken, error) {
	var m model.WidgetToken
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.WidgetTokenToEntity(&m), nil
}

func (r *WidgetTokenRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.WidgetToken, error) {
	var ms []*model.WidgetToken
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.WidgetToken, 0, len(ms))
	for _, m := range ms {
		out = append(out, r.mapper.WidgetTokenToEntity(m))
	}
	return out, nil
}

func (r *WidgetTokenRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.WidgetToken{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Deactivate uses the same compare-and-swap shape as renewal rotation: only a
// still-active row matches, so concurrent renewers get exactly one winner.
func (r *WidgetTokenRepositoryImpl) Deactivate(ctx context.Context, tokenHash string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.WidgetToken{}).
		Where("token_hash = ? AND is_active = true", tokenHash).
		Update("is_active", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *WidgetTokenRepositoryImpl) DeactivateById(ctx context.Context, botId, tokenId uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.WidgetToken{}).
		Where("id = ? AND bot_id = ? AND is_active = true", tokenId, botId).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (r *WidgetTokenRepositoryImpl) DeactivateAllForBot(ctx context.Context, botId uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.WidgetToken{}).
		Where("bot_id = ? AND is_active = true", botId).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (r *WidgetTokenRepositoryImpl) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.WidgetToken{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}

func (r *WidgetTokenRepositoryImpl) DeleteTokens(ctx context.Context, specs ...specification.Specification) (int64, error) {
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	res := query.Delete(&model.WidgetToken{})
	return res.RowsAffected, res.Error
}
