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

type UserRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserRepository(db *gorm.DB) contract.UserRepository {
	return &UserRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *UserRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entity.User) error {
	m := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(m)
	return nil
}

func (r *UserRepositoryImpl) Update(ctx context.Context, user *entity.User) error {
	m := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(m)
	return nil
}

func (r *UserRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var m model.User
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *UserRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.User{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UserRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("status", status).Error
}

// Renewal token implementations

func (r *UserRepositoryImpl) CreateRenewalToken(ctx context.Context, t *entity.RenewalToken) error {
	m := r.mapper.RenewalTokenToModel(t)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*t = *r.mapper.RenewalTokenToEntity(m)
	return nil
}

func (r *UserRepositoryImpl) FindRenewalToken(ctx context.Context, specs ...specification.Specification) (*entity.RenewalToken, error) {
	var m model.RenewalToken
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.RenewalTokenToEntity(&m), nil
}

func (r *UserRepositoryImpl) FindRenewalTokens(ctx context.Context, specs ...specification.Specification) ([]*entity.RenewalToken, error) {
	var ms []*model.RenewalToken
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.RenewalToken, 0, len(ms))
	for _, m := range ms {
		out = append(out, r.mapper.RenewalTokenToEntity(m))
	}
	return out, nil
}

// RevokeRenewalToken is the compare-and-swap at the heart of rotation: the
// WHERE clause only matches a still-active row, so of two concurrent callers
// exactly one observes RowsAffected == 1.
func (r *UserRepositoryImpl) RevokeRenewalToken(ctx context.Context, tokenHash string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.RenewalToken{}).
		Where("token_hash = ? AND revoked = false", tokenHash).
		Update("revoked", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *UserRepositoryImpl) RevokeAllRenewalTokens(ctx context.Context, userId uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.RenewalToken{}).
		Where("user_id = ? AND revoked = false", userId).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}

// Janitor support

func (r *UserRepositoryImpl) DeleteRenewalTokens(ctx context.Context, specs ...specification.Specification) (int64, error) {
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	res := query.Delete(&model.RenewalToken{})
	return res.RowsAffected, res.Error
}

func (r *UserRepositoryImpl) DeleteInactiveRenewalTokens(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("revoked = true AND created_at < ?", before).
		Delete(&model.RenewalToken{})
	return res.RowsAffected, res.Error
}

func (r *UserRepositoryImpl) ListUserIdsWithRenewalTokens(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.RenewalToken{}).
		Distinct("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

// DeleteRenewalTokensOlderThanNth keeps the user's `keep` most recent active
// rows and deletes the rest, bounding per-user token buildup.
func (r *UserRepositoryImpl) DeleteRenewalTokensOlderThanNth(ctx context.Context, userId uuid.UUID, keep int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		DELETE FROM renewal_tokens
		WHERE user_id = ? AND revoked = false AND id NOT IN (
			SELECT id FROM renewal_tokens
			WHERE user_id = ? AND revoked = false
			ORDER BY created_at DESC
			LIMIT ?
		)
	`, userId, userId, keep)
	return res.RowsAffected, res.Error
}
