package mapper

import (
	"aidly-widget-be/internal/entity"
	"aidly-widget-be/internal/model"
)

type BotMapper struct{}

func NewBotMapper() *BotMapper {
	return &BotMapper{}
}

func (m *BotMapper) ToEntity(b *model.Bot) *entity.Bot {
	if b == nil {
		return nil
	}
	return &entity.Bot{
		Id:           b.Id,
		OwnerId:      b.OwnerId,
		WorkspaceId:  b.WorkspaceId,
		Name:         b.Name,
		Description:  b.Description,
		SystemPrompt: b.SystemPrompt,
		IsActive:     b.IsActive,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func (m *BotMapper) ToModel(b *entity.Bot) *model.Bot {
	if b == nil {
		return nil
	}
	return &model.Bot{
		Id:           b.Id,
		OwnerId:      b.OwnerId,
		WorkspaceId:  b.WorkspaceId,
		Name:         b.Name,
		Description:  b.Description,
		SystemPrompt: b.SystemPrompt,
		IsActive:     b.IsActive,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func (m *BotMapper) ToEntities(bots []*model.Bot) []*entity.Bot {
	out := make([]*entity.Bot, 0, len(bots))
	for _, b := range bots {
		out = append(out, m.ToEntity(b))
	}
	return out
}

func (m *BotMapper) WorkspaceToEntity(w *model.Workspace) *entity.Workspace {
	if w == nil {
		return nil
	}
	return &entity.Workspace{
		Id:          w.Id,
		Name:        w.Name,
		Description: w.Description,
		CreatedAt:   w.CreatedAt,
	}
}

func (m *BotMapper) WorkspaceToModel(w *entity.Workspace) *model.Workspace {
	if w == nil {
		return nil
	}
	return &model.Workspace{
		Id:          w.Id,
		Name:        w.Name,
		Description: w.Description,
		CreatedAt:   w.CreatedAt,
	}
}

func (m *BotMapper) WidgetTokenToEntity(t *model.WidgetToken) *entity.WidgetToken {
	if t == nil {
		return nil
	}
	return &entity.WidgetToken{
		Id:         t.Id,
		BotId:      t.BotId,
		OwnerId:    t.OwnerId,
		TokenHash:  t.TokenHash,
		ExpiresAt:  t.ExpiresAt,
		IsActive:   t.IsActive,
		LastUsedAt: t.LastUsedAt,
		CreatedAt:  t.CreatedAt,
	}
}

func (m *BotMapper) WidgetTokenToModel(t *entity.WidgetToken) *model.WidgetToken {
	if t == nil {
		return nil
	}
	return &model.WidgetToken{
		Id:         t.Id,
		BotId:      t.BotId,
		OwnerId:    t.OwnerId,
		TokenHash:  t.TokenHash,
		ExpiresAt:  t.ExpiresAt,
		IsActive:   t.IsActive,
		LastUsedAt: t.LastUsedAt,
		CreatedAt:  t.CreatedAt,
	}
}
