package mapper

import (
	"aidly-widget-be/internal/entity"
	"aidly-widget-be/internal/model"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}
	return &entity.ChatSession{
		Id:                s.Id,
		BotId:             s.BotId,
		SessionToken:      s.SessionToken,
		VisitorIdentifier: s.VisitorIdentifier,
		StartedAt:         s.StartedAt,
		LastActivityAt:    s.LastActivityAt,
		MessagesCount:     s.MessagesCount,
		IsActive:          s.IsActive,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}
	return &model.ChatSession{
		Id:                s.Id,
		BotId:             s.BotId,
		SessionToken:      s.SessionToken,
		VisitorIdentifier: s.VisitorIdentifier,
		StartedAt:         s.StartedAt,
		LastActivityAt:    s.LastActivityAt,
		MessagesCount:     s.MessagesCount,
		IsActive:          s.IsActive,
	}
}

func (m *ChatMapper) ChatSessionsToEntities(sessions []*model.ChatSession) []*entity.ChatSession {
	out := make([]*entity.ChatSession, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, m.ChatSessionToEntity(s))
	}
	return out
}

func (m *ChatMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	return &entity.Message{
		Id:            msg.Id,
		Question:      msg.Question,
		Answer:        msg.Answer,
		LatencyMs:     msg.LatencyMs,
		UserId:        msg.UserId,
		ChatSessionId: msg.ChatSessionId,
		CreatedAt:     msg.CreatedAt,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	return &model.Message{
		Id:            msg.Id,
		Question:      msg.Question,
		Answer:        msg.Answer,
		LatencyMs:     msg.LatencyMs,
		UserId:        msg.UserId,
		ChatSessionId: msg.ChatSessionId,
		CreatedAt:     msg.CreatedAt,
	}
}
