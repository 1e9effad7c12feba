package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"aidly-widget-be/internal/apperr"
	"aidly-widget-be/internal/constant"
	"aidly-widget-be/internal/dto"
	"aidly-widget-be/internal/entity"
	"aidly-widget-be/internal/pkg/token"
	"aidly-widget-be/internal/repository/specification"
	"aidly-widget-be/internal/repository/unitofwork"
	"aidly-widget-be/pkg/answer"
	"aidly-widget-be/pkg/events"

	"github.com/google/uuid"
)

// ISessionService tracks anonymous visitor conversations. Sessions expire
// lazily: an idle one is rejected and deactivated on its next use, never by a
// background sweep.
type ISessionService interface {
	Start(ctx context.Context, bot *entity.Bot, visitorId string) (*dto.StartSessionResponse, error)
	Chat(ctx context.Context, bot *entity.Bot, sessionToken, message string) (*dto.WidgetChatResponse, error)
	ListForBot(ctx context.Context, bot *entity.Bot, activeOnly bool) ([]*dto.SessionInfoResponse, error)
}

type sessionService struct {
	uowFactory  unitofwork.RepositoryFactory
	engine      answer.Engine
	audit       IAuditService
	idleTimeout time.Duration
	maxPerBot   int64

	startMu sync.Map // bot id -> *sync.Mutex
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	engine answer.Engine,
	audit IAuditService,
	idleTimeout time.Duration,
	maxPerBot int64,
) ISessionService {
	return &sessionService{
		uowFactory:  uowFactory,
		engine:      engine,
		audit:       audit,
		idleTimeout: idleTimeout,
		maxPerBot:   maxPerBot,
	}
}

// Start opens a session under the bot. The capacity check and insert are
// serialized per bot so concurrent starts cannot overshoot the ceiling.
func (s *sessionService) Start(ctx context.Context, bot *entity.Bot, visitorId string) (*dto.StartSessionResponse, error) {
	muAny, _ := s.startMu.LoadOrStore(bot.Id, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Age out idle sessions first so stale ones never count against the cap.
	cutoff := time.Now().Add(-s.idleTimeout)
	if _, err := uow.ChatSessionRepository().DeactivateIdleBefore(ctx, bot.Id, cutoff); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	active, err := uow.ChatSessionRepository().Count(ctx,
		specification.ForBot{BotID: bot.Id},
		specification.ActiveSessions{},
	)
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	if active >= s.maxPerBot {
		return nil, apperr.ErrSessionCapacityExceeded
	}

	handle, err := token.NewSessionHandle(constant.SessionTokenPrefix)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &entity.ChatSession{
		Id:             uuid.New(),
		BotId:          bot.Id,
		SessionToken:   handle,
		StartedAt:      now,
		LastActivityAt: now,
		MessagesCount:  0,
		IsActive:       true,
	}
	if visitorId != "" {
		session.VisitorIdentifier = &visitorId
	}

	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	s.audit.Record(ctx, events.New(events.TypeWidgetSessionOpened, map[string]interface{}{
		"bot_id":     bot.Id.String(),
		"session_id": session.Id.String(),
	}))

	return &dto.StartSessionResponse{
		SessionToken:   handle,
		BotName:        bot.Name,
		WelcomeMessage: welcomeFor(bot),
		StartedAt:      now,
	}, nil
}

// welcomeFor prefers a greeting line from the bot's own prompt when the
// prompt carries one.
func welcomeFor(bot *entity.Bot) string {
	if bot.SystemPrompt == nil {
		return constant.DefaultWelcomeMessage
	}
	prompt := *bot.SystemPrompt
	if !strings.Contains(strings.ToLower(prompt), "welcome") {
		return constant.DefaultWelcomeMessage
	}
	first, _, _ := strings.Cut(prompt, "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return constant.DefaultWelcomeMessage
	}
	return first
}

// Chat forwards a visitor question to the answer engine. The session must
// belong to the same bot the widget token is bound to.
func (s *sessionService) Chat(ctx context.Context, bot *entity.Bot, sessionToken, message string) (*dto.WidgetChatResponse, error) {
	if len(message) == 0 || len(message) > constant.MaxChatMessageLength {
		return nil, fmt.Errorf("message must be between 1 and %d characters", constant.MaxChatMessageLength)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.BySessionToken{Token: sessionToken})
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	if session == nil {
		return nil, apperr.ErrSessionNotFound
	}
	// Cross-binding: a widget token from bot A never drives bot B's session.
	if session.BotId != bot.Id {
		return nil, apperr.ErrOwnershipViolation
	}
	if !session.IsActive {
		return nil, apperr.ErrSessionExpired
	}
	if time.Since(session.LastActivityAt) > s.idleTimeout {
		// Lazy expiry on the access that notices it.
		if err := uow.ChatSessionRepository().Deactivate(ctx, session.Id); err != nil {
			return nil, apperr.ErrStoreUnavailable
		}
		return nil, apperr.ErrSessionExpired
	}

	systemPrompt := ""
	if bot.SystemPrompt != nil {
		systemPrompt = *bot.SystemPrompt
	}

	reply, latencyMs, err := s.engine.Answer(ctx, systemPrompt, message)
	if err != nil {
		return nil, fmt.Errorf("answer engine: %w", err)
	}

	now := time.Now()
	if err := uow.ChatSessionRepository().Touch(ctx, session.Id, now); err != nil {
		// Counter and activity bump are observability; don't fail the reply.
		fmt.Printf("Error touching session %s: %v\n", session.Id, err)
	}

	msg := &entity.Message{
		Id:            uuid.New(),
		Question:      message,
		Answer:        reply,
		LatencyMs:     latencyMs,
		ChatSessionId: &session.Id,
		CreatedAt:     now,
	}
	if err := uow.MessageRepository().Create(ctx, msg); err != nil {
		fmt.Printf("Error persisting widget message: %v\n", err)
	}

	return &dto.WidgetChatResponse{
		Answer:    reply,
		LatencyMs: latencyMs,
		CreatedAt: now,
	}, nil
}

func (s *sessionService) ListForBot(ctx context.Context, bot *entity.Bot, activeOnly bool) ([]*dto.SessionInfoResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.ForBot{BotID: bot.Id},
		specification.OrderBy{Field: "started_at", Desc: true},
	}
	if activeOnly {
		specs = append(specs, specification.ActiveSessions{})
	}

	sessions, err := uow.ChatSessionRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	out := make([]*dto.SessionInfoResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, &dto.SessionInfoResponse{
			Id:                sess.Id,
			SessionToken:      sess.SessionToken,
			VisitorIdentifier: sess.VisitorIdentifier,
			StartedAt:         sess.StartedAt,
			LastActivityAt:    sess.LastActivityAt,
			MessagesCount:     sess.MessagesCount,
			IsActive:          sess.IsActive,
		})
	}
	return out, nil
}
