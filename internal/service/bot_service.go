package service

import (
	"context"
	"sync"
	"time"

	"aidly-widget-be/internal/apperr"
	"aidly-widget-be/internal/constant"
	"aidly-widget-be/internal/dto"
	"aidly-widget-be/internal/entity"
	"aidly-widget-be/internal/repository/memory"
	"aidly-widget-be/internal/repository/specification"
	"aidly-widget-be/internal/repository/unitofwork"
	"aidly-widget-be/pkg/events"

	"github.com/google/uuid"
)

// IBotService is the bot registry: ownership and activation checks for the
// widget flows plus owner-facing CRUD.
type IBotService interface {
	CreateBot(ctx context.Context, ownerId uuid.UUID, req *dto.CreateBotRequest) (*dto.BotResponse, error)
	ListBots(ctx context.Context, ownerId uuid.UUID) ([]*dto.BotResponse, error)
	GetBot(ctx context.Context, ownerId, botId uuid.UUID) (*dto.BotResponse, error)
	UpdateBot(ctx context.Context, ownerId, botId uuid.UUID, req *dto.UpdateBotRequest) (*dto.BotResponse, error)
	SetBotActive(ctx context.Context, ownerId, botId uuid.UUID, active bool) error
	DeleteBot(ctx context.Context, ownerId, botId uuid.UUID) error

	// EnsureDefaultBot returns the owner's most recent active bot, creating a
	// workspace and bot on first call. Serialized per owner so concurrent
	// first calls cannot materialize two default bots. An empty name falls
	// back to the stock assistant name for the auto-created bot.
	EnsureDefaultBot(ctx context.Context, ownerId uuid.UUID, name string) (*entity.Bot, error)

	// GetOwnedBot loads a bot and enforces ownership.
	GetOwnedBot(ctx context.Context, ownerId, botId uuid.UUID) (*entity.Bot, error)

	// GetActiveBot loads a bot for the anonymous widget path, cache first.
	GetActiveBot(ctx context.Context, botId uuid.UUID) (*entity.Bot, error)
}

type botService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.BotCache
	audit      IAuditService

	ensureMu sync.Map // owner id -> *sync.Mutex
}

func NewBotService(uowFactory unitofwork.RepositoryFactory, cache *memory.BotCache, audit IAuditService) IBotService {
	return &botService{
		uowFactory: uowFactory,
		cache:      cache,
		audit:      audit,
	}
}

func (s *botService) CreateBot(ctx context.Context, ownerId uuid.UUID, req *dto.CreateBotRequest) (*dto.BotResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	ws, err := s.ensureWorkspace(ctx, uow, ownerId)
	if err != nil {
		return nil, err
	}

	bot := &entity.Bot{
		Id:          uuid.New(),
		OwnerId:     ownerId,
		WorkspaceId: ws.Id,
		Name:        req.Name,
		IsActive:    true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if req.Description != "" {
		bot.Description = &req.Description
	}
	if req.SystemPrompt != "" {
		bot.SystemPrompt = &req.SystemPrompt
	}

	if err := uow.BotRepository().Create(ctx, bot); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	return toBotResponse(bot), nil
}

func (s *botService) ListBots(ctx context.Context, ownerId uuid.UUID) ([]*dto.BotResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	bots, err := uow.BotRepository().FindAll(ctx,
		specification.OwnedByOwner{OwnerID: ownerId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	out := make([]*dto.BotResponse, 0, len(bots))
	for _, b := range bots {
		resp := toBotResponse(b)
		if err := s.attachCounts(ctx, uow, resp); err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// attachCounts fills the usage numbers shown on the bot management surface.
func (s *botService) attachCounts(ctx context.Context, uow unitofwork.UnitOfWork, resp *dto.BotResponse) error {
	sessions, err := uow.ChatSessionRepository().Count(ctx, specification.ForBot{BotID: resp.Id})
	if err != nil {
		return apperr.ErrStoreUnavailable
	}
	tokens, err := uow.WidgetTokenRepository().Count(ctx,
		specification.ForBot{BotID: resp.Id},
		specification.ActiveWidgetTokens{},
	)
	if err != nil {
		return apperr.ErrStoreUnavailable
	}
	resp.TotalSessions = sessions
	resp.ActiveTokens = tokens
	return nil
}

func (s *botService) GetBot(ctx context.Context, ownerId, botId uuid.UUID) (*dto.BotResponse, error) {
	bot, err := s.GetOwnedBot(ctx, ownerId, botId)
	if err != nil {
		return nil, err
	}
	resp := toBotResponse(bot)
	if err := s.attachCounts(ctx, s.uowFactory.NewUnitOfWork(ctx), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *botService) UpdateBot(ctx context.Context, ownerId, botId uuid.UUID, req *dto.UpdateBotRequest) (*dto.BotResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	bot, err := s.GetOwnedBot(ctx, ownerId, botId)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		bot.Name = req.Name
	}
	if req.Description != "" {
		bot.Description = &req.Description
	}
	if req.SystemPrompt != "" {
		bot.SystemPrompt = &req.SystemPrompt
	}
	bot.UpdatedAt = time.Now()

	if err := uow.BotRepository().Update(ctx, bot); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	s.cache.Invalidate(bot.Id.String())
	return toBotResponse(bot), nil
}

// SetBotActive flips the soft activation flag. Deactivation leaves widget
// token rows in place; the widget path rejects them on its own bot check.
func (s *botService) SetBotActive(ctx context.Context, ownerId, botId uuid.UUID, active bool) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	bot, err := s.GetOwnedBot(ctx, ownerId, botId)
	if err != nil {
		return err
	}

	if err := uow.BotRepository().UpdateActive(ctx, bot.Id, active); err != nil {
		return apperr.ErrStoreUnavailable
	}
	s.cache.Invalidate(bot.Id.String())

	if !active {
		// Close live visitor conversations; they would only reject anyway.
		if _, err := uow.ChatSessionRepository().DeactivateAllForBot(ctx, bot.Id); err != nil {
			return apperr.ErrStoreUnavailable
		}
		s.audit.Record(ctx, events.New(events.TypeBotDeactivated, map[string]interface{}{
			"bot_id":   bot.Id.String(),
			"owner_id": ownerId.String(),
		}))
	}
	return nil
}

// DeleteBot removes the bot for good: widget tokens die, open sessions close,
// then the row itself goes. Session and message rows stay for the audit trail.
func (s *botService) DeleteBot(ctx context.Context, ownerId, botId uuid.UUID) error {
	bot, err := s.GetOwnedBot(ctx, ownerId, botId)
	if err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return apperr.ErrStoreUnavailable
	}
	defer uow.Rollback()

	if _, err := uow.WidgetTokenRepository().DeactivateAllForBot(ctx, bot.Id); err != nil {
		return apperr.ErrStoreUnavailable
	}
	if _, err := uow.ChatSessionRepository().DeactivateAllForBot(ctx, bot.Id); err != nil {
		return apperr.ErrStoreUnavailable
	}
	if err := uow.BotRepository().Delete(ctx, bot.Id); err != nil {
		return apperr.ErrStoreUnavailable
	}

	if err := uow.Commit(); err != nil {
		return apperr.ErrStoreUnavailable
	}

	s.cache.Invalidate(bot.Id.String())
	s.audit.Record(ctx, events.New(events.TypeBotDeleted, map[string]interface{}{
		"bot_id":   bot.Id.String(),
		"owner_id": ownerId.String(),
	}))
	return nil
}

func (s *botService) EnsureDefaultBot(ctx context.Context, ownerId uuid.UUID, name string) (*entity.Bot, error) {
	muAny, _ := s.ensureMu.LoadOrStore(ownerId, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)

	bot, err := uow.BotRepository().FindOne(ctx,
		specification.OwnedByOwner{OwnerID: ownerId},
		specification.ActiveBots{},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	if bot != nil {
		return bot, nil
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	defer uow.Rollback()

	ws := &entity.Workspace{
		Id:          uuid.New(),
		Name:        "Default Workspace",
		Description: constant.DefaultWorkspaceDescription,
		CreatedAt:   time.Now(),
	}
	if err := uow.BotRepository().CreateWorkspace(ctx, ws); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	if name == "" {
		name = "Aidly Assistant"
	}
	desc := constant.DefaultBotDescription
	prompt := constant.DefaultBotSystemPrompt
	bot = &entity.Bot{
		Id:           uuid.New(),
		OwnerId:      ownerId,
		WorkspaceId:  ws.Id,
		Name:         name,
		Description:  &desc,
		SystemPrompt: &prompt,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := uow.BotRepository().Create(ctx, bot); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	if err := uow.Commit(); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	return bot, nil
}

func (s *botService) GetOwnedBot(ctx context.Context, ownerId, botId uuid.UUID) (*entity.Bot, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	bot, err := uow.BotRepository().FindOne(ctx, specification.ByID{ID: botId})
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	if bot == nil {
		return nil, apperr.ErrBotNotFound
	}
	if bot.OwnerId != ownerId {
		return nil, apperr.ErrOwnershipViolation
	}
	return bot, nil
}

func (s *botService) GetActiveBot(ctx context.Context, botId uuid.UUID) (*entity.Bot, error) {
	if bot, ok := s.cache.Get(botId.String()); ok {
		if !bot.IsActive {
			return nil, apperr.ErrBotInactive
		}
		return bot, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	bot, err := uow.BotRepository().FindOne(ctx, specification.ByID{ID: botId})
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	if bot == nil {
		return nil, apperr.ErrBotNotFound
	}

	s.cache.Save(bot)
	if !bot.IsActive {
		return nil, apperr.ErrBotInactive
	}
	return bot, nil
}

func (s *botService) ensureWorkspace(ctx context.Context, uow unitofwork.UnitOfWork, ownerId uuid.UUID) (*entity.Workspace, error) {
	// Reuse the workspace of the owner's first bot when one exists.
	bot, err := uow.BotRepository().FindOne(ctx,
		specification.OwnedByOwner{OwnerID: ownerId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	if bot != nil {
		ws, err := uow.BotRepository().FindWorkspace(ctx, specification.ByID{ID: bot.WorkspaceId})
		if err != nil {
			return nil, apperr.ErrStoreUnavailable
		}
		if ws != nil {
			return ws, nil
		}
	}

	ws := &entity.Workspace{
		Id:          uuid.New(),
		Name:        "Default Workspace",
		Description: constant.DefaultWorkspaceDescription,
		CreatedAt:   time.Now(),
	}
	if err := uow.BotRepository().CreateWorkspace(ctx, ws); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	return ws, nil
}

func toBotResponse(b *entity.Bot) *dto.BotResponse {
	resp := &dto.BotResponse{
		Id:          b.Id,
		WorkspaceId: b.WorkspaceId,
		Name:        b.Name,
		IsActive:    b.IsActive,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if b.Description != nil {
		resp.Description = *b.Description
	}
	if b.SystemPrompt != nil {
		resp.SystemPrompt = *b.SystemPrompt
	}
	return resp
}
