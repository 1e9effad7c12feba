package service

import (
	"context"
	"fmt"
	"time"

	"aidly-widget-be/internal/apperr"
	"aidly-widget-be/internal/dto"
	"aidly-widget-be/internal/entity"
	"aidly-widget-be/internal/pkg/token"
	"aidly-widget-be/internal/repository/specification"
	"aidly-widget-be/internal/repository/unitofwork"
	"aidly-widget-be/pkg/events"

	"github.com/google/uuid"
)

// IWidgetService manages widget credentials: signed widget tokens whose hashes
// live in storage so they stay revocable despite offline verification.
type IWidgetService interface {
	Generate(ctx context.Context, ownerId uuid.UUID, botId *uuid.UUID, botName string) (*dto.GenerateWidgetTokenResponse, error)
	Refresh(ctx context.Context, presentedToken string) (*dto.RefreshWidgetTokenResponse, error)
	Revoke(ctx context.Context, ownerId, botId uuid.UUID, tokenId *uuid.UUID) (int64, error)
	ListTokens(ctx context.Context, ownerId, botId uuid.UUID) ([]*dto.WidgetTokenInfoResponse, error)

	// Authorize validates a presented widget token for the anonymous visitor
	// path and returns the bot it is bound to.
	Authorize(ctx context.Context, presentedToken string) (*entity.Bot, error)
}

type widgetService struct {
	uowFactory   unitofwork.RepositoryFactory
	tokens       *token.Manager
	bots         IBotService
	audit        IAuditService
	renewalGrace time.Duration
	embedBaseURL string
}

func NewWidgetService(
	uowFactory unitofwork.RepositoryFactory,
	tokens *token.Manager,
	bots IBotService,
	audit IAuditService,
	renewalGrace time.Duration,
	embedBaseURL string,
) IWidgetService {
	return &widgetService{
		uowFactory:   uowFactory,
		tokens:       tokens,
		bots:         bots,
		audit:        audit,
		renewalGrace: renewalGrace,
		embedBaseURL: embedBaseURL,
	}
}

// Generate issues a fresh widget token for the bot, deactivating any token
// previously live for it. With no bot id the owner's default bot is used,
// created on first call; botName only names that auto-created bot.
func (s *widgetService) Generate(ctx context.Context, ownerId uuid.UUID, botId *uuid.UUID, botName string) (*dto.GenerateWidgetTokenResponse, error) {
	var bot *entity.Bot
	var err error
	if botId != nil {
		bot, err = s.bots.GetOwnedBot(ctx, ownerId, *botId)
	} else {
		bot, err = s.bots.EnsureDefaultBot(ctx, ownerId, botName)
	}
	if err != nil {
		return nil, err
	}
	if !bot.IsActive {
		return nil, apperr.ErrBotInactive
	}

	signed, expiresAt, err := s.tokens.IssueWidget(bot.Id, bot.OwnerId)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	defer uow.Rollback()

	// Keep at most one live token per bot.
	if _, err := uow.WidgetTokenRepository().DeactivateAllForBot(ctx, bot.Id); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	row := &entity.WidgetToken{
		Id:        uuid.New(),
		BotId:     bot.Id,
		OwnerId:   bot.OwnerId,
		TokenHash: token.HashSecret(signed),
		ExpiresAt: expiresAt,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := uow.WidgetTokenRepository().Create(ctx, row); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	if err := uow.Commit(); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	s.audit.Record(ctx, events.New(events.TypeWidgetTokenIssued, map[string]interface{}{
		"bot_id":   bot.Id.String(),
		"owner_id": bot.OwnerId.String(),
		"token_id": row.Id.String(),
	}))

	return &dto.GenerateWidgetTokenResponse{
		WidgetToken: signed,
		BotId:       bot.Id,
		BotName:     bot.Name,
		ExpiresAt:   expiresAt,
		EmbedCode:   s.embedCode(signed),
	}, nil
}

// Refresh exchanges a widget token for a fresh one. The presented token may be
// past exp within the grace window, but its hash must still be live and the
// bot active. The presented row loses its active flag in the same step, so
// two concurrent refreshes of one token yield one winner.
func (s *widgetService) Refresh(ctx context.Context, presentedToken string) (*dto.RefreshWidgetTokenResponse, error) {
	claims, err := s.tokens.VerifyAllowExpired(presentedToken, token.KindWidget, s.renewalGrace)
	if err != nil {
		return nil, err
	}
	if claims.Bot == nil || claims.Owner == nil {
		return nil, apperr.ErrTokenMalformed
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	hash := token.HashSecret(presentedToken)

	row, err := uow.WidgetTokenRepository().FindOne(ctx, specification.ByTokenHash{Hash: hash})
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	if row == nil || !row.IsActive {
		return nil, apperr.ErrTokenExpired
	}
	// Cross-binding: the stored row must agree with the signed claims.
	if row.BotId != *claims.Bot {
		return nil, apperr.ErrTokenKindMismatch
	}

	bot, err := s.bots.GetActiveBot(ctx, row.BotId)
	if err != nil {
		return nil, err
	}

	signed, expiresAt, err := s.tokens.IssueWidget(bot.Id, bot.OwnerId)
	if err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	defer uow.Rollback()

	won, err := uow.WidgetTokenRepository().Deactivate(ctx, hash)
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	if !won {
		return nil, apperr.ErrTokenExpired
	}

	successor := &entity.WidgetToken{
		Id:        uuid.New(),
		BotId:     bot.Id,
		OwnerId:   bot.OwnerId,
		TokenHash: token.HashSecret(signed),
		ExpiresAt: expiresAt,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := uow.WidgetTokenRepository().Create(ctx, successor); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	if err := uow.Commit(); err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	return &dto.RefreshWidgetTokenResponse{
		WidgetToken: signed,
		ExpiresAt:   expiresAt,
	}, nil
}

// Revoke deactivates one token row, or every row for the bot when tokenId is
// nil. Returns how many rows were flipped.
func (s *widgetService) Revoke(ctx context.Context, ownerId, botId uuid.UUID, tokenId *uuid.UUID) (int64, error) {
	bot, err := s.bots.GetOwnedBot(ctx, ownerId, botId)
	if err != nil {
		return 0, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	var count int64
	if tokenId != nil {
		count, err = uow.WidgetTokenRepository().DeactivateById(ctx, bot.Id, *tokenId)
	} else {
		count, err = uow.WidgetTokenRepository().DeactivateAllForBot(ctx, bot.Id)
	}
	if err != nil {
		return 0, apperr.ErrStoreUnavailable
	}

	s.audit.Record(ctx, events.New(events.TypeWidgetTokenRevoked, map[string]interface{}{
		"bot_id":   bot.Id.String(),
		"owner_id": ownerId.String(),
		"revoked":  count,
	}))

	return count, nil
}

func (s *widgetService) ListTokens(ctx context.Context, ownerId, botId uuid.UUID) ([]*dto.WidgetTokenInfoResponse, error) {
	bot, err := s.bots.GetOwnedBot(ctx, ownerId, botId)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.WidgetTokenRepository().FindAll(ctx,
		specification.ForBot{BotID: bot.Id},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}

	out := make([]*dto.WidgetTokenInfoResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, &dto.WidgetTokenInfoResponse{
			Id:         row.Id,
			BotId:      row.BotId,
			IsActive:   row.IsActive,
			ExpiresAt:  row.ExpiresAt,
			LastUsedAt: row.LastUsedAt,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out, nil
}

// Authorize is the gate on every anonymous widget request: signature, kind,
// expiry, live hash, claims-vs-row binding, and bot activation all checked.
func (s *widgetService) Authorize(ctx context.Context, presentedToken string) (*entity.Bot, error) {
	claims, err := s.tokens.Verify(presentedToken, token.KindWidget)
	if err != nil {
		return nil, err
	}
	if claims.Bot == nil {
		return nil, apperr.ErrTokenMalformed
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	row, err := uow.WidgetTokenRepository().FindOne(ctx,
		specification.ByTokenHash{Hash: token.HashSecret(presentedToken)},
		specification.ActiveWidgetTokens{},
	)
	if err != nil {
		return nil, apperr.ErrStoreUnavailable
	}
	if row == nil {
		return nil, apperr.ErrTokenExpired
	}
	if row.BotId != *claims.Bot {
		return nil, apperr.ErrTokenKindMismatch
	}

	bot, err := s.bots.GetActiveBot(ctx, row.BotId)
	if err != nil {
		return nil, err
	}

	// Best effort; last_used_at is observability only.
	if err := uow.WidgetTokenRepository().TouchLastUsed(ctx, row.Id, time.Now()); err != nil {
		fmt.Printf("Error touching widget token %s: %v\n", row.Id, err)
	}

	return bot, nil
}

func (s *widgetService) embedCode(signedToken string) string {
	return fmt.Sprintf(
		`<script src="%s/widget.js" data-widget-token="%s" async></script>`,
		s.embedBaseURL, signedToken,
	)
}
