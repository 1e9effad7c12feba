package controller

import (
	"time"

	"aidly-widget-be/internal/dto"
	"aidly-widget-be/internal/pkg/ratelimit"
	"aidly-widget-be/internal/pkg/serverutils"
	"aidly-widget-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IWidgetController interface {
	RegisterRoutes(r fiber.Router, authMw fiber.Handler)
	Generate(ctx *fiber.Ctx) error
	ListTokens(ctx *fiber.Ctx) error
	Revoke(ctx *fiber.Ctx) error
	Refresh(ctx *fiber.Ctx) error
	SessionStart(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
}

type generateRequest struct {
	BotId   *uuid.UUID `json:"bot_id"`
	BotName string     `json:"bot_name"`
}

type revokeRequest struct {
	BotId   uuid.UUID  `json:"bot_id" validate:"required"`
	TokenId *uuid.UUID `json:"token_id"`
}

type widgetController struct {
	widgetService  service.IWidgetService
	sessionService service.ISessionService
	limiter        ratelimit.RateLimiter
	chatLimit      int
	chatWindow     time.Duration
}

func NewWidgetController(
	widgetService service.IWidgetService,
	sessionService service.ISessionService,
	limiter ratelimit.RateLimiter,
	chatLimit int,
	chatWindow time.Duration,
) IWidgetController {
	return &widgetController{
		widgetService:  widgetService,
		sessionService: sessionService,
		limiter:        limiter,
		chatLimit:      chatLimit,
		chatWindow:     chatWindow,
	}
}

func (c *widgetController) RegisterRoutes(r fiber.Router, authMw fiber.Handler) {
	h := r.Group("/widget")

	// Owner-facing (identity token)
	h.Post("/generate", authMw, c.Generate)
	h.Get("/tokens/:id", authMw, c.ListTokens)
	h.Post("/revoke", authMw, c.Revoke)

	// Visitor-facing (widget token, anonymous, rate limited per IP)
	h.Post("/refresh", c.rateLimit, c.Refresh)
	h.Post("/session/start", c.rateLimit, c.SessionStart)
	h.Post("/chat", c.rateLimit, c.Chat)
}

// rateLimit throttles anonymous widget traffic per source IP.
func (c *widgetController) rateLimit(ctx *fiber.Ctx) error {
	exceeded, err := c.limiter.CheckRateLimit(ctx.Context(), "widget:"+ctx.IP(), c.chatLimit, c.chatWindow)
	if err != nil {
		// Rate limiting is protection, not correctness; fail open.
		return ctx.Next()
	}
	if exceeded {
		return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success": false,
			"code":    429,
			"message": "too many requests, slow down",
		})
	}
	return ctx.Next()
}

func (c *widgetController) Generate(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(uuid.UUID)

	var req generateRequest
	// Body is optional; without one the default bot is used.
	_ = ctx.BodyParser(&req)

	res, err := c.widgetService.Generate(ctx.Context(), userId, req.BotId, req.BotName)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Widget token generated",
		"data":    res,
	})
}

func (c *widgetController) ListTokens(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(uuid.UUID)
	botId, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.widgetService.ListTokens(ctx.Context(), userId, botId)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "OK",
		"data":    res,
	})
}

func (c *widgetController) Revoke(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(uuid.UUID)

	var req revokeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	count, err := c.widgetService.Revoke(ctx.Context(), userId, req.BotId, req.TokenId)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Widget tokens revoked",
		"data":    fiber.Map{"revoked_count": count},
	})
}

func (c *widgetController) Refresh(ctx *fiber.Ctx) error {
	var req dto.RefreshWidgetTokenRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.widgetService.Refresh(ctx.Context(), req.WidgetToken)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Widget token refreshed",
		"data":    res,
	})
}

func (c *widgetController) SessionStart(ctx *fiber.Ctx) error {
	raw, ok := serverutils.WidgetTokenFromHeader(ctx)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "missing widget token")
	}

	var req dto.StartSessionRequest
	_ = ctx.BodyParser(&req)
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	bot, err := c.widgetService.Authorize(ctx.Context(), raw)
	if err != nil {
		return serviceError(ctx, err)
	}

	res, err := c.sessionService.Start(ctx.Context(), bot, req.VisitorIdentifier)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Session started",
		"data":    res,
	})
}

func (c *widgetController) Chat(ctx *fiber.Ctx) error {
	raw, ok := serverutils.WidgetTokenFromHeader(ctx)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "missing widget token")
	}

	var req dto.WidgetChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	bot, err := c.widgetService.Authorize(ctx.Context(), raw)
	if err != nil {
		return serviceError(ctx, err)
	}

	res, err := c.sessionService.Chat(ctx.Context(), bot, req.SessionToken, req.Message)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "OK",
		"data":    res,
	})
}
