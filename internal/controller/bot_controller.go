package controller

import (
	"aidly-widget-be/internal/dto"
	"aidly-widget-be/internal/pkg/serverutils"
	"aidly-widget-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IBotController interface {
	RegisterRoutes(r fiber.Router, authMw fiber.Handler)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	SetActive(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Sessions(ctx *fiber.Ctx) error
}

type botController struct {
	botService     service.IBotService
	sessionService service.ISessionService
}

func NewBotController(botService service.IBotService, sessionService service.ISessionService) IBotController {
	return &botController{botService: botService, sessionService: sessionService}
}

func (c *botController) RegisterRoutes(r fiber.Router, authMw fiber.Handler) {
	h := r.Group("/bots")
	h.Use(authMw)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Put(":id", c.Update)
	h.Patch(":id/active", c.SetActive)
	h.Delete(":id", c.Delete)
	h.Get(":id/sessions", c.Sessions)
}

func parseIdParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid bot id")
	}
	return id, nil
}

func (c *botController) Create(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(uuid.UUID)

	var req dto.CreateBotRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.botService.CreateBot(ctx.Context(), userId, &req)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"code":    201,
		"message": "Bot created",
		"data":    res,
	})
}

func (c *botController) List(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(uuid.UUID)

	res, err := c.botService.ListBots(ctx.Context(), userId)
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

func (c *botController) Show(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(uuid.UUID)
	botId, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.botService.GetBot(ctx.Context(), userId, botId)
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

func (c *botController) Update(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(uuid.UUID)
	botId, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateBotRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.botService.UpdateBot(ctx.Context(), userId, botId, &req)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Bot updated",
		"data":    res,
	})
}

func (c *botController) SetActive(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(uuid.UUID)
	botId, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.SetBotActiveRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := c.botService.SetBotActive(ctx.Context(), userId, botId, req.IsActive); err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Bot activation updated",
		"data":    fiber.Map{"is_active": req.IsActive},
	})
}

func (c *botController) Delete(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(uuid.UUID)
	botId, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.botService.DeleteBot(ctx.Context(), userId, botId); err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Bot deleted",
		"data":    fiber.Map{"bot_id": botId},
	})
}

func (c *botController) Sessions(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(uuid.UUID)
	botId, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	bot, err := c.botService.GetOwnedBot(ctx.Context(), userId, botId)
	if err != nil {
		return serviceError(ctx, err)
	}

	res, err := c.sessionService.ListForBot(ctx.Context(), bot, ctx.QueryBool("active_only"))
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
