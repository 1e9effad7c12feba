package serverutils

import (
	"aidly-widget-be/internal/apperr"
	"aidly-widget-be/internal/pkg/token"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware verifies the Bearer identity token and stores the subject id
// in Locals("user_id"). Widget tokens are rejected here; the widget routes do
// their own verification with the widget kind.
func AuthMiddleware(tokens *token.Manager) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing token"})
		}
		tokenStr := authHeader[7:]

		claims, err := tokens.Verify(tokenStr, token.KindIdentity)
		if err != nil {
			return ctx.Status(apperr.ToStatus(err)).JSON(fiber.Map{"message": apperr.Message(err)})
		}

		userId, err := claims.SubjectId()
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid claims"})
		}

		ctx.Locals("user_id", userId)
		return ctx.Next()
	}
}

// WidgetTokenFromHeader extracts the raw Bearer token without verifying it.
// The widget service needs the raw string to hash and look up in storage.
func WidgetTokenFromHeader(ctx *fiber.Ctx) (string, bool) {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return "", false
	}
	return authHeader[7:], true
}
