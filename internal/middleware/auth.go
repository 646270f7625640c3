package middleware

import (
	"strings"

	"github.com/billswap/backend/internal/auth"
	"github.com/billswap/backend/internal/config"
	"github.com/billswap/backend/internal/rbac"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CtxUserID     = "user_id"
	CtxExternalID = "external_id"
)

func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(CtxUserID, claims.UserID)
		c.Locals(CtxExternalID, claims.ExternalID)

		return c.Next()
	}
}

func GetUserID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(CtxUserID).(uuid.UUID)
	return id
}

func GetExternalID(c *fiber.Ctx) string {
	id, _ := c.Locals(CtxExternalID).(string)
	return id
}

// RequirePermission gates a route on the caller's arbitration role.
func RequirePermission(cfg *config.Config, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := rbac.RoleFor(cfg.IsAdmin(GetExternalID(c)))
		if !rbac.HasPermission(role, permission) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "arbiter access required"})
		}
		return c.Next()
	}
}

// AdminMiddleware restricts dispute arbitration to the configured arbiters.
func AdminMiddleware(cfg *config.Config) fiber.Handler {
	return RequirePermission(cfg, rbac.PermResolveDispute)
}
