package middleware

import (
	"context"
	"errors"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserLookup resolves the current user. Roles are not carried in the token,
// so they are read fresh on every gated request.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// RoleRequired lets the request through only if the authenticated user holds
// one of roles. It must run after AuthRequired.
func RoleRequired(users UserLookup, log *zap.Logger, roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := UserID(c)
		if id == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication is required",
			})
		}

		user, err := users.FindByID(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"message": "User no longer exists",
				})
			}
			log.Error("Role lookup failed", zap.String("user_id", id), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not authorize request",
			})
		}

		for _, r := range roles {
			if user.Role == r {
				return c.Next()
			}
		}
		log.Info("Role check denied",
			zap.String("user_id", id),
			zap.String("email", Email(c)),
			zap.String("role", string(user.Role)),
			zap.String("path", c.Path()),
		)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Forbidden resource",
		})
	}
}

// AdminRequired is RoleRequired for the admin role.
func AdminRequired(users UserLookup, log *zap.Logger) fiber.Handler {
	return RoleRequired(users, log, models.RoleAdmin)
}
