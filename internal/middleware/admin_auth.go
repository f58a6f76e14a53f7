package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// AdminKeyHeader authenticates the debug routes
const AdminKeyHeader = "X-Admin-Key"

// RequireAdminKey guards operator-only routes
func RequireAdminKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin key not configured",
			})
		}
		if subtle.ConstantTimeCompare([]byte(c.Get(AdminKeyHeader)), []byte(key)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Next()
	}
}
