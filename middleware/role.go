package middleware

import (
	"smartcrm/models"

	"github.com/gofiber/fiber/v2"
)

// RequireRole is the single authorization capability check applied before
// administrative mutations. It is a separate axis from feature
// entitlement: an admin denied a feature is still authorized to
// administer features. Must run after Protected().
func RequireRole(roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization required",
			})
		}
		if _, ok := allowed[user.Role]; !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient role",
			})
		}
		return c.Next()
	}
}

// RequireSelfOrAdmin allows the request when the :id path parameter names
// the caller themselves, or when the caller holds an admin role.
func RequireSelfOrAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization required",
			})
		}
		targetID, err := c.ParamsInt("id")
		if err != nil || targetID <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid user id",
			})
		}
		if uint(targetID) == user.ID || user.IsAdmin() {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Access denied",
		})
	}
}
