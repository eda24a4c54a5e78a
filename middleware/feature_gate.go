package middleware

import (
	"errors"

	"smartcrm/config"
	"smartcrm/entitlement"
	"smartcrm/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// RequireFeature is the access gate: it resolves the caller's effective
// feature set and denies unless the named feature resolves enabled. A
// feature missing from the effective set is reported as unknown, never
// silently granted. On a transient store failure the resolution is retried
// once and then the gate fails closed. Must run after Protected().
//
// Allowed requests are recorded by the usage tracker; tracking failures
// are logged but never block the request.
func RequireFeature(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization required",
			})
		}

		resolver := entitlement.NewResolver(config.DB)
		enabled, known, err := resolver.HasFeature(c.Context(), user.ID, key)
		if err != nil && errors.Is(err, entitlement.ErrTransientStore) {
			enabled, known, err = resolver.HasFeature(c.Context(), user.ID, key)
		}
		if err != nil {
			// A vanished user is an auth problem, not an outage.
			if errors.Is(err, entitlement.ErrUserNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "User not found",
				})
			}
			logrus.WithFields(logrus.Fields{
				"user_id":     user.ID,
				"feature_key": key,
			}).WithError(err).Error("feature resolution failed, denying access")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Feature unavailable",
			})
		}
		if !known {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":       "Unknown feature",
				"feature_key": key,
			})
		}
		if !enabled {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":       "Feature not enabled",
				"feature_key": key,
			})
		}

		if feature, ferr := entitlement.NewCatalog(config.DB).GetFeatureByKey(c.Context(), key); ferr == nil {
			if terr := entitlement.NewUsageTracker(config.DB).Track(c.Context(), user.ID, feature.ID); terr != nil {
				logrus.WithError(terr).Warn("feature usage tracking failed")
			}
		}

		return c.Next()
	}
}
