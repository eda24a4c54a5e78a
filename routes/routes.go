package routes

import (
	"log"

	controller "smartcrm/controllers"
	"smartcrm/middleware"
	"smartcrm/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func SetupAPIRoutes(app *fiber.App, db *gorm.DB) {
	featureController := controller.NewFeatureController(db)
	tierController := controller.NewTierController(db)
	userFeatureController := controller.NewUserFeatureController(db)

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Administrative catalog routes. RequireRole is the authorization
	// axis; it is intentionally separate from feature entitlement.
	requireSuperAdmin := middleware.RequireRole(models.RoleSuperAdmin)

	features := api.Group("/features")
	features.Get("/", requireSuperAdmin, featureController.ListFeatures)
	features.Post("/", requireSuperAdmin, middleware.AdminRateLimiter(), featureController.CreateFeature)
	features.Post("/:key/track", userFeatureController.TrackFeatureUsage)
	features.Get("/:idOrKey", requireSuperAdmin, featureController.GetFeature)
	features.Put("/:key", requireSuperAdmin, middleware.AdminRateLimiter(), featureController.UpdateFeature)
	features.Delete("/:id", requireSuperAdmin, middleware.AdminRateLimiter(), featureController.DeleteFeature)

	// Tier default matrix routes
	tiers := api.Group("/tiers", requireSuperAdmin)
	tiers.Get("/", tierController.ListTiers)
	tiers.Get("/:tier/features", tierController.GetTierFeatures)
	tiers.Put("/:tier/features", middleware.AdminRateLimiter(), tierController.SetTierFeatures)

	// Per-user entitlement routes. Overrides may also be written by
	// whitelabel admins; the reseller scope check runs in the handler
	// where the target user is loaded.
	requireAnyAdmin := middleware.RequireRole(models.RoleSuperAdmin, models.RoleWhitelabelAdmin)

	users := api.Group("/users")
	users.Get("/:id/effective-features", middleware.RequireSelfOrAdmin(), userFeatureController.GetEffectiveFeatures)
	users.Get("/:id/feature-usage", middleware.RequireSelfOrAdmin(), userFeatureController.GetUserUsage)
	users.Get("/:id/features", requireAnyAdmin, userFeatureController.ListOverrides)
	users.Put("/:id/features/:featureKey", requireAnyAdmin, middleware.AdminRateLimiter(), userFeatureController.SetUserFeature)
	users.Delete("/:id/features/:featureKey", requireAnyAdmin, middleware.AdminRateLimiter(), userFeatureController.RemoveUserFeature)

	api.Get("/me/effective-features", userFeatureController.GetMyEffectiveFeatures)

	log.Println("API routes initialized successfully")
}

func SetupBillingRoutes(app *fiber.App) {
	// Stripe calls this directly; auth is the webhook signature, not a JWT.
	billing := app.Group("/billing", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	billing.Post("/webhook", controller.HandleBillingWebhook)
}

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize Stripe
	controller.InitStripe()

	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupBillingRoutes(app)
	SetupAPIRoutes(app, db)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
