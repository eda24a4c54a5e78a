package main

import (
	"context"
	"log"
	"os"

	"smartcrm/config"
	"smartcrm/middleware"
	"smartcrm/routes"
	"smartcrm/worker"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "SMARTCRM: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Sentry error reporting
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Fatalf("Failed to initialize Sentry: %v", err)
		}
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Create Fiber app
	app := fiber.New()

	// Recover from handler panics, add CORS middleware
	app.Use(recover.New())
	app.Use(middleware.CORS())

	// Start the expired-override retention sweeper
	sweeper := worker.NewOverrideSweeper(
		config.DB,
		log.New(os.Stdout, "SWEEPER: ", log.LstdFlags),
		config.AppConfig.OverrideRetentionDays,
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, config.DB)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
