package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/JoeBambaIsTaken/HRG-Project/internal/handlers"
)

// SetupRoutes configures all application routes with dependencies
func SetupRoutes(app *fiber.App, syncHandler *handlers.SyncHandler, healthHandler *handlers.HealthHandler) {
	// Health check endpoint
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 routes
	api := app.Group("/api/v1")
	{
		api.Post("/sync", syncHandler.Synchronize)
	}
}
