package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/JoeBambaIsTaken/HRG-Project/internal/database"
)

// HealthHandler handles the health check endpoint
type HealthHandler struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewHealthHandler creates a new health handler with dependencies
func NewHealthHandler(db *gorm.DB, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		DB:     db,
		Logger: logger,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	status := "healthy"

	// Check database
	if err := database.HealthCheck(ctx, h.DB); err != nil {
		services["database"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		services["database"] = "healthy"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
	}

	if status == "unhealthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	return c.JSON(response)
}
