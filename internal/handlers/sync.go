package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/JoeBambaIsTaken/HRG-Project/internal/auth"
	"github.com/JoeBambaIsTaken/HRG-Project/internal/models"
	"github.com/JoeBambaIsTaken/HRG-Project/internal/relay"
)

// Synchronizer is the relay surface the handler invokes
type Synchronizer interface {
	Synchronize(ctx context.Context, intent models.SyncIntent, credential string) (*models.SyncResult, error)
}

// SyncHandler handles the event synchronization endpoint
type SyncHandler struct {
	Relay  Synchronizer
	Logger *zap.Logger
}

// NewSyncHandler creates a new sync handler with dependencies
func NewSyncHandler(relay Synchronizer, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		Relay:  relay,
		Logger: logger,
	}
}

// syncRequest is the wire format of a synchronization call
type syncRequest struct {
	Action string       `json:"action"`
	Event  models.Event `json:"event"`
}

// Synchronize handles POST /api/v1/sync
// The bearer credential identifies the caller; the body carries the action
// and the event snapshot. Responses: create returns the new message id,
// update/delete return a plain success.
func (h *SyncHandler) Synchronize(c *fiber.Ctx) error {
	credential := bearerToken(c.Get(fiber.HeaderAuthorization))
	if credential == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Missing Authorization header",
		})
	}

	var req syncRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Malformed request body",
		})
	}

	action, err := models.ParseSyncAction(req.Action)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	result, err := h.Relay.Synchronize(c.UserContext(), models.SyncIntent{
		Action: action,
		Event:  req.Event,
	}, credential)
	if err != nil {
		return h.errorResponse(c, action, err)
	}

	if action == models.SyncActionCreate {
		return c.JSON(fiber.Map{
			"discord_message_id": result.DiscordMessageID,
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
	})
}

// errorResponse maps relay errors onto HTTP statuses
func (h *SyncHandler) errorResponse(c *fiber.Ctx, action models.SyncAction, err error) error {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	case errors.Is(err, auth.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden",
		})
	case errors.Is(err, relay.ErrInvalidIntent):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		h.Logger.Error("Synchronization failed",
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Synchronization failed",
		})
	}
}

// bearerToken extracts the credential from an Authorization header value
func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
